package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"splitfund/internal/db"
	"splitfund/internal/domain"
	"splitfund/internal/repository"
	"splitfund/internal/service"
)

// Smoke test for the websocket fund feed against a locally running server:
// seeds a user and room, subscribes to the feed, then submits and confirms
// a contribution over HTTP and waits for the pushed snapshot.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	ctx := context.Background()

	u, err := users.GetByProviderID(ctx, "ws-smoke")
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}
	if u == nil {
		u = &domain.User{ProviderID: "ws-smoke", Username: "wssmoke", DisplayName: "Smoke"}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user: %v", err)
		}
	}

	rooms := service.NewRoomService(pool)
	room, err := rooms.CreateRoom(ctx, u.ID, "WS Smoke")
	if err != nil {
		log.Fatalf("create room: %v", err)
	}

	service.InitJWT()
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	wsURL := fmt.Sprintf("ws://localhost:%s/ws/funds?token=%s&room_id=%d", port, token, room.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()
	log.Printf("subscribed to fund feed for room=%d", room.ID)

	base := fmt.Sprintf("http://localhost:%s/api/v1/rooms/%d/transactions", port, room.ID)

	txnID := postJSON(token, base, map[string]any{
		"type":   "CONTRIBUTION",
		"amount": "150.00",
	})
	log.Printf("submitted transaction id=%d", txnID)

	postJSON(token, fmt.Sprintf("%s/%d/resolve", base, txnID), map[string]any{
		"decision": "CONFIRMED",
	})
	log.Printf("confirmed transaction id=%d", txnID)

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("no fund update received: %v", err)
	}
	log.Printf("fund update: %s", msg)
}

func postJSON(token, url string, body map[string]any) int64 {
	buf, _ := json.Marshal(body)
	req, err := http.NewRequest("POST", url, bytes.NewReader(buf))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()

	data, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		log.Fatalf("POST %s: status %d: %s", url, res.StatusCode, data)
	}

	var out struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(data, &out)
	return out.ID
}
