package main

import (
	"context"
	"log"
	"os"

	"splitfund/internal/db"
	"splitfund/internal/domain"
	"splitfund/internal/repository"
	"splitfund/internal/service"
)

// Seeds a demo user and room and prints a ready-to-use API token.
func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	users := repository.NewUserRepository(pool)
	ctx := context.Background()

	providerID := "demo-admin"

	u, err := users.GetByProviderID(ctx, providerID)
	if err != nil {
		log.Fatalf("lookup user failed: %v", err)
	}
	if u != nil {
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		u = &domain.User{
			ProviderID:  providerID,
			Username:    "demoadmin",
			DisplayName: "Demo Admin",
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user failed: %v", err)
		}
		log.Printf("user created id=%d\n", u.ID)
	}

	rooms := service.NewRoomService(pool)
	room, err := rooms.CreateRoom(ctx, u.ID, "Demo Trip")
	if err != nil {
		log.Fatalf("create room failed: %v", err)
	}
	log.Printf("room created id=%d invite_code=%s\n", room.ID, room.InviteCode)

	// initialize JWT and print token
	service.InitJWT()
	token, err := service.GenerateJWT(u.ID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
