package ws

import (
	"encoding/json"
	"testing"

	"splitfund/internal/domain"

	"github.com/shopspring/decimal"
)

func TestBroadcastSnapshotReachesRoomSubscribers(t *testing.T) {
	hub := NewHub()

	sub := &Client{UserID: 1, RoomID: 7, Send: make(chan []byte, 1), hub: hub}
	other := &Client{UserID: 2, RoomID: 8, Send: make(chan []byte, 1), hub: hub}
	hub.Register(sub)
	hub.Register(other)

	hub.BroadcastSnapshot(&domain.FundSnapshot{
		RoomID:              7,
		TotalContributions:  decimal.RequireFromString("500"),
		TotalReimbursements: decimal.RequireFromString("200"),
		CurrentBalance:      decimal.RequireFromString("300"),
	})

	select {
	case payload := <-sub.Send:
		var msg fundUpdate
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "fund_update" {
			t.Errorf("type = %q, want fund_update", msg.Type)
		}
		if msg.Snapshot == nil || msg.Snapshot.RoomID != 7 {
			t.Errorf("snapshot = %+v, want room 7", msg.Snapshot)
		}
	default:
		t.Fatal("subscriber did not receive the snapshot")
	}

	select {
	case <-other.Send:
		t.Fatal("snapshot leaked to a different room")
	default:
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()

	sub := &Client{UserID: 1, RoomID: 7, Send: make(chan []byte, 1), hub: hub}
	hub.Register(sub)
	hub.Unregister(sub)

	hub.BroadcastSnapshot(&domain.FundSnapshot{RoomID: 7})

	select {
	case <-sub.Send:
		t.Fatal("unregistered subscriber still received a snapshot")
	default:
	}
}
