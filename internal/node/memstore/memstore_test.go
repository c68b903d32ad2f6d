package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pureboot/pureboot/internal/model"
	"github.com/pureboot/pureboot/internal/node"
)

func TestUpsertThenLookupByMAC(t *testing.T) {
	s := New()
	ctx := context.Background()
	n := &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff", State: model.StateDiscovered}

	if err := s.Upsert(ctx, n); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := s.LookupByMAC(ctx, "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("LookupByMAC: %v", err)
	}
	if got.ID != "n1" {
		t.Errorf("got ID %q, want n1", got.ID)
	}
}

func TestLookupBySerialNotFound(t *testing.T) {
	s := New()
	_, err := s.LookupBySerial(context.Background(), "d83add36")
	if !errors.Is(err, node.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpsertRejectsDuplicateMACOnDifferentNode(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Upsert(ctx, &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	err := s.Upsert(ctx, &model.Node{ID: "n2", MACAddress: "aa:bb:cc:dd:ee:ff"})
	if !errors.Is(err, node.ErrDuplicate) {
		t.Errorf("got %v, want ErrDuplicate", err)
	}
}

func TestUpsertSameNodeIDUpdatesInPlace(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Upsert(ctx, &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff", State: model.StateDiscovered}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff", State: model.StatePending}); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err := s.LookupByMAC(ctx, "aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("LookupByMAC: %v", err)
	}
	if got.State != model.StatePending {
		t.Errorf("got state %q, want pending", got.State)
	}
}

func TestTouchLastSeenUpdatesBothIndexes(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Upsert(ctx, &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff", SerialNumber: "d83add36"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	now := time.Unix(1000, 0)
	if err := s.TouchLastSeen(ctx, "n1", now); err != nil {
		t.Fatalf("TouchLastSeen: %v", err)
	}

	byMAC, _ := s.LookupByMAC(ctx, "aa:bb:cc:dd:ee:ff")
	bySerial, _ := s.LookupBySerial(ctx, "d83add36")
	if !byMAC.LastSeenAt.Equal(now) || !bySerial.LastSeenAt.Equal(now) {
		t.Errorf("LastSeenAt not updated on both indexes: mac=%v serial=%v", byMAC.LastSeenAt, bySerial.LastSeenAt)
	}
}

func TestTouchLastSeenUnknownNodeErrors(t *testing.T) {
	s := New()
	err := s.TouchLastSeen(context.Background(), "ghost", time.Now())
	if !errors.Is(err, node.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestLookupReturnsACopyNotAliasedState(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Upsert(ctx, &model.Node{ID: "n1", MACAddress: "aa:bb:cc:dd:ee:ff", State: model.StateDiscovered}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, _ := s.LookupByMAC(ctx, "aa:bb:cc:dd:ee:ff")
	got.State = model.StateActive

	reread, _ := s.LookupByMAC(ctx, "aa:bb:cc:dd:ee:ff")
	if reread.State != model.StateDiscovered {
		t.Errorf("mutating the returned copy affected the store: got %q", reread.State)
	}
}
