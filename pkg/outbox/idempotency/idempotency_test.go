package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sw:idempotency:" + scope + ":" + id
}

func TestCheckAndMarkProcessedFirstDelivery(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "orders-worker", eventID)
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatal("first delivery should not be marked processed")
	}
	want := "sw:idempotency:evt:processed:orders-worker:" + eventID.String()
	if store.lastKey != want {
		t.Fatalf("key = %q, want %q", store.lastKey, want)
	}
	if store.lastTTL != time.Hour {
		t.Fatalf("ttl = %v", store.lastTTL)
	}
}

func TestCheckAndMarkProcessedReplay(t *testing.T) {
	store := &fakeStore{setNXResult: false}
	manager, _ := NewManager(store, time.Hour)

	already, err := manager.CheckAndMarkProcessed(context.Background(), "orders-worker", uuid.New())
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !already {
		t.Fatal("replay should report already processed")
	}
}

func TestCheckAndMarkProcessedStoreError(t *testing.T) {
	store := &fakeStore{setNXError: errors.New("redis down")}
	manager, _ := NewManager(store, time.Hour)

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "orders-worker", uuid.New()); err == nil {
		t.Fatal("store errors must surface")
	}
}

func TestDeleteUnmarksEvent(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, _ := NewManager(store, time.Hour)

	eventID := uuid.New()
	if err := manager.Delete(context.Background(), "orders-worker", eventID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := "sw:idempotency:evt:processed:orders-worker:" + eventID.String()
	if store.lastDeleted != want {
		t.Fatalf("deleted key = %q, want %q", store.lastDeleted, want)
	}
}

func TestManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("nil store must be rejected")
	}
	manager, _ := NewManager(&fakeStore{}, time.Hour)
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("empty consumer must be rejected")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "worker", uuid.Nil); err == nil {
		t.Fatal("nil event id must be rejected")
	}
}
