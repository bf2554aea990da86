package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

func TestMemoryLockerExcludes(t *testing.T) {
	locker := services.NewMemoryLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "user:1")
	if err != nil {
		t.Fatalf("Failed to lock: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "user:1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected second lock to time out, got %v", err)
	}

	other, err := locker.Lock(ctx, "user:2")
	if err != nil {
		t.Fatalf("Expected other key to lock freely: %v", err)
	}
	other()

	unlock()
	unlock()

	again, err := locker.Lock(ctx, "user:1")
	if err != nil {
		t.Fatalf("Failed to relock after unlock: %v", err)
	}
	again()
}
