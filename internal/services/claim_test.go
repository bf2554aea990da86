package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
	"github.com/shopspring/decimal"
)

func newClaimService(t *testing.T) (*services.ClaimService, *fakeClock, *recordingBroadcaster) {
	t.Helper()

	st := newTestStore(t)
	addUser(t, st, "42")

	clock := newFakeClock(baseTime)
	broadcaster := newRecordingBroadcaster()
	svc := services.NewClaimService(discardLogger(), st, services.NewMemoryLocker(), services.DefaultTieredPolicy(), broadcaster)
	svc.SetClock(clock.Now)

	return svc, clock, broadcaster
}

func TestClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, clock, broadcaster := newClaimService(t)

	result, err := svc.Claim(ctx, "42", nil)
	if err != nil {
		t.Fatalf("First claim failed: %v", err)
	}
	if result.Type != models.ClaimTypeFull || !result.Reward.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected full claim of 100, got %s of %s", result.Type, result.Reward)
	}

	clock.Advance(45 * time.Minute)
	result, err = svc.Claim(ctx, "42", nil)
	if err != nil {
		t.Fatalf("Partial claim failed: %v", err)
	}
	if result.Type != models.ClaimTypePartial || !result.Reward.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected partial claim of 30, got %s of %s", result.Type, result.Reward)
	}
	if !result.Balance.Equal(decimal.NewFromInt(130)) {
		t.Errorf("Expected balance 130, got %s", result.Balance)
	}

	_, err = svc.Claim(ctx, "42", nil)
	var notReady *models.ClaimNotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("Expected ClaimNotReadyError, got %v", err)
	}
	if notReady.Remaining != 60*time.Minute {
		t.Errorf("Expected 60m remaining, got %s", notReady.Remaining)
	}

	if got := broadcaster.balances["42"]; !got.Equal(decimal.NewFromInt(130)) {
		t.Errorf("Expected broadcast balance 130, got %s", got)
	}
	if got := broadcaster.statuses["42"]; got.State != models.ClaimStateCoolingDown {
		t.Errorf("Expected broadcast COOLING_DOWN, got %s", got.State)
	}
}

func TestClaimRejectedRecordsNothing(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newClaimService(t)

	if _, err := svc.Claim(ctx, "42", nil); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}

	clock.Advance(10 * time.Minute)
	if _, err := svc.Claim(ctx, "42", nil); !errors.Is(err, models.ErrClaimNotReady) {
		t.Fatalf("Expected ErrClaimNotReady, got %v", err)
	}

	status, err := svc.Status(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if status.LastClaimAt == nil || !status.LastClaimAt.Equal(baseTime) {
		t.Errorf("Expected last claim to stay at %s, got %v", baseTime, status.LastClaimAt)
	}
	if status.Remaining != 50*time.Minute {
		t.Errorf("Expected 50m remaining, got %s", status.Remaining)
	}
}

func TestClaimStatusIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newClaimService(t)

	first, err := svc.Status(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	second, err := svc.Status(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}

	if first.State != second.State || !first.Reward.Equal(second.Reward) {
		t.Errorf("Status changed between calls: %+v then %+v", first, second)
	}
	if first.State != models.ClaimStateReadyFull {
		t.Errorf("Expected READY_FULL for a new user, got %s", first.State)
	}
}

func TestClaimUnknownUser(t *testing.T) {
	svc, _, _ := newClaimService(t)

	if _, err := svc.Claim(context.Background(), "7", nil); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestConcurrentClaimsCreditOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	addUser(t, st, "42")

	svc := services.NewClaimService(discardLogger(), st, services.NewMemoryLocker(), services.DefaultTieredPolicy(), nil)
	svc.SetClock(newFakeClock(baseTime).Now)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(ctx, "42", nil)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, models.ErrClaimNotReady) {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("Expected exactly one successful claim, got %d", succeeded)
	}
	if n := countKind(t, st, "42", models.TransactionKindClaim); n != 1 {
		t.Errorf("Expected one claim transaction, got %d", n)
	}
}
