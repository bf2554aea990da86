package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New(discardLogger(), store.NewMemoryBackend(), store.DefaultSheets())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	return s
}

func addUser(t *testing.T, s *store.Store, id string) {
	t.Helper()

	err := s.AppendUser(context.Background(), models.User{
		ID:           id,
		Username:     "user" + id,
		ReferralCode: models.ReferralCodeFor(id),
	})
	if err != nil {
		t.Fatalf("Failed to add user %s: %v", id, err)
	}
}

func addTask(t *testing.T, s *store.Store, id string, reward int64, status models.TaskStatus) {
	t.Helper()

	err := s.AppendTask(context.Background(), models.Task{
		ID:          id,
		Description: "task " + id,
		Reward:      decimal.NewFromInt(reward),
		Status:      status,
	})
	if err != nil {
		t.Fatalf("Failed to add task %s: %v", id, err)
	}
}

func countKind(t *testing.T, s *store.Store, userID string, kind models.TransactionKind) int {
	t.Helper()

	txs, err := s.UserTransactions(context.Background(), userID)
	if err != nil {
		t.Fatalf("Failed to read transactions: %v", err)
	}

	n := 0
	for _, tx := range txs {
		if tx.Kind == kind {
			n++
		}
	}
	return n
}

// fakeClock is safe to read from several goroutines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	statuses map[string]models.ClaimStatus
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		balances: make(map[string]decimal.Decimal),
		statuses: make(map[string]models.ClaimStatus),
	}
}

func (b *recordingBroadcaster) BroadcastBalance(userID string, balance decimal.Decimal) {
	b.mu.Lock()
	b.balances[userID] = balance
	b.mu.Unlock()
}

func (b *recordingBroadcaster) BroadcastClaimStatus(userID string, status models.ClaimStatus) {
	b.mu.Lock()
	b.statuses[userID] = status
	b.mu.Unlock()
}
