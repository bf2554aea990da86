package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
	"github.com/shopspring/decimal"
)

func newTaskService(t *testing.T) (*services.TaskService, *store.Store) {
	t.Helper()

	st := newTestStore(t)
	addUser(t, st, "42")
	addTask(t, st, "1", 50, models.TaskStatusOpen)
	addTask(t, st, "2", 75, models.TaskStatusOpen)

	svc := services.NewTaskService(discardLogger(), st, services.NewMemoryLocker(), nil)
	svc.SetClock(newFakeClock(baseTime).Now)

	return svc, st
}

func TestCompleteTaskOnce(t *testing.T) {
	ctx := context.Background()
	svc, st := newTaskService(t)

	claim, err := svc.Complete(ctx, "42", "1")
	if err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}
	if !claim.Reward.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected reward 50, got %s", claim.Reward)
	}

	_, err = svc.Complete(ctx, "42", "1")
	if !errors.Is(err, models.ErrAlreadyClaimed) {
		t.Fatalf("Expected ErrAlreadyClaimed, got %v", err)
	}

	txs, err := st.UserTransactions(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to read transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("Expected one transaction, got %d", len(txs))
	}
	if txs[0].Reference != "1" || txs[0].State != models.TransactionStatePending {
		t.Errorf("Unexpected transaction %+v", txs[0])
	}
}

func TestCompleteRandomSkipsClaimedTasks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService(t)

	if _, err := svc.Complete(ctx, "42", "1"); err != nil {
		t.Fatalf("Failed to complete task 1: %v", err)
	}

	var offered []int
	svc.SetPicker(func(n int) int {
		offered = append(offered, n)
		return n - 1
	})

	claim, err := svc.Complete(ctx, "42", "")
	if err != nil {
		t.Fatalf("Failed to complete random task: %v", err)
	}
	if claim.Task.ID != "2" {
		t.Errorf("Expected task 2, got %s", claim.Task.ID)
	}
	if len(offered) != 1 || offered[0] != 1 {
		t.Errorf("Expected a choice among 1 task, got %v", offered)
	}

	if _, err := svc.Complete(ctx, "42", ""); !errors.Is(err, models.ErrNoTasksAvailable) {
		t.Errorf("Expected ErrNoTasksAvailable, got %v", err)
	}
}

func TestCompleteTaskErrors(t *testing.T) {
	ctx := context.Background()
	svc, st := newTaskService(t)
	addTask(t, st, "3", 10, models.TaskStatusCompleted)

	tests := []struct {
		name   string
		userID string
		taskID string
		want   error
	}{
		{"unknown user", "7", "1", models.ErrUserNotFound},
		{"unknown task", "42", "99", models.ErrTaskNotFound},
		{"closed task", "42", "3", models.ErrTaskClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Complete(ctx, tt.userID, tt.taskID); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestListTasks(t *testing.T) {
	ctx := context.Background()
	svc, st := newTaskService(t)
	addTask(t, st, "3", 10, models.TaskStatusCompleted)

	if _, err := svc.Complete(ctx, "42", "2"); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}

	tasks, err := svc.List(ctx, "42")
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}

	want := map[string]bool{"1": false, "2": true, "3": true}
	if len(tasks) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(tasks))
	}
	for _, task := range tasks {
		if task.Completed != want[task.ID] {
			t.Errorf("Task %s: expected completed=%v, got %v", task.ID, want[task.ID], task.Completed)
		}
	}

	others, err := svc.List(ctx, "43")
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	for _, task := range others {
		if task.ID == "2" && task.Completed {
			t.Error("Completion of one user leaked to another")
		}
	}
}

func TestConcurrentTaskClaimsCreditOnce(t *testing.T) {
	ctx := context.Background()
	svc, st := newTaskService(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Complete(ctx, "42", "2"); err != nil && !errors.Is(err, models.ErrAlreadyClaimed) {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := countKind(t, st, "42", models.TransactionKindTask); n != 1 {
		t.Errorf("Expected one task transaction, got %d", n)
	}
}
