package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
)

type TaskService struct {
	log         *slog.Logger
	store       *store.Store
	locker      Locker
	broadcaster Broadcaster
	now         func() time.Time
	pick        func(n int) int
}

func NewTaskService(log *slog.Logger, st *store.Store, locker Locker, broadcaster Broadcaster) *TaskService {
	return &TaskService{
		log:         log,
		store:       st,
		locker:      locker,
		broadcaster: orNop(broadcaster),
		now:         time.Now,
		pick:        rand.IntN,
	}
}

func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// SetPicker replaces the uniform choice used when no task id is given.
func (s *TaskService) SetPicker(pick func(n int) int) {
	s.pick = pick
}

// List returns every task with the completion flag of one user. Globally
// closed tasks show as completed.
func (s *TaskService) List(ctx context.Context, userID string) ([]models.UserTask, error) {
	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.UserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	claimed := models.BuildLedger(userID, txs).Claimed

	out := make([]models.UserTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, models.UserTask{
			ID:          t.ID,
			Description: t.Description,
			Reward:      t.Reward,
			Completed:   claimed[t.ID] || !t.IsOpen(),
		})
	}

	return out, nil
}

// Complete credits a task once per user. An empty taskID picks one of the
// tasks the user can still claim.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string) (*models.TaskClaim, error) {
	const op = "services.TaskService.Complete"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	defer unlock()

	if _, err := s.store.FindUser(ctx, userID); err != nil {
		return nil, err
	}

	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.UserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	ledger := models.BuildLedger(userID, txs)

	task, err := s.selectTask(tasks, ledger.Claimed, taskID)
	if err != nil {
		log.Info("task claim rejected", slog.String("task_id", taskID), slog.String("reason", err.Error()))
		return nil, err
	}

	tx := models.Transaction{
		ID:        models.GenerateTransactionID(),
		CreatedAt: s.now().UTC(),
		UserID:    userID,
		Kind:      models.TransactionKindTask,
		Reference: task.ID,
		Reward:    task.Reward,
		State:     models.TransactionStatePending,
	}
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		log.Error("failed to record task claim", slog.String("error", err.Error()))
		return nil, err
	}

	balance := ledger.Balance.Add(tx.Reward)
	log.Info("task claimed", slog.String("task_id", task.ID), slog.String("reward", task.Reward.String()))
	s.broadcaster.BroadcastBalance(userID, balance)

	return &models.TaskClaim{
		Task:          task,
		TransactionID: tx.ID,
		Reward:        task.Reward,
	}, nil
}

func (s *TaskService) selectTask(tasks []models.Task, claimed map[string]bool, taskID string) (models.Task, error) {
	if taskID == "" {
		var available []models.Task
		for _, t := range tasks {
			if t.IsOpen() && !claimed[t.ID] {
				available = append(available, t)
			}
		}
		if len(available) == 0 {
			return models.Task{}, models.ErrNoTasksAvailable
		}
		return available[s.pick(len(available))], nil
	}

	for _, t := range tasks {
		if t.ID != taskID {
			continue
		}
		if claimed[t.ID] {
			return models.Task{}, fmt.Errorf("%w: %s", models.ErrAlreadyClaimed, taskID)
		}
		if !t.IsOpen() {
			return models.Task{}, fmt.Errorf("%w: %s", models.ErrTaskClosed, taskID)
		}
		return t, nil
	}

	return models.Task{}, fmt.Errorf("%w: %s", models.ErrTaskNotFound, taskID)
}
