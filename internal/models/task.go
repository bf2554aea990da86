package models

import "github.com/shopspring/decimal"

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "OPEN"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

type Task struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	Status      TaskStatus      `json:"status"`
}

// IsOpen reports whether the task still accepts claims. Anything other than an
// explicit COMPLETED flag counts as open.
func (t Task) IsOpen() bool {
	return t.Status != TaskStatusCompleted
}

// UserTask is a task as seen by one user.
type UserTask struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	Completed   bool            `json:"completed"`
}

type CompleteTaskRequest struct {
	TaskID string `json:"taskId"`
}

type TaskClaim struct {
	Task          Task            `json:"task"`
	TransactionID string          `json:"transaction_id"`
	Reward        decimal.Decimal `json:"reward"`
}
