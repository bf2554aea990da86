package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindClaim    TransactionKind = "claim"
	TransactionKindTask     TransactionKind = "task"
	TransactionKindReferral TransactionKind = "referral"
)

type TransactionState string

const (
	TransactionStatePending  TransactionState = "PENDING"
	TransactionStateCredited TransactionState = "CREDITED"
)

// Transaction is one row of the append-only reward log. Reference holds the
// task id for task rows, the claim type for claim rows and the referee id for
// referral rows.
type Transaction struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"timestamp"`
	UserID    string           `json:"user_id"`
	Kind      TransactionKind  `json:"kind"`
	Reference string           `json:"reference"`
	Reward    decimal.Decimal  `json:"reward"`
	State     TransactionState `json:"state"`
}

// Ledger is the per-user projection of the transaction log.
type Ledger struct {
	Balance     decimal.Decimal
	LastClaimAt *time.Time
	Claimed     map[string]bool
}

// BuildLedger folds the log for one user. LastClaimAt is the latest claim
// timestamp so it never moves backwards, whatever the row order.
func BuildLedger(userID string, txs []Transaction) Ledger {
	l := Ledger{
		Balance: decimal.Zero,
		Claimed: make(map[string]bool),
	}

	for _, tx := range txs {
		if tx.UserID != userID {
			continue
		}

		l.Balance = l.Balance.Add(tx.Reward)

		switch tx.Kind {
		case TransactionKindTask:
			l.Claimed[tx.Reference] = true
		case TransactionKindClaim:
			if tx.CreatedAt.IsZero() {
				continue
			}
			if l.LastClaimAt == nil || tx.CreatedAt.After(*l.LastClaimAt) {
				at := tx.CreatedAt
				l.LastClaimAt = &at
			}
		}
	}

	return l
}
