package services

import (
	"fmt"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/config"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/shopspring/decimal"
)

// RewardPolicy derives the claim state of a user from its last claim. A nil
// lastClaim means the user never claimed.
type RewardPolicy interface {
	Name() string
	Evaluate(now time.Time, user models.User, lastClaim *time.Time, requestedMinutes *int) models.ClaimStatus
}

func NewRewardPolicy(cfg config.RewardConfig) (RewardPolicy, error) {
	switch cfg.Policy {
	case config.PolicyTiered, "":
		return &TieredPolicy{
			FullInterval:  cfg.FullInterval,
			HalfInterval:  cfg.HalfInterval,
			FullReward:    models.ParseAmount(cfg.FullReward),
			PartialReward: models.ParseAmount(cfg.PartialReward),
		}, nil
	case config.PolicyAccrual:
		return &AccrualPolicy{
			MinSession:   cfg.MinSession,
			MaxSession:   cfg.MaxSession,
			DefaultSpeed: models.ParseAmount(cfg.DefaultMiningSpeed),
		}, nil
	default:
		return nil, fmt.Errorf("unknown reward policy: %q", cfg.Policy)
	}
}

// TieredPolicy pays a full reward once FullInterval has elapsed and a partial
// one from HalfInterval on.
type TieredPolicy struct {
	FullInterval  time.Duration
	HalfInterval  time.Duration
	FullReward    decimal.Decimal
	PartialReward decimal.Decimal
}

func DefaultTieredPolicy() *TieredPolicy {
	return &TieredPolicy{
		FullInterval:  60 * time.Minute,
		HalfInterval:  30 * time.Minute,
		FullReward:    decimal.NewFromInt(100),
		PartialReward: decimal.NewFromInt(30),
	}
}

func (p *TieredPolicy) Name() string { return config.PolicyTiered }

func (p *TieredPolicy) Evaluate(now time.Time, _ models.User, lastClaim *time.Time, _ *int) models.ClaimStatus {
	status := models.ClaimStatus{LastClaimAt: lastClaim}

	if lastClaim == nil {
		status.State = models.ClaimStateReadyFull
		status.Type = models.ClaimTypeFull
		status.Reward = p.FullReward
		return status
	}

	elapsed := sinceClamped(now, *lastClaim)
	status.Elapsed = elapsed

	switch {
	case elapsed >= p.FullInterval:
		status.State = models.ClaimStateReadyFull
		status.Type = models.ClaimTypeFull
		status.Reward = p.FullReward
	case elapsed >= p.HalfInterval:
		status.State = models.ClaimStateReadyPartial
		status.Type = models.ClaimTypePartial
		status.Reward = p.PartialReward
	default:
		status.State = models.ClaimStateCoolingDown
		status.Reward = decimal.Zero
		status.Remaining = p.FullInterval - elapsed
	}

	return status
}

// AccrualPolicy pays MiningSpeed per whole minute of the running session. A
// session starts at the previous claim, must last MinSession and stops
// accruing at MaxSession.
type AccrualPolicy struct {
	MinSession   time.Duration
	MaxSession   time.Duration
	DefaultSpeed decimal.Decimal
}

func (p *AccrualPolicy) Name() string { return config.PolicyAccrual }

func (p *AccrualPolicy) Evaluate(now time.Time, user models.User, lastClaim *time.Time, requestedMinutes *int) models.ClaimStatus {
	status := models.ClaimStatus{LastClaimAt: lastClaim, Type: models.ClaimTypeSession}

	elapsed := p.MaxSession
	if lastClaim != nil {
		elapsed = sinceClamped(now, *lastClaim)
	}
	status.Elapsed = elapsed

	if elapsed < p.MinSession {
		status.State = models.ClaimStateCoolingDown
		status.Type = ""
		status.Reward = decimal.Zero
		status.Remaining = p.MinSession - elapsed
		return status
	}

	settled := elapsed
	if settled > p.MaxSession {
		settled = p.MaxSession
	}

	minutes := int64(settled / time.Minute)
	if requestedMinutes != nil && *requestedMinutes > 0 && int64(*requestedMinutes) < minutes {
		minutes = max(int64(*requestedMinutes), int64(p.MinSession/time.Minute))
	}

	status.Reward = p.speed(user).Mul(decimal.NewFromInt(minutes))
	if elapsed >= p.MaxSession {
		status.State = models.ClaimStateReadyFull
	} else {
		status.State = models.ClaimStateReadyPartial
	}

	return status
}

func (p *AccrualPolicy) speed(user models.User) decimal.Decimal {
	if user.MiningSpeed.Valid {
		return user.MiningSpeed.Decimal
	}
	return p.DefaultSpeed
}

// sinceClamped treats a last claim in the future, from clock skew between
// writers, as a claim made right now.
func sinceClamped(now, last time.Time) time.Duration {
	elapsed := now.Sub(last)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
