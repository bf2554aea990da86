package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendSheets   = "sheets"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	PolicyTiered  = "tiered"
	PolicyAccrual = "accrual"
)

type Config struct {
	Env  string `env:"ENV" env-default:"local"`
	Port string `env:"PORT" env-default:"8080"`

	BotToken       string        `env:"TELEGRAM_BOT_TOKEN"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	InitDataMaxAge time.Duration `env:"INIT_DATA_MAX_AGE" env-default:"24h"`
	WebAppURL      string        `env:"WEBAPP_URL"`

	RedisURL  string `env:"REDIS_URL" env-default:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" env-default:"0"`

	Store  StoreConfig  `env-prefix:""`
	Reward RewardConfig `env-prefix:""`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" env-default:"10m"`
	LockTTL           time.Duration `env:"LOCK_TTL" env-default:"10s"`
	NotifyReferrals   bool          `env:"NOTIFY_REFERRALS" env-default:"true"`
}

type StoreConfig struct {
	Backend string `env:"STORE_BACKEND" env-default:"sheets"`

	SheetID     string `env:"GOOGLE_SHEET_ID"`
	CredsBase64 string `env:"GOOGLE_CREDS_B64"`
	CredsJSON   string `env:"GOOGLE_CREDS"`

	UsersSheet        string `env:"USERS_SHEET" env-default:"Users"`
	TasksSheet        string `env:"TASKS_SHEET" env-default:"Tasks"`
	TransactionsSheet string `env:"TRANSACTIONS_SHEET" env-default:"Transactions"`
	ReferralsSheet    string `env:"REFERRALS_SHEET" env-default:"Referrals"`

	PostgresDSN string `env:"POSTGRES_DSN"`
}

type RewardConfig struct {
	Policy string `env:"REWARD_POLICY" env-default:"tiered"`

	FullInterval  time.Duration `env:"CLAIM_FULL_INTERVAL" env-default:"60m"`
	HalfInterval  time.Duration `env:"CLAIM_HALF_INTERVAL" env-default:"30m"`
	FullReward    string        `env:"CLAIM_FULL_REWARD" env-default:"100"`
	PartialReward string        `env:"CLAIM_PARTIAL_REWARD" env-default:"30"`

	MinSession         time.Duration `env:"MINING_MIN_SESSION" env-default:"10m"`
	MaxSession         time.Duration `env:"MINING_MAX_SESSION" env-default:"60m"`
	DefaultMiningSpeed string        `env:"DEFAULT_MINING_SPEED" env-default:"1"`

	ReferralReward string `env:"REFERRAL_REWARD" env-default:"10"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendSheets:
		if c.Store.SheetID == "" {
			errs = append(errs, errors.New("GOOGLE_SHEET_ID is required for the sheets backend"))
		}
		if c.Store.CredsBase64 == "" && c.Store.CredsJSON == "" {
			errs = append(errs, errors.New("google credentials are missing"))
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres backend"))
		}
	case BackendRedis, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend: %q", c.Store.Backend))
	}

	switch c.Reward.Policy {
	case PolicyTiered:
		if c.Reward.HalfInterval <= 0 || c.Reward.HalfInterval >= c.Reward.FullInterval {
			errs = append(errs, fmt.Errorf("half interval %s must be positive and below full interval %s",
				c.Reward.HalfInterval, c.Reward.FullInterval))
		}
	case PolicyAccrual:
		if c.Reward.MinSession <= 0 || c.Reward.MinSession > c.Reward.MaxSession {
			errs = append(errs, fmt.Errorf("mining session bounds %s..%s are invalid",
				c.Reward.MinSession, c.Reward.MaxSession))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown reward policy: %q", c.Reward.Policy))
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.BotToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required in production"))
		}
	}

	return errors.Join(errs...)
}

// GoogleCredentials returns the service account JSON, preferring the base64
// variant.
func (c *StoreConfig) GoogleCredentials() ([]byte, error) {
	if c.CredsBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.CredsBase64))
		if err != nil {
			return nil, fmt.Errorf("failed to decode GOOGLE_CREDS_B64: %w", err)
		}
		return data, nil
	}
	if c.CredsJSON != "" {
		return []byte(c.CredsJSON), nil
	}
	return nil, errors.New("google credentials are missing")
}
