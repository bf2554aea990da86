package config_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Reward.Policy != config.PolicyTiered {
		t.Errorf("Expected tiered policy by default, got %s", cfg.Reward.Policy)
	}
	if cfg.Reward.FullInterval != time.Hour || cfg.Reward.HalfInterval != 30*time.Minute {
		t.Errorf("Unexpected intervals %s / %s", cfg.Reward.FullInterval, cfg.Reward.HalfInterval)
	}
	if cfg.Store.UsersSheet != "Users" || cfg.Store.TransactionsSheet != "Transactions" {
		t.Errorf("Unexpected sheet names %+v", cfg.Store)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Env:   "local",
			Store: config.StoreConfig{Backend: config.BackendMemory},
			Reward: config.RewardConfig{
				Policy:       config.PolicyTiered,
				FullInterval: time.Hour,
				HalfInterval: 30 * time.Minute,
				MinSession:   10 * time.Minute,
				MaxSession:   time.Hour,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"valid", func(*config.Config) {}, false},
		{"unknown backend", func(c *config.Config) { c.Store.Backend = "excel" }, true},
		{"sheets without id", func(c *config.Config) { c.Store.Backend = config.BackendSheets }, true},
		{"postgres without dsn", func(c *config.Config) { c.Store.Backend = config.BackendPostgres }, true},
		{"half above full", func(c *config.Config) { c.Reward.HalfInterval = 2 * time.Hour }, true},
		{"accrual", func(c *config.Config) { c.Reward.Policy = config.PolicyAccrual }, false},
		{"accrual bad bounds", func(c *config.Config) {
			c.Reward.Policy = config.PolicyAccrual
			c.Reward.MinSession = 2 * time.Hour
		}, true},
		{"production without secret", func(c *config.Config) { c.Env = "production" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoogleCredentials(t *testing.T) {
	raw := `{"type":"service_account"}`

	cfg := config.StoreConfig{CredsBase64: base64.StdEncoding.EncodeToString([]byte(raw))}
	data, err := cfg.GoogleCredentials()
	if err != nil || string(data) != raw {
		t.Errorf("Expected decoded credentials, got %q, %v", data, err)
	}

	cfg = config.StoreConfig{CredsJSON: raw}
	data, err = cfg.GoogleCredentials()
	if err != nil || string(data) != raw {
		t.Errorf("Expected raw credentials, got %q, %v", data, err)
	}

	cfg = config.StoreConfig{}
	if _, err := cfg.GoogleCredentials(); err == nil {
		t.Error("Missing credentials should fail")
	}
}
