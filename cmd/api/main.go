package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/Shigyn/airdrop-bot-sub000/internal/config"
	"github.com/Shigyn/airdrop-bot-sub000/internal/handlers"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/notify"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	if envErr != nil {
		log.Info("no .env file found, using environment variables")
	}

	// Numbers in responses, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisService.Close()

	backend, closeBackend, err := openBackend(ctx, cfg, redisService)
	if err != nil {
		log.Error("failed to open row store", slog.String("backend", cfg.Store.Backend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeBackend()

	st := store.New(log, backend, store.Sheets{
		Users:        cfg.Store.UsersSheet,
		Tasks:        cfg.Store.TasksSheet,
		Transactions: cfg.Store.TransactionsSheet,
		Referrals:    cfg.Store.ReferralsSheet,
	})

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = st.Init(initCtx)
	cancel()
	if err != nil {
		log.Error("failed to validate tables", slog.String("error", err.Error()))
		os.Exit(1)
	}

	policy, err := services.NewRewardPolicy(cfg.Reward)
	if err != nil {
		log.Error("failed to build reward policy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var notifier services.ReferralNotifier
	if cfg.NotifyReferrals && cfg.BotToken != "" {
		tg, err := notify.NewTelegramNotifier(log, cfg.BotToken, cfg.WebAppURL)
		if err != nil {
			log.Warn("referral notifications disabled", slog.String("error", err.Error()))
		} else {
			notifier = tg
		}
	}

	hub := handlers.NewWebSocketHub(log)
	defer hub.Close()

	jwtService := services.NewJWTService(cfg)
	userService := services.NewUserService(log, st, redisService, hub, notifier, models.ParseAmount(cfg.Reward.ReferralReward))
	claimService := services.NewClaimService(log, st, redisService, policy, hub)
	taskService := services.NewTaskService(log, st, redisService, hub)
	referralService := services.NewReferralService(st)

	if cfg.ReconcileInterval > 0 {
		go reconcileLoop(ctx, log, userService, cfg.ReconcileInterval)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := &handlers.Router{
		Auth:      handlers.NewAuthHandler(log, userService, redisService, jwtService, cfg.BotToken, cfg.InitDataMaxAge),
		User:      handlers.NewUserHandler(redisService, userService),
		Claim:     handlers.NewClaimHandler(claimService),
		Task:      handlers.NewTaskHandler(taskService),
		Referral:  handlers.NewReferralHandler(referralService),
		WebSocket: handlers.NewWebSocketHandler(log, hub, userService, claimService),
		Tokens:    jwtService,
		Sessions:  redisService,
		Limiter:   redisService,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.Engine(),
	}

	go func() {
		log.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("backend", cfg.Store.Backend),
			slog.String("policy", policy.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

// reconcileLoop refreshes the cached user columns until ctx is done.
func reconcileLoop(ctx context.Context, log *slog.Logger, users *services.UserService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := users.Reconcile(ctx); err != nil {
				log.Error("reconcile failed", slog.String("error", err.Error()))
			}
		}
	}
}

func openBackend(ctx context.Context, cfg *config.Config, redisService *services.RedisService) (store.Backend, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case config.BackendSheets:
		creds, err := cfg.Store.GoogleCredentials()
		if err != nil {
			return nil, noop, err
		}
		backend, err := store.NewSheetsBackend(ctx, cfg.Store.SheetID, creds)
		return backend, noop, err

	case config.BackendPostgres:
		backend, err := store.NewPostgresBackend(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return backend, backend.Close, nil

	case config.BackendRedis:
		return store.NewRedisBackend(redisService.Client()), noop, nil

	case config.BackendMemory:
		return store.NewMemoryBackend(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
