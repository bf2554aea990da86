package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/config"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

type RedisService struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}

	return &RedisService{
		client:  client,
		lockTTL: lockTTL,
	}, nil
}

// Client exposes the connection so the row store can share it.
func (s *RedisService) Client() *redis.Client {
	return s.client
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, expiry).Err()
}

func (s *RedisService) GetUserSession(ctx context.Context, userID, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastAccessed = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		s.client.Set(ctx, key, updated, redis.KeepTTL)
	}

	return &session, nil
}

func (s *RedisService) SessionExists(ctx context.Context, userID, sessionID string) (bool, error) {
	count, err := s.client.Exists(ctx, fmt.Sprintf(KeyUserSession, userID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return count > 0, nil
}

func (s *RedisService) DeleteUserSession(ctx context.Context, userID, sessionID string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyUserSession, userID, sessionID)).Err()
}

func (s *RedisService) CheckRateLimit(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(ctx context.Context, userID, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, userID, action)).Err()
}

var releaseLockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

var extendLockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	end
	return 0
`)

// Lock takes a lock shared by every instance pointing at the same Redis. The
// lock is renewed every lockTTL/3 while held and expires after lockTTL if the
// holder dies.
func (s *RedisService) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf(KeyLock, key)
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: lock %s: %v", models.ErrStoreUnavailable, key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go s.renewLock(lockKey, token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped
			releaseLockScript.Run(context.Background(), s.client, []string{lockKey}, token)
		})
	}, nil
}

// renewLock extends the lock until stop is closed or the lock is no longer ours.
func (s *RedisService) renewLock(lockKey, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.lockTTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL/3)
			n, err := extendLockScript.Run(ctx, s.client, []string{lockKey}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}
