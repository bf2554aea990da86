package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Shigyn/airdrop-bot-sub000/internal/config"
	"github.com/Shigyn/airdrop-bot-sub000/internal/handlers"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
)

const testBotToken = "123456:TEST-TOKEN"

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]models.UserSession
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]models.UserSession)}
}

func (m *memorySessions) StoreUserSession(_ context.Context, s *models.UserSession, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID+"/"+s.SessionID] = *s
	return nil
}

func (m *memorySessions) GetUserSession(_ context.Context, userID, sessionID string) (*models.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID+"/"+sessionID]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memorySessions) SessionExists(_ context.Context, userID, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID+"/"+sessionID]
	return ok, nil
}

func (m *memorySessions) DeleteUserSession(_ context.Context, userID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID+"/"+sessionID)
	return nil
}

type testApp struct {
	engine *gin.Engine
	hub    *handlers.WebSocketHub
	store  *store.Store
	clock  time.Time
	mu     sync.Mutex
}

func (a *testApp) now() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clock
}

func (a *testApp) advance(d time.Duration) {
	a.mu.Lock()
	a.clock = a.clock.Add(d)
	a.mu.Unlock()
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	st := store.New(log, store.NewMemoryBackend(), store.DefaultSheets())
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	for _, task := range []models.Task{
		{ID: "1", Description: "Join channel", Reward: decimal.NewFromInt(50), Status: models.TaskStatusOpen},
		{ID: "2", Description: "Follow account", Reward: decimal.NewFromInt(25), Status: models.TaskStatusOpen},
	} {
		if err := st.AppendTask(ctx, task); err != nil {
			t.Fatalf("Failed to add task: %v", err)
		}
	}

	app := &testApp{store: st, clock: time.Now().UTC()}

	locker := services.NewMemoryLocker()
	sessions := newMemorySessions()
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour})

	app.hub = handlers.NewWebSocketHub(log)
	t.Cleanup(app.hub.Close)

	users := services.NewUserService(log, st, locker, app.hub, nil, decimal.NewFromInt(10))
	users.SetClock(app.now)
	claims := services.NewClaimService(log, st, locker, services.DefaultTieredPolicy(), app.hub)
	claims.SetClock(app.now)
	tasks := services.NewTaskService(log, st, locker, app.hub)
	tasks.SetClock(app.now)
	referrals := services.NewReferralService(st)

	router := &handlers.Router{
		Auth:      handlers.NewAuthHandler(log, users, sessions, jwtService, testBotToken, time.Hour),
		User:      handlers.NewUserHandler(sessions, users),
		Claim:     handlers.NewClaimHandler(claims),
		Task:      handlers.NewTaskHandler(tasks),
		Referral:  handlers.NewReferralHandler(referrals),
		WebSocket: handlers.NewWebSocketHandler(log, app.hub, users, claims),
		Tokens:    jwtService,
		Sessions:  sessions,
	}
	app.engine = router.Engine()

	return app
}

func initData(userID int64, username, startParam string) string {
	values := url.Values{}
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Test","username":"`+username+`"}`)
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	if startParam != "" {
		values.Set("start_param", startParam)
	}
	values.Set("hash", services.SignInitData(values, testBotToken))
	return values.Encode()
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (a *testApp) login(t *testing.T, userID int64, username, startParam string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/telegram", nil)
	req.Header.Set(handlers.HeaderInitData, initData(userID, username, startParam))

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected login to succeed, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("Expected token in login response, got %s", w.Body.String())
	}
	return resp.Token
}

func decimalField(t *testing.T, resp map[string]any, key string) decimal.Decimal {
	t.Helper()

	switch v := resp[key].(type) {
	case string:
		return decimal.RequireFromString(v)
	case float64:
		return decimal.NewFromFloat(v)
	default:
		t.Fatalf("Expected numeric %s, got %#v", key, resp[key])
		return decimal.Zero
	}
}

func jsonDecode(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}
