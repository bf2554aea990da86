package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type wsMessage struct {
	Type   string         `json:"type"`
	UserID string         `json:"user_id"`
	Data   map[string]any `json:"data"`
}

func dialWebSocket(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("Failed to dial websocket (status %d): %v", status, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Expected a matching websocket message, got error: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func messageBalance(msg wsMessage) decimal.Decimal {
	switch v := msg.Data["balance"].(type) {
	case string:
		d, _ := decimal.NewFromString(v)
		return d
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.NewFromInt(-1)
}

func TestWebSocketReceivesBalanceAfterClaim(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, 42, "ada", "")

	server := httptest.NewServer(app.engine)
	defer server.Close()

	conn := dialWebSocket(t, server, token)

	snapshot := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "BALANCE_UPDATE" })
	if !messageBalance(snapshot).IsZero() {
		t.Errorf("Expected snapshot balance 0, got %v", snapshot.Data["balance"])
	}

	w, _ := app.do(t, http.MethodPost, "/claim", token, map[string]any{"userId": "42"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected claim to succeed, got %d: %s", w.Code, w.Body.String())
	}

	update := readUntil(t, conn, func(m wsMessage) bool {
		return m.Type == "BALANCE_UPDATE" && messageBalance(m).IntPart() == 100
	})
	if update.UserID != "42" {
		t.Errorf("Expected update for user 42, got %q", update.UserID)
	}
}

func TestWebSocketAfterHubClose(t *testing.T) {
	app := newTestApp(t)
	token := app.login(t, 42, "ada", "")

	server := httptest.NewServer(app.engine)
	defer server.Close()

	app.hub.Close()

	conn := dialWebSocket(t, server, token)
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("Expected going-away close from a closed hub, got %v", err)
	}
}
