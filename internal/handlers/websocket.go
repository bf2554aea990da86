package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/Shigyn/airdrop-bot-sub000/internal/middleware"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

const (
	MessageBalanceUpdate = "BALANCE_UPDATE"
	MessageClaimStatus   = "CLAIM_STATUS"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	log    *slog.Logger
	users  *services.UserService
	claims *services.ClaimService
	hub    *WebSocketHub
}

type WebSocketHub struct {
	log        *slog.Logger
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	closeOnce  sync.Once
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
	mu     sync.Mutex
}

type Message struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
	Data   any    `json:"data"`
}

func (c *Client) send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(msg)
}

func NewWebSocketHub(log *slog.Logger) *WebSocketHub {
	hub := &WebSocketHub{
		log:        log,
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
		done:       make(chan struct{}),
	}

	go hub.run()

	return hub
}

// Close stops the hub loop. Connected clients are not closed.
func (hub *WebSocketHub) Close() {
	hub.closeOnce.Do(func() { close(hub.done) })
}

func NewWebSocketHandler(log *slog.Logger, hub *WebSocketHub, users *services.UserService, claims *services.ClaimService) *WebSocketHandler {
	return &WebSocketHandler{
		log:    log,
		users:  users,
		claims: claims,
		hub:    hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade to websocket", slog.String("error", err.Error()))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	if !h.hub.add(client) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	defer func() {
		h.hub.remove(client)
		conn.Close()
	}()

	h.sendSnapshot(c, client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket error", slog.String("user_id", userID), slog.String("error", err.Error()))
			}
			break
		}

		if msg.Type == MessagePing {
			client.send(&Message{
				Type: MessagePong,
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

// sendSnapshot pushes the current balance and claim state on connect.
func (h *WebSocketHandler) sendSnapshot(c *gin.Context, client *Client) {
	ctx := c.Request.Context()

	if balance, err := h.users.Balance(ctx, client.UserID); err == nil {
		client.send(balanceMessage(client.UserID, balance))
	}
	if status, err := h.claims.Status(ctx, client.UserID); err == nil {
		client.send(claimStatusMessage(client.UserID, status))
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			if hub.clients[client.UserID] == nil {
				hub.clients[client.UserID] = make(map[*Client]struct{})
			}
			hub.clients[client.UserID][client] = struct{}{}
			hub.log.Debug("websocket client registered", slog.String("user_id", client.UserID))

		case client := <-hub.unregister:
			if conns, ok := hub.clients[client.UserID]; ok {
				delete(conns, client)
				if len(conns) == 0 {
					delete(hub.clients, client.UserID)
				}
				hub.log.Debug("websocket client unregistered", slog.String("user_id", client.UserID))
			}

		case message := <-hub.broadcast:
			for client := range hub.clients[message.UserID] {
				if err := client.send(message); err != nil {
					hub.log.Debug("websocket write failed", slog.String("user_id", client.UserID), slog.String("error", err.Error()))
				}
			}

		case <-hub.done:
			return
		}
	}
}

// add reports false once the hub is closed.
func (hub *WebSocketHub) add(client *Client) bool {
	select {
	case hub.register <- client:
		return true
	case <-hub.done:
		return false
	}
}

func (hub *WebSocketHub) remove(client *Client) {
	select {
	case hub.unregister <- client:
	case <-hub.done:
	}
}

// publish never blocks the caller. Messages are dropped while the queue is full.
func (hub *WebSocketHub) publish(msg *Message) {
	select {
	case hub.broadcast <- msg:
	default:
		hub.log.Warn("websocket queue full, dropping message", slog.String("type", msg.Type), slog.String("user_id", msg.UserID))
	}
}

func (hub *WebSocketHub) BroadcastBalance(userID string, balance decimal.Decimal) {
	hub.publish(balanceMessage(userID, balance))
}

func (hub *WebSocketHub) BroadcastClaimStatus(userID string, status models.ClaimStatus) {
	hub.publish(claimStatusMessage(userID, status))
}

func balanceMessage(userID string, balance decimal.Decimal) *Message {
	return &Message{
		Type:   MessageBalanceUpdate,
		UserID: userID,
		Data: gin.H{
			"balance":   balance,
			"timestamp": time.Now().Unix(),
		},
	}
}

func claimStatusMessage(userID string, status models.ClaimStatus) *Message {
	return &Message{
		Type:   MessageClaimStatus,
		UserID: userID,
		Data: gin.H{
			"state":     status.State,
			"reward":    status.Reward,
			"remaining": status.RemainingMillis(),
			"timestamp": time.Now().Unix(),
		},
	}
}
