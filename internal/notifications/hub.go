package notifications

import (
	"context"
	"errors"
	"sync"

	"collegeconnect/internal/middleware"
	"collegeconnect/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrHubClosed       = errors.New("notification hub is shutting down")
)

var wsLog = observability.NewWSLogger("notifications")

// Hub maps user ids to their open notification streams.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	presence   *ConnectionManager
}

// NewHub creates a Hub. With a Redis client, presence is mirrored there so
// every API process sees the same online set.
func NewHub(redisClients ...*redis.Client) *Hub {
	var redisClient *redis.Client
	if len(redisClients) > 0 {
		redisClient = redisClients[0]
	}

	return &Hub{
		conns:    make(map[uint]map[*Client]struct{}),
		presence: NewConnectionManager(redisClient, ConnectionManagerConfig{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		h.presence.Touch(context.Background(), uid)
	}

	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	middleware.ActiveWebSockets.Inc()
	h.presence.Register(context.Background(), userID)
	wsLog.LogConnect(context.Background(), userID)

	return client, nil
}

// UnregisterClient removes client. It is safe to call more than once.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	h.mu.Unlock()

	if removed {
		middleware.ActiveWebSockets.Dec()
		h.presence.Unregister(context.Background(), client.UserID)
		wsLog.LogDisconnect(context.Background(), client.UserID, "closed")
	}
}

// SetPresenceCallbacks installs the online/offline transition hooks.
func (h *Hub) SetPresenceCallbacks(onOnline, onOffline func(userID uint)) {
	h.presence.SetCallbacks(onOnline, onOffline)
}

// SendToUser queues message on every connection userID has open.
func (h *Hub) SendToUser(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	if !ok {
		return
	}
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
}

// BroadcastAll queues message on every open connection.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether userID has a live stream on any process.
func (h *Hub) IsOnline(userID uint) bool {
	return h.presence.IsOnline(context.Background(), userID)
}

// OnlineUserIDs lists users with a live stream.
func (h *Hub) OnlineUserIDs(ctx context.Context) []uint {
	return h.presence.GetOnlineUserIDs(ctx)
}

// ConnectionCount is the number of open connections on this process.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring subscribes to the Notifier's channels and forwards each
// message to the matching local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, h.dispatch)
}

func (h *Hub) dispatch(channel, payload string) {
	if channel == BroadcastChannel {
		h.BroadcastAll(payload)
		return
	}
	userID, ok := ParseUserChannel(channel)
	if !ok {
		wsLog.LogLifecycle(context.Background(), "invalid_channel", map[string]interface{}{"channel": channel})
		return
	}
	h.SendToUser(userID, payload)
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.presence.Stop()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := h.conns
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	closing := 0
	for userID, userConns := range conns {
		for client := range userConns {
			closing++
			middleware.ActiveWebSockets.Dec()
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				wsLog.LogError(ctx, userID, err, "shutdown")
			}
			_ = client.Conn.Close()
		}
	}
	wsLog.LogLifecycle(ctx, "shutdown", map[string]interface{}{"connections": closing})
	return nil
}
