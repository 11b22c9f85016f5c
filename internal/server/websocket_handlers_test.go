package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil skips frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", eventType)
		var f wsFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		if f.Type == eventType {
			return f
		}
	}
}

func startListening(t *testing.T, env *testEnv) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = env.srv.hub.StartWiring(ctx, env.srv.notifier) }()
	require.Eventually(t, func() bool { return env.mr.PubSubNumPat() > 0 }, 2*time.Second, 10*time.Millisecond)

	return ln.Addr().String()
}

func dialWS(t *testing.T, env *testEnv, addr string, user testUser) *websocket.Conn {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/ws/ticket", user.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var ticket struct {
		Ticket string `json:"ticket"`
	}
	resp.decode(t, &ticket)

	conn, httpResp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws?ticket="+ticket.Ticket, nil)
	require.NoError(t, err)
	if httpResp != nil && httpResp.Body != nil {
		_ = httpResp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWebsocketStream(t *testing.T) {
	env := newTestEnv(t)
	addr := startListening(t, env)

	author := env.signup(t, "IIT Bombay")
	commenter := env.signup(t, "IIT Bombay")

	conn := dialWS(t, env, addr, author)

	connected := readUntil(t, conn, eventConnected)
	var hello struct {
		UserID uint `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(connected.Payload, &hello))
	assert.Equal(t, author.ID, hello.UserID)

	unread := readUntil(t, conn, eventUnreadCount)
	assert.JSONEq(t, `{"unread":0}`, string(unread.Payload))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	readUntil(t, conn, eventPong)

	assert.Eventually(t, func() bool { return env.srv.hub.IsOnline(author.ID) }, 2*time.Second, 10*time.Millisecond)

	post := env.do(t, http.MethodPost, "/api/posts", author.Token, fiber.Map{
		"title":    "Looking for a Go mentor",
		"content":  "Anyone around campus who has shipped Go services to production?",
		"category": "tech",
	})
	require.Equal(t, http.StatusCreated, post.Status, post.Message)
	var created struct {
		ID uint `json:"id"`
	}
	post.decode(t, &created)
	readUntil(t, conn, "post_created")

	comment := env.do(t, http.MethodPost, "/api/posts/"+itoa(created.ID)+"/comments", commenter.Token, fiber.Map{
		"content": "I have, happy to help",
	})
	require.Equal(t, http.StatusCreated, comment.Status, comment.Message)

	note := readUntil(t, conn, "notification")
	assert.Contains(t, string(note.Payload), "comment")
}

func TestWebsocketRejectsMissingTicket(t *testing.T) {
	env := newTestEnv(t)
	addr := startListening(t, env)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
