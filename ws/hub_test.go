package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/ws", ServeWS(hub, NewUpgrader([]string{"*"})))
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHub_PublishReachesClient(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration finishes after the handshake; keep publishing until the
	// client sees a frame.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				hub.Publish("visit.created", map[string]int{"token_number": 1})
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "visit.created", ev.Type)
	assert.Equal(t, 1, ev.Data["token_number"])
}

func TestHub_PublishWithoutRunnerDoesNotBlock(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish("patient.registered", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	// A full buffer stands in for a client that stopped reading.
	slow := &Client{Send: make(chan []byte, 1)}
	slow.Send <- []byte("backlog")
	hub.register <- slow

	hub.Publish("visit.completed", nil)
	for len(hub.broadcast) > 0 {
		time.Sleep(time.Millisecond)
	}
	// The run loop is single threaded: once it accepts another client the
	// broadcast above has been fully handled.
	hub.register <- &Client{Send: make(chan []byte, 1)}

	assert.Equal(t, []byte("backlog"), <-slow.Send)
	_, ok := <-slow.Send
	assert.False(t, ok, "send channel should be closed")
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"http://clinic.local"})

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://clinic.local")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, up.CheckOrigin(req))

	assert.True(t, NewUpgrader(nil).CheckOrigin(req))
}
