package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edms/internal/model"
	"edms/internal/repository"
	"edms/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoster map[uuid.UUID]*model.User

func (f fakeRoster) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f fakeRoster) add(unitUIC string) uuid.UUID {
	id := uuid.New()
	f[id] = &model.User{ID: id, UnitUIC: unitUIC}
	return id
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, hub *Hub) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, testutil.JWTSecret) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func startHub(t *testing.T, roster fakeRoster) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(discardLogger(), roster)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, serve(t, hub)
}

func dial(t *testing.T, url string, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+testutil.Token(t, userID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_PublishReachesClient(t *testing.T) {
	roster := fakeRoster{}
	hub, url := startHub(t, roster)

	conn := dial(t, url, roster.add("M12345"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("M12345", map[string]string{"type": "request.updated", "stage": "COMPANY_REVIEW"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, "request.updated", got["type"])
	assert.Equal(t, "COMPANY_REVIEW", got["stage"])
}

func TestHub_PublishStaysInUnit(t *testing.T) {
	roster := fakeRoster{}
	hub, url := startHub(t, roster)

	mine := dial(t, url, roster.add("M12345"))
	other := dial(t, url, roster.add("M99999"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish("M12345", map[string]string{"type": "request.created"})

	require.NoError(t, mine.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := mine.ReadMessage()
	require.NoError(t, err)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = other.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestHub_RejectsBadTokens(t *testing.T) {
	_, url := startHub(t, fakeRoster{})

	for _, query := range []string{"", "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestHub_RejectsUsersOffRoster(t *testing.T) {
	_, url := startHub(t, fakeRoster{})

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token="+testutil.Token(t, uuid.New()), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	roster := fakeRoster{}
	hub, url := startHub(t, roster)

	conn := dial(t, url, roster.add("M12345"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func stoppedHub(t *testing.T, roster fakeRoster) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(discardLogger(), roster)
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	return hub
}

func TestHub_ConnectAfterShutdownDoesNotHang(t *testing.T) {
	roster := fakeRoster{}
	hub := stoppedHub(t, roster)
	url := serve(t, hub)

	conn := dial(t, url, roster.add("M12345"))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "server should close the connection")
	}
	assert.Zero(t, hub.ClientCount())
}

func TestHub_ReadPumpReturnsAfterShutdown(t *testing.T) {
	hub := stoppedHub(t, fakeRoster{})

	finished := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 1)}
		client.readPump()
		close(finished)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("readPump blocked on unregister after the hub stopped")
	}
}
