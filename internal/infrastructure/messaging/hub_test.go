package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(logging.NewDiscardLogger(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		partID, _ := strconv.ParseInt(r.URL.Query().Get("part"), 10, 64)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, partID)
	}))

	t.Cleanup(func() {
		cancel()
		<-hub.done
		server.Close()
	})
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, partID int64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?part=" + strconv.FormatInt(partID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want map[int64]int) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := hub.ClientCounts(context.Background())
		for partID, n := range want {
			if got[partID] != n {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_DeliversPartMessagesToSubscribers(t *testing.T) {
	hub, server := startHub(t)

	part7 := dial(t, server, 7)
	part8 := dial(t, server, 8)
	all := dial(t, server, 0)
	waitForClients(t, hub, map[int64]int{0: 1, 7: 1, 8: 1})

	hub.Publish(Message{Type: TypeHarnessUpdated, Part: 7, Payload: map[string]any{"ok": true}})

	msg := readMessage(t, part7)
	assert.Equal(t, TypeHarnessUpdated, msg.Type)
	assert.Equal(t, int64(7), msg.Part)
	assert.False(t, msg.Timestamp.IsZero())

	msg = readMessage(t, all)
	assert.Equal(t, int64(7), msg.Part)

	// part 8 only sees the following global message
	hub.Publish(Message{Type: TypeTemplatesUpdated})
	msg = readMessage(t, part8)
	assert.Equal(t, TypeTemplatesUpdated, msg.Type)
	assert.Zero(t, msg.Part)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, server := startHub(t)

	conn := dial(t, server, 3)
	waitForClients(t, hub, map[int64]int{3: 1})

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		_, ok := hub.ClientCounts(context.Background())[3]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub(logging.NewDiscardLogger(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cancel()
	<-hub.done

	for i := 0; i < broadcastQueue*2; i++ {
		hub.Publish(Message{Type: TypeTemplatesUpdated})
	}
	assert.Empty(t, hub.ClientCounts(context.Background()))
}
