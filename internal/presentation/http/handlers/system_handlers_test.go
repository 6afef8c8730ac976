package handlers

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/inventree-wireviz-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamLogsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &SystemHandlers{logger: logging.NewDiscardLogger()}

	r := gin.New()
	r.GET("/stream", h.StreamLogs)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStreamLogsUnsubscribesOnDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broadcaster := logging.NewLogBroadcaster()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		Writer:       io.Discard,
		JSONFormat:   true,
		DefaultLevel: slog.LevelInfo,
		Broadcaster:  broadcaster,
	})
	require.NoError(t, err)
	h := &SystemHandlers{logger: logger}

	r := gin.New()
	r.GET("/stream", h.StreamLogs)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream?channel=render", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return broadcaster.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after the client went away")
	}
	assert.Equal(t, 0, broadcaster.Subscribers())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), ": connection established")
}

func TestStreamLogsOutlivesServerWriteTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	broadcaster := logging.NewLogBroadcaster()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		Writer:       io.Discard,
		JSONFormat:   true,
		DefaultLevel: slog.LevelInfo,
		Broadcaster:  broadcaster,
	})
	require.NoError(t, err)
	h := &SystemHandlers{logger: logger}

	r := gin.New()
	r.GET("/stream", h.StreamLogs)
	srv := httptest.NewUnstartedServer(r)
	srv.Config.WriteTimeout = 200 * time.Millisecond
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	require.Eventually(t, func() bool { return broadcaster.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * srv.Config.WriteTimeout)
	logger.Render().Info("rendered after the write timeout")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed before the entry arrived")
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, "rendered after the write timeout") {
				return
			}
		case <-deadline:
			t.Fatal("entry logged after the write timeout never reached the client")
		}
	}
}
