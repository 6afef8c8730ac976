package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscriber) LogEntry {
	t.Helper()
	select {
	case msg := <-sub.C:
		var entry LogEntry
		require.NoError(t, json.Unmarshal(msg, &entry))
		return entry
	default:
		t.Fatal("expected a streamed log entry")
	}
	return LogEntry{}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("fatal"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestSetChannelLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewChanneledLogger(&LoggerConfig{Writer: &buf, JSONFormat: true, DefaultLevel: slog.LevelInfo})
	require.NoError(t, err)

	logger.Render().Debug("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, logger.SetChannelLevel(ChannelRender, slog.LevelDebug))
	logger.Render().Debug("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"channel":"render"`)

	levels := logger.GetChannelLevels()
	assert.Equal(t, "DEBUG", levels["render"])
	assert.Equal(t, "INFO", levels["harness"])

	assert.Error(t, logger.SetChannelLevel(Channel("nope"), slog.LevelDebug))
}

func TestBroadcasterFilters(t *testing.T) {
	b := NewLogBroadcaster()
	all := b.Subscribe(StreamFilter{Channel: ChannelAll, Level: slog.LevelInfo})
	renderOnly := b.Subscribe(StreamFilter{Channel: ChannelRender, Level: slog.LevelWarn})
	assert.Equal(t, 2, b.Subscribers())

	b.Submit(LogEntry{Channel: "harness", Level: "INFO", Message: "imported"})
	b.Submit(LogEntry{Channel: "render", Level: "INFO", Message: "rendered"})
	b.Submit(LogEntry{Channel: "render", Level: "ERROR", Message: "dot failed"})

	assert.Len(t, all.C, 3)
	require.Len(t, renderOnly.C, 1)
	assert.Equal(t, "dot failed", receive(t, renderOnly).Message)

	b.Unsubscribe(renderOnly)
	b.Unsubscribe(renderOnly)
	assert.Equal(t, 1, b.Subscribers())
	_, open := <-renderOnly.C
	assert.False(t, open)
}

func TestBroadcasterDropsForFullSubscriber(t *testing.T) {
	b := NewLogBroadcaster()
	sub := b.Subscribe(StreamFilter{Channel: ChannelAll})

	for i := 0; i < cap(sub.C)+5; i++ {
		b.Submit(LogEntry{Channel: "system", Level: "INFO", Message: "flood"})
	}
	assert.Len(t, sub.C, cap(sub.C))
	assert.EqualValues(t, 5, b.Dropped())
}

func TestLoggerStreamsRecords(t *testing.T) {
	b := NewLogBroadcaster()
	var buf bytes.Buffer
	logger, err := NewChanneledLogger(&LoggerConfig{Writer: &buf, JSONFormat: true, Broadcaster: b})
	require.NoError(t, err)
	assert.Same(t, b, logger.Broadcaster())

	sub := b.Subscribe(StreamFilter{Channel: ChannelHarness})
	logger.WithPart(ChannelHarness, 42).Info("Harness imported")
	logger.Render().Info("not for this subscriber")

	entry := receive(t, sub)
	assert.Equal(t, "harness", entry.Channel)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Harness imported", entry.Message)
	assert.EqualValues(t, 42, entry.PartID)
	assert.Len(t, sub.C, 0)
	assert.Contains(t, buf.String(), "Harness imported")
}

func TestTextRecordsStreamRawLine(t *testing.T) {
	b := NewLogBroadcaster()
	var buf bytes.Buffer
	logger, err := NewChanneledLogger(&LoggerConfig{Writer: &buf, JSONFormat: false, Broadcaster: b})
	require.NoError(t, err)

	sub := b.Subscribe(StreamFilter{Channel: ChannelAll})
	logger.Storage().Warn("Wireviz path does not exist")

	entry := receive(t, sub)
	assert.Equal(t, "storage", entry.Channel)
	assert.Equal(t, "WARN", entry.Level)
	assert.Contains(t, entry.Message, "Wireviz path does not exist")
}
