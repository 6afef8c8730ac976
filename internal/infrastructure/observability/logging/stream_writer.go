package logging

import (
	"encoding/json"
	"strings"
	"time"
)

// streamWriter tees one channel's output into a LogBroadcaster. JSON records
// are unpacked; text records are forwarded as their raw line.
type streamWriter struct {
	broadcaster *LogBroadcaster
	channel     Channel
}

func newStreamWriter(b *LogBroadcaster, channel Channel) *streamWriter {
	return &streamWriter{broadcaster: b, channel: channel}
}

func (w *streamWriter) Write(p []byte) (int, error) {
	entry := LogEntry{Channel: string(w.channel)}

	var record map[string]any
	if err := json.Unmarshal(p, &record); err == nil {
		entry.Timestamp = stringField(record, "time")
		entry.Level = stringField(record, "level")
		entry.Message = stringField(record, "msg")
		if id, ok := record["partId"].(float64); ok {
			entry.PartID = int64(id)
		}
	} else {
		line := strings.TrimSpace(string(p))
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
		entry.Level = textLevel(line)
		entry.Message = line
	}

	w.broadcaster.Submit(entry)
	return len(p), nil
}

func stringField(record map[string]any, key string) string {
	s, _ := record[key].(string)
	return s
}

func textLevel(line string) string {
	for _, field := range strings.Fields(line) {
		if level, ok := strings.CutPrefix(field, "level="); ok {
			return level
		}
	}
	return "INFO"
}
