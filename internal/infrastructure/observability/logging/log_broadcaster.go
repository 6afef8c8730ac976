package logging

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// LogEntry is a single log record as streamed to operators.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	PartID    int64  `json:"partId,omitempty"`
}

// StreamFilter selects the entries a subscriber receives. ChannelAll matches
// every channel.
type StreamFilter struct {
	Channel Channel
	Level   slog.Level
}

// ChannelAll is the wildcard channel for stream filters.
const ChannelAll Channel = "all"

func (f StreamFilter) matches(entry LogEntry) bool {
	if f.Channel != "" && f.Channel != ChannelAll && f.Channel != Channel(entry.Channel) {
		return false
	}
	return ParseLevel(entry.Level) >= f.Level
}

// Subscriber receives encoded log entries on C until unsubscribed.
type Subscriber struct {
	C      chan []byte
	filter StreamFilter
}

// LogBroadcaster fans log entries out to live subscribers. Slow subscribers
// lose entries rather than blocking the logger.
type LogBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	dropped     atomic.Int64
}

// NewLogBroadcaster creates an empty broadcaster.
func NewLogBroadcaster() *LogBroadcaster {
	return &LogBroadcaster{subscribers: make(map[*Subscriber]struct{})}
}

// Subscribe registers a subscriber with a buffered channel.
func (b *LogBroadcaster) Subscribe(filter StreamFilter) *Subscriber {
	sub := &Subscriber{C: make(chan []byte, 100), filter: filter}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (b *LogBroadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub.C)
	}
}

// Subscribers reports the number of live subscribers.
func (b *LogBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped reports how many deliveries were skipped for full subscribers.
func (b *LogBroadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Submit delivers entry to every matching subscriber without blocking.
func (b *LogBroadcaster) Submit(entry LogEntry) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subscribers) == 0 {
		return
	}

	message, err := json.Marshal(entry)
	if err != nil {
		return
	}
	for sub := range b.subscribers {
		if !sub.filter.matches(entry) {
			continue
		}
		select {
		case sub.C <- message:
		default:
			b.dropped.Add(1)
		}
	}
}
