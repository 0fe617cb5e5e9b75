package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/espalier-ai/espalier/pkg/domain"
	"github.com/espalier-ai/espalier/pkg/ports"
)

// subscriberBuffer is per-client. A client that falls this far behind
// starts losing events rather than stalling the pipeline.
const subscriberBuffer = 10

// StreamManager fans step events out to SSE subscribers, keyed by session
// ID. It implements ports.Notifier so it can be plugged straight into the
// pipeline. Subscribers attaching mid-session only see subsequent events;
// there is no replay.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for one session. The returned cancel
// function must be called when the client goes away; it closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, subscriberBuffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Publish serializes the event and broadcasts it to the session's
// subscribers. Slow subscribers get dropped messages, never a stalled
// pipeline.
func (sm *StreamManager) Publish(ctx context.Context, event domain.StepEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		sm.logger.Warn("event marshal failed", "session_id", event.SessionID, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[event.SessionID] {
		select {
		case ch <- string(payload):
		default:
			sm.logger.Warn("subscriber buffer full, dropping event",
				"session_id", event.SessionID, "step", event.Step)
		}
	}
}

var _ ports.Notifier = (*StreamManager)(nil)
