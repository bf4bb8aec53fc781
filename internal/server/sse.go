package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sightlinehq/sightline/internal/events"
)

const (
	// sseRingBufferSize is the number of recent envelopes kept in memory for
	// Last-Event-ID reconnection support.
	sseRingBufferSize = 1000

	// sseKeepaliveInterval is how often keepalive comments are sent to
	// prevent connection timeouts.
	sseKeepaliveInterval = 15 * time.Second
)

// sseEvent is a single event stored in the ring buffer and sent to SSE clients.
type sseEvent struct {
	ID      uint64 // monotonically increasing sequence number
	Subject string // push-channel subject, e.g. "feed.br-1.created"
	Data    []byte // JSON-encoded envelope
}

// sseHub fans out push-channel envelopes to connected SSE clients.
// It maintains an in-memory ring buffer for Last-Event-ID reconnection.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	nextID  atomic.Uint64

	// Ring buffer for replay on reconnection.
	ringMu  sync.RWMutex
	ring    [sseRingBufferSize]sseEvent
	ringPos int // next write position (wraps around)
	ringLen int // number of valid entries (up to sseRingBufferSize)
}

// sseClient represents a single connected SSE consumer.
type sseClient struct {
	subjects []string       // subject patterns to match (empty = all)
	ch       chan *sseEvent // buffered channel for event delivery
}

func newSSEHub() *sseHub {
	return &sseHub{
		clients: make(map[*sseClient]struct{}),
	}
}

// broadcast sends an event to all connected clients whose subject filters match.
func (h *sseHub) broadcast(subject string, payload []byte) {
	id := h.nextID.Add(1)
	evt := &sseEvent{
		ID:      id,
		Subject: subject,
		Data:    payload,
	}

	// Store in ring buffer.
	h.ringMu.Lock()
	h.ring[h.ringPos] = *evt
	h.ringPos = (h.ringPos + 1) % sseRingBufferSize
	if h.ringLen < sseRingBufferSize {
		h.ringLen++
	}
	h.ringMu.Unlock()

	// Fan out to connected clients.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.matchesSubject(subject) {
			select {
			case c.ch <- evt:
			default:
				// Drop if client is slow so the publisher never blocks.
			}
		}
	}
}

// subscribe registers a new SSE client and returns it. Call unsubscribe when done.
func (h *sseHub) subscribe(subjects []string) *sseClient {
	c := &sseClient{
		subjects: subjects,
		ch:       make(chan *sseEvent, 64),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// unsubscribe removes a client from the hub.
func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// eventsSince returns buffered events with ID > lastID, in order.
// Returns nil if lastID is too old (no longer in buffer).
func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.ringMu.RLock()
	defer h.ringMu.RUnlock()

	if h.ringLen == 0 {
		return nil
	}

	var result []*sseEvent

	// Walk the ring buffer from oldest to newest.
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += sseRingBufferSize
	}
	for i := range h.ringLen {
		idx := (start + i) % sseRingBufferSize
		evt := &h.ring[idx]
		if evt.ID > lastID {
			result = append(result, evt)
		}
	}

	return result
}

// matchesSubject checks whether the client's subject filters match.
// An empty filter list matches all subjects.
func (c *sseClient) matchesSubject(subject string) bool {
	if len(c.subjects) == 0 {
		return true
	}
	for _, pattern := range c.subjects {
		if matchSubjectPattern(pattern, subject) {
			return true
		}
	}
	return false
}

// matchSubjectPattern matches a dot-separated subject against a pattern.
// Supports "*" as a single-segment wildcard and ">" as a multi-segment
// suffix wildcard (NATS-style), so SSE filters use the same grammar as the
// push channel. "feed.br-1.>" matches "feed.br-1.created".
func matchSubjectPattern(pattern, subject string) bool {
	if pattern == subject {
		return true
	}

	patParts := strings.Split(pattern, ".")
	subParts := strings.Split(subject, ".")

	for i, pp := range patParts {
		if pp == ">" {
			// ">" matches one or more remaining segments.
			return i < len(subParts)
		}
		if i >= len(subParts) {
			return false
		}
		if pp != "*" && pp != subParts[i] {
			return false
		}
	}

	return len(patParts) == len(subParts)
}

// handleEventStream handles GET /v1/events/stream (SSE endpoint).
func (s *FeedServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	// Ensure response supports flushing (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Scope the stream. ?brand_id=X narrows to one tenant; ?subjects=a,b
	// passes raw patterns for finer control.
	var subjects []string
	if brand := r.URL.Query().Get("brand_id"); brand != "" {
		subjects = append(subjects, events.BrandSubject(brand))
	}
	if q := r.URL.Query().Get("subjects"); q != "" {
		for _, sub := range strings.Split(q, ",") {
			sub = strings.TrimSpace(sub)
			if sub != "" {
				subjects = append(subjects, sub)
			}
		}
	}

	// Subscribe to the hub.
	client := s.sseHub.subscribe(subjects)
	defer s.sseHub.unsubscribe(client)

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// If the client sent Last-Event-ID, replay buffered events.
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			replayed := s.sseHub.eventsSince(lastID)
			for _, evt := range replayed {
				if client.matchesSubject(evt.Subject) {
					writeSSEEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	// Stream events until client disconnects.
	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			// Send a comment line as keepalive.
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE event to the writer.
func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.ID)
	fmt.Fprintf(w, "event:%s\n", evt.Subject)
	fmt.Fprintf(w, "data:%s\n\n", evt.Data)
}

// broadcastEnvelope is called by publishAndBroadcast to fan out envelopes to
// SSE clients.
func (s *FeedServer) broadcastEnvelope(subject string, env *events.Envelope) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(env)
	if err != nil {
		slog.Warn("failed to marshal envelope for SSE broadcast", "subject", subject, "error", err)
		return
	}
	s.sseHub.broadcast(subject, payload)
}
