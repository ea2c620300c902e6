package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// streamBuffer is the per-client queue depth. A client that falls this
// far behind starts losing frames rather than stalling the consumer.
const streamBuffer = 64

// StreamHub fans raw telemetry frames out to connected SSE clients. The
// telemetry consumer publishes; browser sessions subscribe.
type StreamHub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// NewStreamHub creates an empty hub.
func NewStreamHub() *StreamHub {
	return &StreamHub{clients: make(map[chan []byte]struct{})}
}

// Publish delivers one raw frame to every subscriber. Slow subscribers
// miss frames; they never block the publisher.
func (h *StreamHub) Publish(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (h *StreamHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StreamHub) subscribe() chan []byte {
	ch := make(chan []byte, streamBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *StreamHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

// HandleSSE streams telemetry frames to one client as server-sent
// events until the client disconnects.
func (h *StreamHub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.subscribe()
	defer h.unsubscribe(ch)
	logger.Debug("stream: client connected", "clients", h.ClientCount())

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("stream: client disconnected", "clients", h.ClientCount()-1)
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case data := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
