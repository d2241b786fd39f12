// Package livereload implements the server-sent event channel that tells
// browsers which page was just regenerated.
package livereload

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdgraph/internal/logfields"
	"git.home.luguber.info/inful/mdgraph/internal/metrics"
)

const (
	// DefaultHeartbeat is the interval between keep-alive comments.
	DefaultHeartbeat = 30 * time.Second

	clientBuffer = 16
)

// Hub is the registry of open event streams.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]*client
	closed    bool
	heartbeat time.Duration
	recorder  metrics.Recorder
}

type client struct {
	id   string
	ch   chan string
	done chan struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithHeartbeat overrides the keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Hub) {
		if r != nil {
			h.recorder = r
		}
	}
}

// NewHub returns an empty Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:   map[string]*client{},
		heartbeat: DefaultHeartbeat,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP subscribes the request to route notifications until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		ch:   make(chan string, clientBuffer),
		done: make(chan struct{}),
	}
	if !h.add(c) {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.remove(c.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	write := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write failed", logfields.ClientID(c.id), logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			slog.Debug("livereload flush failed", logfields.ClientID(c.id), logfields.Error(err))
			return false
		}
		flusher.Flush()
		return true
	}

	if !write(": connected\n\n") {
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-hb.C:
			if !write(": ping\n\n") {
				return
			}
		case route := <-c.ch:
			if !write("data: " + route + "\n\n") {
				return
			}
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.recorder.SetClients(n)
	slog.Debug("livereload client connected", logfields.ClientID(c.id), logfields.Clients(n))
	return true
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.recorder.SetClients(n)
		slog.Debug("livereload client disconnected", logfields.ClientID(id), logfields.Clients(n))
	}
}

// Broadcast queues route for every connected client. A client whose buffer is
// full is treated as dead and dropped.
func (h *Hub) Broadcast(route string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- route:
		default:
			dropped++
			h.remove(c.id)
		}
	}
	h.recorder.IncBroadcast()
	slog.Debug("livereload broadcast",
		logfields.Route(route),
		logfields.Clients(len(snapshot)),
		slog.Int("dropped", dropped))
}

// Len reports the number of registered clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects new subscriptions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[string]*client{}
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetClients(0)
}
