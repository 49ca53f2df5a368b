// Package hub streams level events to Server-Sent Events clients.
//
// Each event is written as one SSE message:
//
//	id: 7
//	event: level_loaded
//	data: {"name":"test01","nodes":4,"links":3}
//
// Ids increase by one per broadcast for the life of the hub. A client that
// cannot keep up misses messages rather than stalling the others.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"netgraph/internal/metrics"
	"netgraph/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultKeepAlive is the interval between keep-alive comments
const DefaultKeepAlive = 30 * time.Second

const (
	clientBuffer    = 64
	broadcastBuffer = 256
)

type subscriber struct {
	id  string
	out chan []byte
}

// Hub tracks SSE subscribers. Membership changes and fan-out happen on the
// Run goroutine.
type Hub struct {
	mu    sync.RWMutex
	subs  map[*subscriber]struct{}
	join  chan *subscriber
	leave chan *subscriber
	queue chan service.Event
	done  chan struct{}
	seq   uint64

	keepAlive time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Registry
}

// New creates a hub. Nothing is delivered until Run is started.
func New(logger zerolog.Logger, reg *metrics.Registry) *Hub {
	return &Hub{
		subs:      make(map[*subscriber]struct{}),
		join:      make(chan *subscriber),
		leave:     make(chan *subscriber),
		queue:     make(chan service.Event, broadcastBuffer),
		done:      make(chan struct{}),
		keepAlive: DefaultKeepAlive,
		logger:    logger.With().Str("component", "hub").Logger(),
		metrics:   reg,
	}
}

// Run owns subscriber membership until ctx is done, then ends every stream.
// Requests arriving after that get 503.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.dropAll()
			return
		case s := <-h.join:
			h.setMember(s, true)
		case s := <-h.leave:
			h.setMember(s, false)
		case event := <-h.queue:
			h.fanout(event)
		}
	}
}

func (h *Hub) setMember(s *subscriber, joined bool) {
	h.mu.Lock()
	if joined {
		h.subs[s] = struct{}{}
	} else if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.out)
	}
	total := len(h.subs)
	h.mu.Unlock()

	h.metrics.EventClients.Set(float64(total))
	state := "SSE client disconnected"
	if joined {
		state = "SSE client connected"
	}
	h.logger.Debug().Str("client", s.id).Int("total", total).Msg(state)
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	for s := range h.subs {
		delete(h.subs, s)
		close(s.out)
	}
	h.mu.Unlock()
	h.metrics.EventClients.Set(0)
}

func (h *Hub) fanout(event service.Event) {
	h.seq++
	msg, err := encode(h.seq, event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.out <- msg:
		default:
			h.logger.Warn().Str("client", s.id).Uint64("id", h.seq).Msg("SSE client is slow, skipping message")
		}
	}
}

// encode frames event as one SSE message
func encode(id uint64, event service.Event) ([]byte, error) {
	data, err := json.Marshal(event.Level)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "id: %d\nevent: %s\ndata: %s\n\n", id, event.Type, data)
	return buf.Bytes(), nil
}

// Relay forwards bus events until events is closed or ctx is done
func (h *Hub) Relay(ctx context.Context, events <-chan service.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.metrics.EventsBroadcast.WithLabelValues(string(event.Type)).Inc()
			h.Broadcast(event)
		}
	}
}

// Broadcast queues event for every subscriber. It never blocks; the event is
// dropped when the queue is full.
func (h *Hub) Broadcast(event service.Event) {
	select {
	case h.queue <- event:
	default:
		h.logger.Warn().Str("type", string(event.Type)).Msg("Broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP streams events to one client until it disconnects or the hub
// stops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	s := &subscriber{id: uuid.NewString(), out: make(chan []byte, clientBuffer)}
	select {
	case h.join <- s:
	case <-h.done:
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.leave <- s:
		case <-h.done:
		}
	}()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, ": connected %s\n\n", s.id)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		var err error
		select {
		case msg, open := <-s.out:
			if !open {
				return
			}
			_, err = w.Write(msg)
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": keepalive\n\n")
		case <-r.Context().Done():
			return
		}
		if err != nil {
			return
		}
		flusher.Flush()
	}
}
