package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/V4T54L/voicewatch/internal/usecase"
)

const defaultFlushInterval = time.Second

// SSEMessage tells a dashboard that new logs of its source arrived and its view is stale.
type SSEMessage struct {
	Source  string    `json:"source"`
	Batches int       `json:"batches"`
	At      time.Time `json:"at"`
}

// SSEBroker fans ingestion notifications out to dashboards watching a source.
// Notifications are coalesced per source and flushed once per interval.
type SSEBroker struct {
	logger   *slog.Logger
	clients  map[string]map[chan []byte]struct{}
	mu       sync.RWMutex
	updates  chan string
	interval time.Duration
}

// NewSSEBroker creates a new SSEBroker and starts its processing loop.
func NewSSEBroker(ctx context.Context, logger *slog.Logger, interval time.Duration) *SSEBroker {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	broker := &SSEBroker{
		logger:   logger.With("component", "sse_broker"),
		clients:  make(map[string]map[chan []byte]struct{}),
		updates:  make(chan string, 1000),
		interval: interval,
	}
	go broker.run(ctx)
	return broker
}

// ServeHTTP streams update messages for the source in the URL.
// GET /v1/sources/{source}/events
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}
	source := chi.URLParam(r, "source")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	messageChan := make(chan []byte, 8)
	b.addClient(source, messageChan)
	defer b.removeClient(source, messageChan)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// HandleEvent accepts a raw ingestion notification, as delivered by NATS.
func (b *SSEBroker) HandleEvent(_ string, data []byte) {
	var event usecase.IngestionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		b.logger.Warn("dropping undecodable ingestion event", "error", err)
		return
	}
	for _, source := range event.AllSources() {
		b.Notify(source)
	}
}

// Notify records that source received new logs. It never blocks.
func (b *SSEBroker) Notify(source string) {
	select {
	case b.updates <- source:
	default:
		b.logger.Warn("SSE update channel is full, dropping notification", "source", source)
	}
}

// Clients returns the number of dashboards watching source.
func (b *SSEBroker) Clients(source string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[source])
}

func (b *SSEBroker) addClient(source string, client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[source] == nil {
		b.clients[source] = make(map[chan []byte]struct{})
	}
	b.clients[source][client] = struct{}{}
	b.logger.Info("SSE client connected", "source", source)
}

func (b *SSEBroker) removeClient(source string, client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clients := b.clients[source]
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client)
		if len(clients) == 0 {
			delete(b.clients, source)
		}
		b.logger.Info("SSE client disconnected", "source", source)
	}
}

func (b *SSEBroker) broadcast(source string, msg []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients[source] {
		select {
		case client <- msg:
		default:
			// Slow client; it will catch up on the next update.
		}
	}
}

// run is the main processing loop for the broker.
func (b *SSEBroker) run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	pending := make(map[string]int)
	for {
		select {
		case <-ctx.Done():
			return
		case source := <-b.updates:
			pending[source]++
		case now := <-ticker.C:
			for source, batches := range pending {
				jsonData, err := json.Marshal(SSEMessage{Source: source, Batches: batches, At: now.UTC()})
				if err != nil {
					b.logger.Error("Failed to marshal SSE message", "error", err)
					continue
				}
				b.broadcast(source, jsonData)
			}
			clear(pending)
		}
	}
}
