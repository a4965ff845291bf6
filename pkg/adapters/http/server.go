package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/refgraph"
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/aretw0/refgraph/pkg/object"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document is the part of refgraph.Document served over HTTP.
type Document interface {
	Snapshot(id string) (*domain.Snapshot, error)
	History() refgraph.History
	Undo() error
	Redo() error
	Watch(fn func(ev *object.Event) error) (*object.Listener, error)
}

// Server exposes a document. Requests are serialised because the object graph is not
// safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	doc      Document
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer serves the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for doc. The returned close function detaches
// the event listener.
func NewHandler(doc Document, opts ...Option) (http.Handler, func() error, error) {
	s := &Server{
		doc:     doc,
		Streams: NewStreamManager(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	listener, err := doc.Watch(s.broadcast)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to watch document: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.GetHealth)
	r.Get("/snapshot", s.GetSnapshot)
	r.Get("/history", s.GetHistory)
	r.Post("/undo", s.PostUndo)
	r.Post("/redo", s.PostRedo)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return listener.Close()
	}, nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSnapshot handles the GET /snapshot request.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		id = "live"
	}

	s.mu.Lock()
	snap, err := s.doc.Snapshot(id)
	s.mu.Unlock()

	if err != nil {
		http.Error(w, fmt.Sprintf("Snapshot error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Snapshot failed", "error", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, snap)
}

// GetHistory handles the GET /history request.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	h := s.doc.History()
	s.mu.Unlock()
	writeJSON(w, s.logger, http.StatusOK, h)
}

// PostUndo handles the POST /undo request.
func (s *Server) PostUndo(w http.ResponseWriter, r *http.Request) {
	s.replay(w, "Undo", s.doc.Undo)
}

// PostRedo handles the POST /redo request.
func (s *Server) PostRedo(w http.ResponseWriter, r *http.Request) {
	s.replay(w, "Redo", s.doc.Redo)
}

func (s *Server) replay(w http.ResponseWriter, what string, fn func() error) {
	s.mu.Lock()
	err := fn()
	h := s.doc.History()
	s.mu.Unlock()

	switch {
	case errors.Is(err, domain.ErrNothingToUndo), errors.Is(err, domain.ErrNothingToRedo):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, fmt.Sprintf("%s error: %v", what, err), http.StatusInternalServerError)
		s.logger.Error(what+" failed", "error", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, h)
}

// EventMessage is the SSE payload of one document event.
type EventMessage struct {
	Type   string `json:"type"`
	Sender string `json:"sender"`
	Field  string `json:"field,omitempty"`
	Index  int    `json:"index"`
}

func (s *Server) broadcast(ev *object.Event) error {
	msg := EventMessage{Type: ev.Type.String(), Index: ev.Index}
	if ev.Sender != nil {
		msg.Sender = ev.Sender.ObjectBase().String()
	}
	if ev.Field != nil {
		msg.Field = ev.Field.Name()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.Streams.Broadcast(msg.Type, string(data))
	return nil
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]map[string]bool // channel -> event types, empty means all
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- string]map[string]bool),
	}
}

// Len returns the number of connected subscribers.
func (sm *StreamManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Subscribe registers a subscriber for the given event types, or all of them.
func (sm *StreamManager) Subscribe(types ...string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	filter := make(map[string]bool, len(types))
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			filter[t] = true
		}
	}
	sm.subscribers[ch] = filter

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast delivers msg to every subscriber interested in eventType. Slow
// subscribers lose messages instead of blocking the document.
func (sm *StreamManager) Broadcast(eventType string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch, filter := range sm.subscribers {
		if len(filter) > 0 && !filter[eventType] {
			continue
		}
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: Client buffer full, dropping message", "event", eventType)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE). The optional "types" query
// parameter is a comma separated list of event types.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var types []string
	if q := r.URL.Query().Get("types"); q != "" {
		types = strings.Split(q, ",")
	}
	ch, cancel := s.Streams.Subscribe(types...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "error", err)
	}
}
