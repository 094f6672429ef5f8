package inspect

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// ServerConfig configures the inspector server.
type ServerConfig struct {
	// Addr is the listen address (default: ":9290").
	Addr string

	// MetricsHandler serves GET /metrics when set. Pass
	// promhttp.HandlerFor(registry, ...) to scope the scrape to a
	// dedicated registry.
	MetricsHandler http.Handler

	// MaxClients caps concurrent websocket connections (default: 64).
	MaxClients int

	// CheckOrigin overrides the websocket origin check. The default
	// accepts every origin; the inspector is a development tool and is
	// not meant to face the internet.
	CheckOrigin func(r *http.Request) bool
}

// ServerOption configures the inspector server.
type ServerOption func(*ServerConfig)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(c *ServerConfig) {
		c.Addr = addr
	}
}

// WithMetricsHandler mounts a Prometheus scrape handler at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsHandler = h
	}
}

// WithMaxClients caps concurrent websocket connections.
func WithMaxClients(n int) ServerOption {
	return func(c *ServerConfig) {
		c.MaxClients = n
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(c *ServerConfig) {
		c.CheckOrigin = fn
	}
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:       ":9290",
		MaxClients: 64,
	}
}

// Server exposes a Recorder over HTTP:
//
//	GET /graph    current nodes, edges, and recent events as JSON
//	GET /ws       websocket stream of events as they happen
//	GET /healthz  liveness probe
//	GET /metrics  Prometheus scrape, when configured
type Server struct {
	config   ServerConfig
	recorder *Recorder

	server   *http.Server
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool

	events chan Event
	stop   chan struct{}
	done   chan struct{}
}

// NewServer creates an inspector server over the given recorder. The
// recorder's event sink is claimed by the server; one recorder serves
// one server.
func NewServer(recorder *Recorder, opts ...ServerOption) *Server {
	config := defaultServerConfig()
	for _, opt := range opts {
		opt(&config)
	}

	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	s := &Server{
		config:   config,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan Event, 256),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	recorder.setSink(s.enqueue)
	go s.broadcast()
	return s
}

// Handler returns the HTTP handler, exported so the routes can be
// mounted into a larger router or driven by httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/graph", s.handleGraph)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if s.config.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.config.MetricsHandler)
	}

	return r
}

// Start runs the server until Stop is called. It blocks, like
// http.ListenAndServe.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("inspect: listening on %s", s.config.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully, closing the websocket clients
// and the broadcast goroutine.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stop)
	<-s.done

	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// enqueue is the recorder's sink. Events are dropped when the stream
// cannot keep up; the snapshot endpoint remains the source of truth.
func (s *Server) enqueue(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

func (s *Server) broadcast() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case e := <-s.events:
			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				conns = append(conns, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range conns {
				if err := conn.WriteJSON(e); err != nil {
					s.dropClient(conn)
				}
			}
		}
	}
}

func (s *Server) dropClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	conn.Close()
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.recorder.Snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	full := len(s.clients) >= s.config.MaxClients
	s.clientsMu.RUnlock()
	if full {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	// Drain control frames; the stream is write-only from our side.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropClient(conn)
				return
			}
		}
	}()
}
