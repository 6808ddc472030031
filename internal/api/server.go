// Package api serves the dashboard's HTTP interface.
//
// Routes:
//
//	/api/sync          GET (region-shaped or ?view=raw), POST (partial update), OPTIONS
//	/api/sync/events   websocket stream of state_saved events
//	/api/gemini        POST chat proxy (alias /api/chat), OPTIONS
//	/health            liveness and client count
//
// Every response carries an X-Request-ID header and the configured CORS
// origin. Errors are JSON objects of the form {"error": "..."}.
package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ieltsmaster/studyplan/internal/chat"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
)

// Server is the HTTP front of the sync store and chat proxy.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	syncer syncstore.Syncer
	chat   chat.Provider
	hub    *Hub

	allowOrigin  atomic.Value // string
	maxBodyBytes int64
	readTimeout  time.Duration
	writeTimeout time.Duration
	chatTimeout  time.Duration

	wg     sync.WaitGroup
	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8080, 0 picks a free port)
	Port int

	// ReadTimeout and WriteTimeout bound each request (default: 10s, 70s)
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxBodyBytes caps POST bodies (default: 1 MiB)
	MaxBodyBytes int64

	// AllowOrigin is the Access-Control-Allow-Origin value (default: "*")
	AllowOrigin string

	// ChatTimeout bounds one upstream chat call (default: 60s)
	ChatTimeout time.Duration

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		MaxBodyBytes: 1 << 20,
		AllowOrigin:  "*",
		ChatTimeout:  60 * time.Second,
	}
}

// NewServer creates a server for syncer. provider may be nil, in which case
// the chat routes report a configuration error. hub may be nil, in which case
// a hub without save notifications is created.
func NewServer(config *Config, syncer syncstore.Syncer, provider chat.Provider, hub *Hub) *Server {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[api] ", log.LstdFlags)
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = def.MaxBodyBytes
	}
	if config.AllowOrigin == "" {
		config.AllowOrigin = def.AllowOrigin
	}
	if config.ChatTimeout <= 0 {
		config.ChatTimeout = def.ChatTimeout
	}
	if hub == nil {
		hub = NewHub(config.Logger)
	}

	s := &Server{
		addr:         fmt.Sprintf(":%d", config.Port),
		syncer:       syncer,
		chat:         provider,
		hub:          hub,
		maxBodyBytes: config.MaxBodyBytes,
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
		chatTimeout:  config.ChatTimeout,
		logger:       config.Logger,
	}
	s.allowOrigin.Store(config.AllowOrigin)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.Handle("/api/sync/events", s.hub)
	mux.HandleFunc("/api/gemini", s.handleChat)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	return s.withRequestID(s.withCORS(mux))
}

// Start begins the HTTP server and the event hub
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	s.hub.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Sync server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	if s.server == nil {
		s.hub.Stop()
		return nil
	}
	s.logger.Println("Stopping sync server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.hub.Stop()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Println("Sync server stopped")
	return nil
}

// SetAllowOrigin changes the CORS origin of subsequent responses.
func (s *Server) SetAllowOrigin(origin string) {
	if origin == "" {
		origin = "*"
	}
	s.allowOrigin.Store(origin)
	s.logger.Printf("CORS origin set to %s", origin)
}

// GetAddr returns the server's listening address
func (s *Server) GetAddr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Hub returns the server's event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

// handleRoot returns basic server information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.respondError(w, r, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>IELTS Study Plan</title>
</head>
<body>
    <h1>IELTS Study Plan Sync Server</h1>
    <p>State: <a href="/api/sync">/api/sync</a></p>
    <p>Events: <code>ws://%s/api/sync/events</code></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}
