// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/valpere/jobharvest/internal/session"
	"github.com/valpere/jobharvest/internal/utils"
)

// StatusFunc reports the current proxy pool.
type StatusFunc func() session.PoolStatus

// HistoryFunc reports recently ended sessions, oldest first.
type HistoryFunc func() []session.Info

// Server exposes metrics, liveness and pool status.
type Server struct {
	addr    string
	metrics *Metrics
	status  StatusFunc
	history HistoryFunc
	logger  utils.Logger
	started time.Time

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server on addr. status may be nil.
func NewServer(addr string, metrics *Metrics, status StatusFunc, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewComponentLogger("monitoring")
	}
	return &Server{
		addr:    addr,
		metrics: metrics,
		status:  status,
		logger:  logger,
		started: time.Now(),
	}
}

// WithHistory enables the /sessions route.
func (s *Server) WithHistory(fn HistoryFunc) *Server {
	s.history = fn
	return s
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/proxies", s.proxiesHandler).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.sessionsHandler).Methods(http.MethodGet)
	return r
}

// Addr returns the bound address once Run is listening, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return utils.NewError(utils.ErrCodeInvalidConfig, "failed to listen for monitoring").
			WithCause(err).
			WithContext("address", s.addr).
			Build()
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	server := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnf("monitoring shutdown: %v", err)
		}
	}()

	s.logger.Infof("monitoring listening on %s", ln.Addr())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) proxiesHandler(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no session manager"})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no session manager"})
		return
	}
	sessions := s.history()
	if sessions == nil {
		sessions = []session.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
