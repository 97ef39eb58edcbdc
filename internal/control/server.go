// File: internal/control/server.go
// Description: Local HTTP and WebSocket control surface for one page. A
// browser extension or script can trigger analysis and fills and follow
// progress without going through the CLI.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

// Constants for WebSocket timeouts and limits, per the Gorilla examples.
const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 1024
	shutdownTimeout = 15 * time.Second
)

// Server hosts the control API.
type Server struct {
	cfg       config.ControlConfig
	logger    *zap.Logger
	runner    Runner
	mutations <-chan struct{}
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	baseCtx context.Context
	runs    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMutations makes Run re-analyze the page when mutations signals.
func WithMutations(ch <-chan struct{}) Option { return func(s *Server) { s.mutations = ch } }

// NewServer creates a control server for runner.
func NewServer(cfg config.ControlConfig, logger *zap.Logger, runner Runner, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, errors.New("control: runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger.Named("control"),
		runner:  runner,
		baseCtx: context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     localOrigin,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// localOrigin admits requests without an Origin header and browser pages
// served from the loopback interface.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

// Handler builds the router. WebSocket routes skip the request logger since
// it would hold the hijacked connection in its log line.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws/v1/progress", s.handleProgress)

	r.Group(func(r chi.Router) {
		r.Use(s.requestLogger)
		s.RegisterRoutes(r)
	})
	return r
}

// requestLogger logs one line per request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Run serves until ctx is done, then shuts down gracefully and waits for
// background fills to finish.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	s.mu.Lock()
	s.baseCtx = gctx
	s.mu.Unlock()

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("control: listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.logger.Info("Control API listening.", zap.String("address", ln.Addr().String()))

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if s.mutations != nil {
		g.Go(func() error { return s.runner.Watch(gctx, s.mutations) })
	}

	err = g.Wait()
	s.runs.Wait()
	s.logger.Info("Control API stopped.")
	return err
}

// handleProgress streams progress events to a WebSocket client until it
// disconnects.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection to WebSocket", zap.Error(err))
		return
	}
	events, unsubscribe := s.runner.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go s.readPump(conn, done)
	s.writePump(r.Context(), conn, events, done)
}

// readPump discards client frames and keeps the read deadline alive. It
// closes done when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Progress stream closed unexpectedly.", zap.Error(err))
			}
			return
		}
	}
}

// writePump owns all writes on conn.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, events <-chan schemas.ProgressEvent, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	state := s.formData()
	if err := s.write(conn, WSMessage{Type: MsgTypeHello, State: &state}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.write(conn, WSMessage{Type: MsgTypeProgress, Data: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("Error sending ping on progress stream", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) write(conn *websocket.Conn, msg WSMessage) error {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("Error writing to progress stream", zap.Error(err))
		return err
	}
	return nil
}
