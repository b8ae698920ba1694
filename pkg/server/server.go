// Package server exposes the executive list, export, classification selector
// and record validation over a small JSON API for browser front ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/form"

	"github.com/greg-hellings/execadmin/pkg/backend"
	"github.com/greg-hellings/execadmin/pkg/classification"
	"github.com/greg-hellings/execadmin/pkg/gridloader"
	"github.com/greg-hellings/execadmin/pkg/services"
)

const (
	shutdownTimeout = 10 * time.Second
	// SessionIdleTimeout is how long an unused selector session is kept.
	SessionIdleTimeout = 30 * time.Minute
)

// Sizes supplies the selector popup and grid page sizes (see state.Store).
type Sizes interface {
	classification.PageSizer
	gridloader.LoadSizer
}

// Options wires the server to its collaborators.
type Options struct {
	Searcher       services.Searcher
	Lookup         classification.Lookup
	Export         services.ExportService
	Sizes          Sizes
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server is the JSON API.
type Server struct {
	opts     Options
	logger   *slog.Logger
	engine   *gin.Engine
	decoder  *form.Decoder
	sessions *sessionStore
}

// New builds the server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Export == nil && opts.Searcher != nil {
		opts.Export = services.NewExportService(opts.Searcher, opts.Sizes, logger)
	}
	s := &Server{
		opts:     opts,
		logger:   logger,
		decoder:  form.NewDecoder(),
		sessions: newSessionStore(),
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(s.logger))
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/executives", s.searchExecutives)
		api.GET("/executives/export", s.exportExecutives)
		api.POST("/executives/validate", s.validateRecord)
		api.GET("/classifications/:type/groups", s.classificationGroups)

		sel := api.Group("/selectors")
		sel.POST("", s.createSelector)
		sel.GET("/:id", s.withSession(s.selectorState))
		sel.DELETE("/:id", s.deleteSelector)
		sel.POST("/:id/focus", s.withSession(s.selectorFocus))
		sel.POST("/:id/input", s.withSession(s.selectorInput))
		sel.POST("/:id/tab", s.withSession(s.selectorTab))
		sel.POST("/:id/leave", s.withSession(s.selectorLeave))
		sel.POST("/:id/pick", s.withSession(s.selectorPick))
		sel.POST("/:id/clear", s.withSession(s.selectorClear))
		sel.POST("/:id/page", s.withSession(s.selectorPage))
		sel.POST("/:id/sort", s.withSession(s.selectorSort))
	}
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", backend.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", backend.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.opts.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.AllowedOrigins
	}
	return cfg
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	go func() {
		ticker := time.NewTicker(SessionIdleTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.sessions.prune(SessionIdleTimeout); n > 0 {
					s.logger.Debug("pruned idle selector sessions", "count", n)
				}
			}
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// abort writes {"error": ...} with a status derived from err.
func (s *Server) abort(c *gin.Context, status int, err error) {
	if status == 0 {
		status = statusFor(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var httpErr *backend.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, classification.ErrRowOutOfRange),
		errors.Is(err, classification.ErrCandidateOutOfRange),
		errors.Is(err, classification.ErrNoPopup),
		errors.Is(err, classification.ErrNotLoaded),
		errors.Is(err, classification.ErrDisabled):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// sessionStore holds the live selector sessions.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	selector *classification.Selector
	lastUsed time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: map[string]*session{}}
}

func (st *sessionStore) add(id string, sel *classification.Selector) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = &session{selector: sel, lastUsed: time.Now()}
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[strings.TrimSpace(id)]
	return sess, ok
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

// prune drops sessions idle for longer than maxIdle.
func (st *sessionStore) prune(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for id, sess := range st.sessions {
		sess.mu.Lock()
		idle := sess.lastUsed.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

func (st *sessionStore) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
