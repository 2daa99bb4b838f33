// Package server serves Markdown pages with live Typst preview widgets.
//
// Every request for a page renders it afresh and creates one controller
// per preview block, all sharing the server's compiler session. Widgets
// receive snapshot updates over a websocket and send edits back with
// PUT /previews/{id}/source or over the same websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	prom "github.com/prometheus/client_golang/prometheus"

	typstlive "github.com/alnah/go-typstlive"
	"github.com/alnah/go-typstlive/internal/config"
	"github.com/alnah/go-typstlive/internal/docs"
	"github.com/alnah/go-typstlive/internal/htmlview"
	"github.com/alnah/go-typstlive/internal/metrics"
)

// Defaults.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultMaxPreviews = 256
	DefaultFirstPaint  = 3 * time.Second
	requestTimeout     = 30 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// ErrNoDocsDir indicates the server was started without a docs directory.
var ErrNoDocsDir = errors.New("docs directory is required")

// Options configures a Server.
type Options struct {
	Addr           string
	DocsDir        string               // Markdown pages
	AttachmentsDir string               // served under AssetsBase when set
	AssetsBase     string               // base URL of fallback images
	Defaults       config.PreviewConfig // applied to every block
	Title          string               // index title
	MaxPreviews    int                  // live controllers kept (default 256)
	FirstPaint     time.Duration        // how long a page waits for first compiles
	Session        typstlive.Compiler   // shared by every preview
	View           *htmlview.Renderer
	Pages          *docs.PageRenderer
	Recorder       metrics.Recorder
	Registry       *prom.Registry // exposed on /metrics when set
	Logger         *slog.Logger
}

// Server is the preview HTTP server.
type Server struct {
	opts     Options
	logger   *slog.Logger
	router   *chi.Mux
	server   *http.Server
	previews *registry
	upgrader websocket.Upgrader

	// life bounds controller mounts; Close cancels it.
	life   context.Context
	cancel context.CancelFunc
}

// New creates a Server. Session, View and DocsDir are required.
func New(opts Options) (*Server, error) {
	if opts.DocsDir == "" {
		return nil, ErrNoDocsDir
	}
	if opts.Session == nil || opts.View == nil {
		return nil, errors.New("server: session and view are required")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxPreviews <= 0 {
		opts.MaxPreviews = DefaultMaxPreviews
	}
	if opts.FirstPaint <= 0 {
		opts.FirstPaint = DefaultFirstPaint
	}
	if opts.AssetsBase == "" {
		opts.AssetsBase = typstlive.DefaultAssetsBase
	}
	if opts.Defaults.AssetsBase == "" {
		opts.Defaults.AssetsBase = opts.AssetsBase
	}
	if opts.Title == "" {
		opts.Title = "Typst previews"
	}
	if opts.Pages == nil {
		opts.Pages = docs.NewPageRenderer()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	life, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		router:   chi.NewRouter(),
		previews: newRegistry(opts.MaxPreviews, opts.Recorder),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     sameOrigin,
		},
		life:   life,
		cancel: cancel,
	}
	s.setupRoutes()

	// No WriteTimeout: it would cut websocket streams. Ordinary routes are
	// bounded by the Timeout middleware instead.
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	// Websockets live outside the timeout group.
	s.router.Get("/previews/{id}/ws", s.handlePreviewSocket)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", s.handleIndex)
		r.Get("/pages/*", s.handlePage)
		r.Get("/health", s.handleHealth)

		r.Get("/previews/{id}", s.handleGetPreview)
		r.Put("/previews/{id}/source", s.handleEditPreview)

		if s.opts.AttachmentsDir != "" && strings.HasPrefix(s.opts.AssetsBase, "/") {
			base := strings.TrimSuffix(s.opts.AssetsBase, "/") + "/"
			r.Handle(base+"*", http.StripPrefix(base, http.FileServer(http.Dir(s.opts.AttachmentsDir))))
		}

		if s.opts.Registry != nil {
			r.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
		}
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully and closes every preview.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving previews", "addr", s.opts.Addr, "docs", s.opts.DocsDir)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops mounting and closes all live previews. The shared session
// belongs to the caller.
func (s *Server) Close() {
	s.cancel()
	s.previews.closeAll()
}

// sameOrigin accepts requests without an Origin header and those whose
// origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, host, ok := strings.Cut(origin, "://")
	return ok && strings.EqualFold(host, r.Host)
}

// requestLogger logs each request through slog once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
