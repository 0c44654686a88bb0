// Package server exposes an emotepack session over HTTP, with registry
// events and notices pushed to websocket clients.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/emotepack/pkg/emote/session"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// Default server settings
const (
	DefaultDownloadTTL = 5 * time.Minute
	MaxImageBytes      = 32 << 20
	shutdownTimeout    = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	DownloadTTL time.Duration
	Logger      hclog.Logger
}

// Server serves one session.
type Server struct {
	session   *session.Session
	hub       *Hub
	downloads *DownloadStore
	router    chi.Router
	logger    hclog.Logger

	unsubscribe func()
}

// New creates a server around a new session built from sessOpts. Notices
// raised by the session are forwarded to websocket clients after any
// notifier already set in sessOpts.
func New(sessOpts session.Options, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.DownloadTTL <= 0 {
		opts.DownloadTTL = DefaultDownloadTTL
	}
	logger := opts.Logger.Named("server")

	hub := newHub(logger)
	next := sessOpts.Notifier
	sessOpts.Notifier = session.NotifierFunc(func(n session.Notice) {
		if next != nil {
			next.Notify(n)
		}
		hub.Broadcast(MessageTypeNotice, n)
	})

	sess, err := session.New(sessOpts)
	if err != nil {
		return nil, err
	}

	s := &Server{
		session:   sess,
		hub:       hub,
		downloads: NewDownloadStore(opts.DownloadTTL),
		logger:    logger,
	}
	s.unsubscribe = sess.Registry().Subscribe(func(ev slots.Event) {
		hub.Broadcast(MessageTypeEvent, ev)
	})
	s.router = s.routes()

	go hub.run()
	return s, nil
}

// Session returns the served session.
func (s *Server) Session() *session.Session {
	return s.session
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the websocket hub, detaches from the registry and waits for
// in-flight image decodes.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.close()
	s.session.Registry().Wait()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🚀 Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/slots", s.handleGetSlots)
		r.Post("/slots", s.handleAppendSlot)
		r.Put("/slots", s.handleReplaceSlots)
		r.Put("/slots/{name}/image", s.handleBindImage)
		r.Post("/reset", s.handleReset)
		r.Put("/config", s.handleSetConfig)
		r.Post("/export/archive", s.handleExportArchive)
		r.Post("/export/individual", s.handleExportIndividual)
		r.Get("/downloads/{token}", s.handleDownload)
	})

	r.Get("/ws", s.hub.serveWS)
	return r
}

// requestLogger logs each request through hclog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("🌐 Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
