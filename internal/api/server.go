// Package api exposes the recruitment backend over HTTP.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/config"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
	"github.com/dharsanguruparan/hirevault/internal/signing"
)

// Deps are the collaborators a Server needs. Hub and Ping may be nil.
type Deps struct {
	Users         UserStore
	Jobs          JobStore
	Applications  ApplicationStore
	Appointments  AppointmentStore
	Collaborators CollaboratorStore
	Assets        AssetService
	Notifier      realtime.Notifier
	Hub           http.Handler
	Signer        *signing.Signer
	Ping          func(ctx context.Context) error
	Logger        *log.Logger
	// FS holds upload spool files; defaults to the OS filesystem.
	FS  afero.Fs
	Now func() time.Time
}

// Server exposes HTTP endpoints for jobs, applications, people and assets.
type Server struct {
	cfg    *config.Config
	deps   Deps
	log    *log.Logger
	server *http.Server
	once   sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Notifier == nil {
		deps.Notifier = realtime.Discard{}
	}
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	return &Server{cfg: cfg, deps: deps, log: deps.Logger.WithPrefix("api")}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/healthz", s.handleHealth)
	if s.deps.Hub != nil {
		mux.Handle("GET /socket", s.deps.Hub)
		mux.Handle("GET /api/socket", s.deps.Hub)
	}
	s.jobRoutes(mux)
	s.applicationRoutes(mux)
	s.appointmentRoutes(mux)
	s.peopleRoutes(mux)
	s.assetRoutes(mux)
	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:              s.cfg.Address,
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", "addr", s.cfg.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		if err := s.deps.Ping(r.Context()); err != nil {
			s.log.Warn("health check failed", "err", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) publish(ctx context.Context, ev realtime.Event) {
	if err := s.deps.Notifier.Publish(ctx, ev); err != nil {
		s.log.Debug("publish event", "event", ev.Name, "err", err)
	}
}

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Field   map[string]string `json:"field,omitempty"`
}

// writeError maps err to a status and the error body. Internal causes are
// logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	body := errorBody{Message: "Internal Server Error"}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && kind != apperr.Internal {
		body.Message = appErr.Message
		if kind == apperr.DuplicateField && appErr.Field != "" {
			body.Field = map[string]string{appErr.Field: appErr.Value}
		}
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "err", err)
	}
	respondJSON(w, status, body)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.writeError(w, r, apperr.Newf(apperr.ValidationFailed, "%s", msg))
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return apperr.New(apperr.ValidationFailed, "invalid JSON body", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if !s.cfg.OriginAllowed(origin) {
				respondJSON(w, http.StatusForbidden, errorBody{Message: "Not allowed by CORS"})
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

// Hijack passes through to the underlying writer so /socket can upgrade.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
	})
}
