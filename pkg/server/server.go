// Package server exposes the exchange bridge over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/chatrelay/pkg/bridge"
	"github.com/entrhq/chatrelay/pkg/logging"
)

// statusClientClosedRequest is nginx's status for a client that went away.
const statusClientClosedRequest = 499

// maxBodyBytes bounds POST /chat bodies.
const maxBodyBytes = 1 << 20

// Exchanger runs one prompt/response exchange.
type Exchanger interface {
	ExchangeAs(ctx context.Context, prompt string, format bridge.Format) (string, error)
}

// ReadinessChecker reports whether the chat page is usable, i.e. logged in.
// *bridge.Bridge implements it under its exchange lock.
type ReadinessChecker interface {
	IsReady() bool
}

// Server routes HTTP requests to an Exchanger.
type Server struct {
	exchanger Exchanger
	readiness ReadinessChecker
	logger    *logging.Logger
	router    chi.Router
}

// New creates a server. readiness may be nil, in which case /ready always succeeds.
func New(exchanger Exchanger, readiness ReadinessChecker, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		exchanger: exchanger,
		readiness: readiness,
		logger:    logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/chat", s.handleChatQuery)
	r.Post("/chat", s.handleChatJSON)

	return r
}

// requestLogger logs one line per request through the process logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Infof("%s %s %d %dB %s [%s] from %s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
				time.Since(start).Round(time.Millisecond),
				chiMiddleware.GetReqID(r.Context()), r.RemoteAddr)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.readiness != nil && !s.readiness.IsReady() {
		Error(w, http.StatusServiceUnavailable, "login required")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleChatQuery serves GET /chat?q=<prompt>&format=<text|html> with a
// plain-text body.
func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("q")
	if prompt == "" {
		Error(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	format, err := bridge.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := s.exchanger.ExchangeAs(r.Context(), prompt, format)
	if err != nil {
		s.writeExchangeError(w, r, err)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == bridge.FormatHTML {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(response))
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
	Format   string `json:"format"`
}

func (s *Server) handleChatJSON(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		Error(w, http.StatusBadRequest, "prompt is required")
		return
	}

	format, err := bridge.ParseFormat(req.Format)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := s.exchanger.ExchangeAs(r.Context(), req.Prompt, format)
	if err != nil {
		s.writeExchangeError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, ChatResponse{Response: response, Format: string(format)})
}

func (s *Server) writeExchangeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == statusClientClosedRequest {
		s.logger.Infof("Client went away during exchange [%s]: %v", chiMiddleware.GetReqID(r.Context()), err)
	} else {
		s.logger.Errorf("Exchange failed [%s]: %v", chiMiddleware.GetReqID(r.Context()), err)
	}
	Error(w, status, err.Error())
}

// StatusFor maps an exchange error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, bridge.ErrControlNotFound), errors.Is(err, bridge.ErrInputRejected):
		return http.StatusServiceUnavailable
	case errors.Is(err, bridge.ErrSubmitControlNotFound):
		return http.StatusBadGateway
	case errors.Is(err, bridge.ErrResponseTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
