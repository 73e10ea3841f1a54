// Package server is the relay's HTTP front door: it turns webhook deliveries
// into dispatch calls and exposes the JSON registration endpoint.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/botrelay/internal/metrics"
	"github.com/edgard/botrelay/internal/registration"
	"github.com/edgard/botrelay/internal/telegram"
	"github.com/edgard/botrelay/internal/token"
)

// SecretHeader carries the secret_token Telegram was given in setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Route labels used in metrics and logs.
const (
	RouteMain = "main"
	RouteBot  = "bot"
)

const maxBodyBytes = 1 << 20

// Dispatcher handles one update with the client of the bot it was delivered to.
type Dispatcher interface {
	Dispatch(ctx context.Context, client telegram.Client, update *models.Update) error
}

// Registrar adds a sub-bot given its token.
type Registrar interface {
	Add(ctx context.Context, token, source string) (*models.User, error)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Options configures a Server. Health and Metrics are optional.
type Options struct {
	MainClient    telegram.Client
	Factory       telegram.ClientFactory
	Dispatcher    Dispatcher
	Registrar     Registrar
	Health        HealthChecker
	Metrics       *metrics.Metrics
	WebhookSecret string
	// AddedMessage formats the /add success body; it receives the bot username.
	AddedMessage string
	Logger       *slog.Logger
}

// Server holds the front door's dependencies. It keeps no per-bot state:
// sub-bot clients are built per request from the token in the path.
type Server struct {
	opts     Options
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:     opts,
		validate: validator.New(),
		logger:   logger.With("component", "http_server"),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth())
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(secretMiddleware(s.opts.WebhookSecret))
		r.Post(registration.MainBotPath, s.handleMainWebhook())
		r.Post(registration.SubBotPath, s.handleBotWebhook())
	})

	r.Post("/add", s.handleAdd())

	return r
}

// secretMiddleware rejects webhook deliveries whose secret header does not
// match. An empty secret disables the check.
func secretMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				http.Error(w, "invalid secret token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleMainWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveUpdate(w, r, RouteMain, s.opts.MainClient)
	}
}

func (s *Server) handleBotWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := chi.URLParam(r, "token")
		if !token.IsValid(tok) {
			http.NotFound(w, r)
			return
		}

		client, err := s.opts.Factory.ForToken(tok)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Failed to build sub-bot client",
				"bot", token.Redact(tok), "error", token.RedactError(err, tok))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		s.serveUpdate(w, r, RouteBot, client)
	}
}

func (s *Server) serveUpdate(w http.ResponseWriter, r *http.Request, route string, client telegram.Client) {
	var update models.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&update); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	s.opts.Metrics.UpdateReceived(route)

	if err := s.opts.Dispatcher.Dispatch(r.Context(), client, &update); err != nil {
		s.opts.Metrics.DispatchFailed(route)
		s.logger.ErrorContext(r.Context(), "Update dispatch failed",
			"route", route, "update_id", update.ID, "error", token.ScrubError(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type addRequest struct {
	Token string `json:"token" validate:"required"`
}

type addResponse struct {
	Msg string `json:"msg"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
			return
		}

		user, err := s.opts.Registrar.Add(r.Context(), req.Token, registration.SourceHTTP)
		switch {
		case errors.Is(err, registration.ErrMalformedCredential), errors.Is(err, registration.ErrInvalidCredential):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid token"})
			return
		case err != nil:
			s.logger.ErrorContext(r.Context(), "Registration via HTTP failed", "bot", token.Redact(req.Token), "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "registration failed"})
			return
		}

		writeJSON(w, http.StatusOK, addResponse{Msg: fmt.Sprintf(s.opts.AddedMessage, user.Username)})
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Health != nil {
			if err := s.opts.Health.Ping(r.Context()); err != nil {
				s.logger.WarnContext(r.Context(), "Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
