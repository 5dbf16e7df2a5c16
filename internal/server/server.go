// Package server assembles the REST API: routing, authentication,
// request logging and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventdraw/drawbot/internal/database"
	"github.com/eventdraw/drawbot/internal/draw"
	"github.com/eventdraw/drawbot/internal/eventsvc"
	"github.com/eventdraw/drawbot/internal/handler"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/metrics"
	"github.com/eventdraw/drawbot/internal/participant"
	"github.com/eventdraw/drawbot/internal/repository"
)

// Deps bundles everything the router serves
type Deps struct {
	DBPool       database.Pool
	Events       eventsvc.Service
	Draws        draw.Service
	Participants participant.Service
	Configs      repository.DrawConfig
	ParticipantR repository.Participant
	Tokens       repository.Token
}

type Server struct {
	httpServer *http.Server
}

// NewServer wires the chi router with the middleware stack and all
// admin and operator routes.
func NewServer(port int, apiKey string, deps Deps) *Server {
	r := chi.NewRouter()

	detector := NewSuspiciousActivityDetector()

	r.Use(RateLimitMiddleware(detector))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health and metrics (unauthenticated)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(deps.DBPool))
	r.Handle("/metrics", promhttp.Handler())

	// Admin API, guarded by the static API key
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyMiddleware(apiKey, detector))

		r.Route("/events", func(r chi.Router) {
			r.Post("/", handler.HandleCreateEvent(deps.Events))
			r.Get("/", handler.HandleListEvents(deps.Events))

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", handler.HandleGetEvent(deps.Events))
				r.Patch("/", handler.HandleUpdateEvent(deps.Events))
				r.Post("/status", handler.HandleSetEventStatus(deps.Events))

				r.Get("/participants.csv", handler.HandleExportParticipants(deps.ParticipantR))
				r.Get("/winners", handler.HandleListWinners(deps.Draws))

				r.Post("/notify", handler.HandleNotifyParticipants(deps.Events))

				r.Route("/draw", func(r chi.Router) {
					r.Get("/config", handler.HandleGetDrawConfig(deps.Configs))
					r.Put("/config", handler.HandleUpsertDrawConfig(deps.Configs))
					r.Post("/start", handler.HandleStartDraw(deps.Draws))
				})
			})
		})

		r.Post("/announce", handler.HandleAnnounce(deps.Events))
		r.Get("/operator-token", handler.HandleGetOperatorToken(deps.Tokens))
		r.Post("/operator-token", handler.HandleRotateOperatorToken(deps.Tokens))
	})

	// Operator API, guarded by the rotating operator token
	r.Route("/operator/v1", func(r chi.Router) {
		r.Use(OperatorTokenMiddleware(deps.Tokens, detector))

		r.Get("/verify", handler.HandleVerifyOperatorToken())
		r.Get("/participants/{shortID}", handler.HandleLookupParticipant(deps.Participants))
		r.Post("/participants/{shortID}/claim", handler.HandleClaimPrize(deps.Participants))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Health and metrics probes would drown out the log
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
