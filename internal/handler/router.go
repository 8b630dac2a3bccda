/*
Package handler provides the HTTP handlers and routing setup for the DM Chat relay.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API,
history, and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/limiter"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/resp"
)

const (
	SessionRate  = 0.2
	SessionBurst = 5
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	sessionLimiter := limiter.NewIPRateLimiter(rate.Limit(SessionRate), SessionBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	// Session extraction runs globally: /chat and /ws need the identity too.
	r.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "DM Chat Relay",
		}
		resp.RespondSuccess(w, r, data)
	})

	// Login page rendering belongs to the frontend; unauthenticated browser
	// requests land here after the RequireSession redirect.
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"message": "Sign in through your identity provider, then POST the verified profile to /api/session.",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/session", func(session chi.Router) {
			rateLimitedCreate := sessionLimiter.Middleware(HandleCreateSession(deps))
			session.Post("/", http.HandlerFunc(rateLimitedCreate.ServeHTTP))
			session.Get("/", HandleGetSession(deps))
			session.Delete("/", HandleDeleteSession(deps))
		})

		api.Group(func(authed chi.Router) {
			authed.Use(RequireSession)

			authed.Post("/image/presign-upload", HandlePresignImageUpload(deps))
			authed.Get("/image/presign-download", HandlePresignImageDownload(deps))
		})
	})

	r.Group(func(authed chi.Router) {
		authed.Use(RequireSession)

		authed.Get("/chat", HandleChatHistory(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
