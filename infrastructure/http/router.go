package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full HTTP surface: the chat REST API, the
// websocket endpoint and the Prometheus scrape endpoint.
func NewRouter(api *API, wsHandler http.Handler, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/chat", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Post("/register", api.Register)
		r.Post("/login", api.Login)

		r.Get("/users/{userID}/conversations", api.ListConversations)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", api.CreateConversation)
			r.Get("/{conversationID}/messages", api.ListMessages)
			r.Post("/{conversationID}/messages", api.SendMessage)
			r.Post("/{conversationID}/read", api.MarkRead)
		})
	})

	// No timeout middleware here, websocket sessions live far longer than
	// any request deadline.
	r.Handle("/ws", wsHandler)

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}
