// Package api exposes the order backend over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter mounts every route on a chi router and wraps it in an OpenTelemetry
// server handler.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.With(h.requireSession).Get("/logout", h.Logout)

	r.Get("/", h.page("index.html"))
	r.Get("/acompanhamento", h.page("acompanhamento.html"))
	r.With(h.requireSession).Get("/painel", h.page("painel.html"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/produtos", h.ListProducts)
		r.Post("/finalizar_pedido", h.SubmitOrder)
		r.Get("/pedidos/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Get("/pedidos", h.ListOrders)
			r.Put("/pedidos/{id}/status", h.UpdateStatus)
		})
	})

	return otelhttp.NewHandler(r, "lanchonete-api")
}
