package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/monkeystudio/gfx-order-system/internal/middleware"
)

// SetupRouter wires the HTTP routes and middleware of the GFX order service.
//
// The maintenance gate wraps only the public order routes: login, the
// current-admin lookup and the maintenance flag itself stay reachable so an
// admin can get in and turn the gate off, and every admin-only route already
// requires a session, which bypasses the gate by definition.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Get("/maintenance", h.GetMaintenance)

			r.Group(func(r chi.Router) {
				r.Use(h.sessions.Authenticate)

				r.Post("/logout", h.Logout)
				r.Get("/me", h.CurrentAdmin)
				r.Get("/users", h.ListAdmins)
				r.Post("/users", h.CreateAdmin)
				r.Post("/maintenance", h.SetMaintenance)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.Maintenance(h.service, h.sessions))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Post("/", h.CreateOrder)
				r.Get("/{id}", h.GetOrder)
				r.Patch("/{id}/payment", h.UpdatePayment)

				r.Group(func(r chi.Router) {
					r.Use(h.sessions.Authenticate)

					r.Patch("/{id}/status", h.UpdateStatus)
					r.Patch("/{id}/price", h.UpdatePrice)
					r.Delete("/{id}", h.DeleteOrder)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeMessage(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
