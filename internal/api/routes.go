package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers mounted under /api.
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Vaccines *VaccineHandler
	History  *HistoryHandler

	// AuthMiddleware wraps only the /auth routes, e.g. with rate limiting.
	AuthMiddleware []func(http.Handler) http.Handler
}

// RegisterRoutes mounts every API route on r.
func RegisterRoutes(r chi.Router, h Handlers) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(h.AuthMiddleware...)
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.Users.ListUsers)
		r.Post("/", h.Users.CreateUser)

		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.Users.GetUser)
			r.Put("/", h.Users.UpdateUser)
			r.Delete("/", h.Users.DeleteUser)

			r.Route("/history", func(r chi.Router) {
				r.Get("/", h.History.ListHistory)
				r.Post("/", h.History.CreateRecord)
				r.Get("/statistics", h.History.Statistics)
				r.Get("/{recordID}", h.History.GetRecord)
				r.Put("/{recordID}", h.History.UpdateRecord)
				r.Patch("/{recordID}/apply", h.History.ApplyDose)
				r.Delete("/{recordID}", h.History.DeleteRecord)
			})
		})
	})

	r.Route("/vaccines", func(r chi.Router) {
		r.Get("/", h.Vaccines.ListVaccines)
		r.Post("/", h.Vaccines.CreateVaccine)
		r.Get("/{vaccineID}", h.Vaccines.GetVaccine)
		r.Put("/{vaccineID}", h.Vaccines.UpdateVaccine)
		r.Delete("/{vaccineID}", h.Vaccines.DeleteVaccine)
	})
}
