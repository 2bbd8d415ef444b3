package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the routing tree. API paths match with or without the
// trailing slash.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         86400,
	}))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.StripSlashes)
		r.Use(s.recordMetrics)
		r.Use(s.authenticate)

		r.Route("/auth/token", func(r chi.Router) {
			r.With(httprate.LimitByIP(s.authRateLimit, time.Minute)).Post("/login", s.login)
			r.With(requireAuth).Post("/logout", s.logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.Post("/", s.register)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", s.me)
				r.Post("/set_password", s.setPassword)
				r.Get("/subscriptions", s.listSubscriptions)
				r.Post("/{id}/subscribe", s.subscribe)
				r.Delete("/{id}/subscribe", s.unsubscribe)
			})

			r.Get("/{id}", s.getUser)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.listTags)
			r.Get("/{id}", s.getTag)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", s.listIngredients)
			r.Get("/{id}", s.getIngredient)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipes)
			r.Get("/{id}", s.getRecipe)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", s.createRecipe)
				r.Get("/download_shopping_cart", s.downloadShoppingCart)
				r.Patch("/{id}", s.updateRecipe)
				r.Delete("/{id}", s.deleteRecipe)
				r.Post("/{id}/favorite", s.toggleAdd(s.svc.Favorites))
				r.Delete("/{id}/favorite", s.toggleRemove(s.svc.Favorites))
				r.Post("/{id}/shopping_cart", s.toggleAdd(s.svc.Cart))
				r.Delete("/{id}/shopping_cart", s.toggleRemove(s.svc.Cart))
			})
		})
	})

	return r
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.log(r.Context()).Error(ctx, "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
