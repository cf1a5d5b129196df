package router

import (
	"net/http"

	"github.com/Totarae/shortlinks/internal/handlers"
	"github.com/Totarae/shortlinks/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает маршрутизатор.
// authn проверяет токен и кладёт вызывающего в контекст запроса.
func NewRouter(handler *handlers.Handler, authn func(http.Handler) http.Handler, logger *zap.Logger, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware(logger)) // Подключаем логирование
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(corsOrigins))
	r.Use(middleware.GzipRequestMiddleware)
	r.Use(chimw.Compress(5, "application/json")) // Gzip-сжатие ответов

	r.Get("/", handler.Root)
	r.Get("/ping", handler.Ping)

	r.Route("/url", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/", handler.ReceiveShorten)
			r.Get("/", handler.GetUserURLs)
			r.Get("/analytics/{shortId}", handler.Analytics)
			r.Delete("/{id}", handler.DeleteURL)
		})
		r.Get("/{shortId}", handler.ResponseURL)
	})

	r.Route("/user", func(r chi.Router) {
		r.Post("/new", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/logout", handler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/me", handler.Me)
			r.Patch("/me", handler.UpdateMe)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", handler.ListUsers)
				r.Patch("/users/{id}/role", handler.UpdateUserRole)
				r.Delete("/users/{id}", handler.DeleteUser)
			})
		})
	})

	return r
}
