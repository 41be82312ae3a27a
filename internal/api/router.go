package api

import (
	"net/http"
	"time"

	"code_arena/internal/api/handler"
	"code_arena/internal/app/service"
	"code_arena/internal/common/security"
	"code_arena/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
)

func NewRouter(
	tokens *security.TokenIssuer,
	allowedOrigins []string,
	authService *service.AuthService,
	problemService *service.ProblemService,
	executionService *service.ExecutionService,
	healthService *service.HealthService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	// Verifies a bearer token when present. Protected routes add
	// middleware.Authenticator on top.
	r.Use(tokens.Verifier())

	healthHandler := handler.NewHealthHandler(healthService)
	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(api chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		api.Route("/auth", authHandler.RegisterRoutes)

		problemHandler := handler.NewProblemHandler(problemService)
		api.Route("/problems", problemHandler.RegisterRoutes)

		executionHandler := handler.NewExecutionHandler(executionService)
		executionHandler.RegisterRoutes(api)

		api.Get("/test-db", healthHandler.TestDB)
	})

	return r
}
