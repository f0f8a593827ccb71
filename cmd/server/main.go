package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gorilla "github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"Crackd/internal/api/middleware"
	"Crackd/internal/api/routes"
	"Crackd/internal/auth"
	"Crackd/internal/config"
	"Crackd/internal/core/sessions"
	"Crackd/internal/core/votes"
	postgresRepo "Crackd/internal/db/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	logger.Info("connected to database")

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Failed to set goose dialect:", err)
	}
	if err := goose.Up(db, "internal/db/migrations"); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	logger.Info("migrations completed")

	// Auth boundary: token verifier + cookie store, both injected explicitly
	verifier, err := auth.NewVerifier(cfg.AuthJWTSecret)
	if err != nil {
		log.Fatal("Failed to create token verifier:", err)
	}
	cookieStore := gorilla.NewCookieStore([]byte(cfg.SessionCookieSecret))
	sessionAuth := middleware.NewSessionAuth(verifier, cookieStore, logger)

	// Session store + repositories + coordinator
	sessionStore := sessions.NewStore(cfg.AuthSignInURL, logger)
	captionRepo := postgresRepo.NewCaptionRepository(db)
	voteRepo := postgresRepo.NewVoteRepository(db)

	coordinator := votes.NewCoordinator(voteRepo, captionRepo, sessionStore, votes.Config{
		Domain: votes.Domain{
			Min:    cfg.RatingMin,
			Max:    cfg.RatingMax,
			Binary: cfg.RatingBinary,
		},
		FeedLimit:     cfg.FeedLimit,
		SubmitTimeout: cfg.SubmitTimeout,
	}, logger)
	defer coordinator.Close()

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	// The UI is a separate origin; it only ever calls this API
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Rate limiting: 100 requests per minute per IP
	rateLimiter := middleware.NewRateLimiter(100, 1*time.Minute)
	r.Use(rateLimiter.Middleware)

	routes.RegisterFeedRoutes(r, coordinator, sessionAuth)
	routes.RegisterVoteRoutes(r, coordinator, sessionStore, sessionAuth)
	routes.RegisterSessionRoutes(r, sessionStore, verifier, sessionAuth, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	logger.Info("crackd server starting", "port", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
