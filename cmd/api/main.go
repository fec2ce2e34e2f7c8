package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/soulstices/activityhub/internal/activity"
	activitygate "github.com/soulstices/activityhub/internal/activity/gate"
	"github.com/soulstices/activityhub/internal/config"
	"github.com/soulstices/activityhub/internal/database"
	"github.com/soulstices/activityhub/internal/group"
	groupjoin "github.com/soulstices/activityhub/internal/group/join"
	"github.com/soulstices/activityhub/internal/user"
	mw "github.com/soulstices/activityhub/pkg/middleware"

	_ "github.com/soulstices/activityhub/docs"
)

// @title        Soulstices Activity Hub API
// @version      1.0
// @description  Community activity and group listings for Bhopal, Madhya Pradesh.
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	// Access-control cores (policy/gate factories shared by every entry point)
	joinPolicies := groupjoin.NewPolicyFactory()
	activityGates := activitygate.NewGateFactory()

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Group feature (with join policies injected)
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, joinPolicies, cfg.ReapplyAfterRejection)
	groupHandler := group.NewHandler(groupService)

	// Activity feature (with gates and the group store injected)
	activityRepo := activity.NewRepository(db)
	activityService := activity.NewService(activityRepo, groupRepo, activityGates)
	activityHandler := activity.NewHandler(activityService)

	auth := mw.NewAuth(cfg.JWTSecret)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	// Reads stay public; handlers require identity for any write
	r.Use(auth.Optional)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Mount feature routers
		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/activities", activityHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
