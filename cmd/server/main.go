package main

import (
	"alcyxob/coach-app/internal/api"
	"alcyxob/coach-app/internal/config"
	"alcyxob/coach-app/internal/picker"
	"alcyxob/coach-app/internal/repository/mongo"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/session"
	"alcyxob/coach-app/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Coach App API
// @version 1.0
// @description API for program scheduling, workout assignments, and run session tracking.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Coach App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsureWorkoutTemplateIndexes(ctx, appDB.Collection("workout_templates"))
		mongo.EnsureProgramTemplateIndexes(ctx, appDB.Collection("program_templates"))
		mongo.EnsureProgramAssignmentIndexes(ctx, appDB.Collection("program_assignments"))
		mongo.EnsureWorkoutAssignmentIndexes(ctx, appDB.Collection("workout_assignments"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("workout_sessions"))
		mongo.EnsureSetLogIndexes(ctx, appDB.Collection("workout_set_logs"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutTemplateRepository(appDB)
	programRepo := mongo.NewMongoProgramTemplateRepository(appDB)
	programAsgRepo := mongo.NewMongoProgramAssignmentRepository(appDB)
	workoutAsgRepo := mongo.NewMongoWorkoutAssignmentRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	setLogRepo := mongo.NewMongoSetLogRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	rosterService := service.NewRosterService(userRepo)
	catalogService := service.NewCatalogService(exerciseRepo, workoutRepo, programRepo, fileStorage)
	assignmentService := service.NewAssignmentService(userRepo, programRepo, workoutRepo, programAsgRepo, workoutAsgRepo)
	scheduleService := service.NewScheduleService(programRepo, programAsgRepo, workoutAsgRepo)
	sessionManager := session.NewManager(sessionRepo, setLogRepo, workoutRepo, workoutAsgRepo, cfg.Session.FlushDelay)
	pickMailbox := picker.NewMailbox(picker.DefaultTTL)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, rosterService, catalogService, assignmentService, scheduleService, sessionManager, pickMailbox)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
