package api

import (
	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/picker"
	"alcyxob/coach-app/internal/service"
	"alcyxob/coach-app/internal/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	rosterService service.RosterService,
	catalogService service.CatalogService,
	assignmentService service.AssignmentService,
	scheduleService service.ScheduleService,
	sessionManager *session.Manager,
	pickMailbox *picker.Mailbox,
) {
	authHandler := NewAuthHandler(authService)
	catalogHandler := NewCatalogHandler(catalogService)
	assignmentHandler := NewAssignmentHandler(rosterService, assignmentService)
	scheduleHandler := NewScheduleHandler(scheduleService)
	sessionHandler := NewSessionHandler(sessionManager, pickMailbox)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Catalog Routes ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", RoleMiddleware(domain.RoleTrainer), catalogHandler.CreateExercise)
			exerciseGroup.GET("", RoleMiddleware(domain.RoleTrainer), catalogHandler.GetTrainerExercises)
			exerciseGroup.POST("/:exerciseId/demo-video/upload-url", RoleMiddleware(domain.RoleTrainer), catalogHandler.RequestDemoVideoUploadURL)
			exerciseGroup.POST("/:exerciseId/demo-video/confirm", RoleMiddleware(domain.RoleTrainer), catalogHandler.ConfirmDemoVideoUpload)
			// Clients view demo videos from their assigned workouts.
			exerciseGroup.GET("/:exerciseId/demo-video", catalogHandler.GetDemoVideoDownloadURL)
		}

		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", RoleMiddleware(domain.RoleTrainer), catalogHandler.CreateWorkoutTemplate)
			workoutGroup.GET("", RoleMiddleware(domain.RoleTrainer), catalogHandler.GetTrainerWorkoutTemplates)
			workoutGroup.GET("/:workoutId", catalogHandler.GetWorkoutTemplate)
		}

		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", RoleMiddleware(domain.RoleTrainer), catalogHandler.CreateProgramTemplate)
			programGroup.GET("", RoleMiddleware(domain.RoleTrainer), catalogHandler.GetTrainerProgramTemplates)
			programGroup.GET("/:programId", catalogHandler.GetProgramTemplate)
		}

		// --- Trainer Specific Routes ---
		trainerApiGroup := protected.Group("/trainer")
		trainerApiGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerApiGroup.POST("/clients", assignmentHandler.AddClient)
			trainerApiGroup.GET("/clients", assignmentHandler.GetManagedClients)

			// Assignment operations
			trainerApiGroup.POST("/assignments/workouts", assignmentHandler.AssignWorkout)
			trainerApiGroup.POST("/assignments/programs", assignmentHandler.AssignProgram)
			trainerApiGroup.POST("/assignments/programs/:assignmentId/resolve", assignmentHandler.ResolveDuplicate)
			trainerApiGroup.PUT("/assignments/programs/:assignmentId/start-date", assignmentHandler.UpdateStartDate)
			trainerApiGroup.DELETE("/assignments/programs/:assignmentId", assignmentHandler.ArchiveAssignment)
		}

		// --- Client Specific Routes ---
		clientApiGroup := protected.Group("/client")
		clientApiGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientApiGroup.GET("/today", scheduleHandler.GetToday)
			clientApiGroup.GET("/programs/:assignmentId/schedule", scheduleHandler.GetSchedule)
			clientApiGroup.POST("/programs/:assignmentId/days/complete", scheduleHandler.MarkDayComplete)
			clientApiGroup.POST("/programs/:assignmentId/days/uncomplete", scheduleHandler.UnmarkDayComplete)

			// Run sessions
			clientApiGroup.POST("/sessions", sessionHandler.StartSession)
			clientApiGroup.GET("/sessions/:sessionId", sessionHandler.GetSession)
			clientApiGroup.PATCH("/sessions/:sessionId/sets", sessionHandler.EditSet)
			clientApiGroup.POST("/sessions/:sessionId/retry-save", sessionHandler.RetrySave)
			clientApiGroup.POST("/sessions/:sessionId/finish", sessionHandler.FinishSession)
		}

		// --- Pick Mailbox (any authenticated role) ---
		pickGroup := protected.Group("/picks")
		{
			pickGroup.POST("", sessionHandler.OpenPick)
			pickGroup.PUT("/:token", sessionHandler.FulfillPick)
			pickGroup.GET("/:token", sessionHandler.ClaimPick)
		}
	}
}
