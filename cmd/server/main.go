package main

import (
	"log"
	"os"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/config"
	"github.com/Juramirezlop/asamblea-voting-app/internal/database"
	"github.com/Juramirezlop/asamblea-voting-app/internal/handlers"
	"github.com/Juramirezlop/asamblea-voting-app/internal/middleware"
	"github.com/Juramirezlop/asamblea-voting-app/internal/models"
	"github.com/Juramirezlop/asamblea-voting-app/internal/services"
	"github.com/Juramirezlop/asamblea-voting-app/internal/ws"

	_ "github.com/Juramirezlop/asamblea-voting-app/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Asamblea Voting API
// @version         1.0
// @description     API for property-owner assembly voting with coefficient-weighted tallies and live updates
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.Load()

	defer logger.Init("asamblea", true, false, os.Stdout).Close()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret,
		time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	participantService := services.NewParticipantService(db)
	questionService := services.NewQuestionService(db)
	voteService := services.NewVoteService(db)
	tallyService := services.NewTallyService(db)

	if err := authService.EnsureDefaultAdmin(cfg.AdminUser, cfg.AdminPass); err != nil {
		log.Fatalf("failed to create default admin: %v", err)
	}

	authHandler := handlers.NewAuthHandler(authService)
	participantHandler := handlers.NewParticipantHandler(participantService, tallyService, authService, hub)
	questionHandler := handlers.NewQuestionHandler(questionService, hub)
	voteHandler := handlers.NewVoteHandler(voteService, hub)
	resultsHandler := handlers.NewResultsHandler(tallyService)
	adminHandler := handlers.NewAdminHandler(participantService, voteService, hub)
	settingsHandler := handlers.NewSettingsHandler(db)
	wsHandler := handlers.NewWSHandler(hub, authService)

	stop := make(chan struct{})
	defer close(stop)
	go questionService.RunExpirySweeper(
		time.Duration(cfg.SweepIntervalSecs)*time.Second, stop,
		func(q models.Question) {
			event := ws.Event{Type: "time_expired", Data: gin.H{"id": q.ID}}
			hub.BroadcastAdmins(event)
			hub.BroadcastVoters(event)
		})

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/admin", wsHandler.HandleAdminWS)
	r.GET("/ws/voter/:code", wsHandler.HandleVoterWS)

	auth := r.Group("/auth")
	{
		auth.POST("/register", middleware.AdminAuth(authService), authHandler.Register)
		auth.POST("/login/admin", authHandler.LoginAdmin)
		auth.POST("/login/voter", authHandler.LoginVoter)
	}

	voting := r.Group("/voting")
	{
		voting.POST("/register-attendance", participantHandler.RegisterAttendance)
		voting.POST("/vote", middleware.VoterAuth(authService), voteHandler.Submit)
		voting.GET("/my-votes", middleware.VoterAuth(authService), voteHandler.MyVotes)

		voting.GET("/questions/active", middleware.AnyRole(authService), questionHandler.ListActive)
		voting.GET("/results/:id", middleware.AdminAuth(authService), resultsHandler.Results)
		voting.GET("/aforo", middleware.AdminAuth(authService), resultsHandler.Aforo)

		voting.POST("/questions", middleware.AdminAuth(authService), questionHandler.Create)
		voting.PUT("/questions/:id/toggle", middleware.AdminAuth(authService), questionHandler.Toggle)
		voting.PUT("/questions/:id/extend-time", middleware.AdminAuth(authService), questionHandler.ExtendTime)
		voting.DELETE("/questions/:id", middleware.AdminAuth(authService), questionHandler.Delete)

		admin := voting.Group("/admin")
		admin.Use(middleware.AdminAuth(authService))
		{
			admin.DELETE("/participants/:code", adminHandler.RemoveAttendance)
			admin.PUT("/votes", adminHandler.EditVote)
			admin.DELETE("/votes/:question_id/:code", adminHandler.ClearVote)
			admin.DELETE("/reset", adminHandler.Reset)
		}
	}

	participants := r.Group("/participants")
	participants.Use(middleware.AdminAuth(authService))
	{
		participants.GET("", participantHandler.List)
		participants.POST("/bulk", participantHandler.BulkImport)
		participants.GET("/attendance-report", participantHandler.AttendanceReport)
	}

	settings := r.Group("/settings")
	settings.Use(middleware.AdminAuth(authService))
	{
		settings.GET("", settingsHandler.GetSettings)
		settings.PUT("", settingsHandler.UpdateSettings)
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
