package main

import (
	"quizlive-backend/internal/config"
	"quizlive-backend/internal/database"
	"quizlive-backend/internal/handlers"
	"quizlive-backend/internal/logger"
	"quizlive-backend/internal/middleware"
	"quizlive-backend/internal/services"
	"quizlive-backend/internal/ws"

	_ "quizlive-backend/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           QuizLive API
// @version         1.0
// @description     Real-time multiplayer quiz sessions: hosts run timed questions, participants join by code and poll for state.
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	logger.Init()
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	quizService := services.NewQuizService(db)
	participantService := services.NewParticipantService(db)
	answerService := services.NewAnswerService(db, participantService)
	resultsService := services.NewResultsService(db, answerService)
	sessionService := services.NewSessionService(db, quizService, participantService, answerService, resultsService)

	autoAdvance := services.NewAutoAdvance(sessionService, answerService, participantService,
		cfg.MinQuestionDisplay, cfg.AutoAdvanceSettle)
	autoAdvance.OnFinished = func(code string, state *services.SessionState) {
		hub.Broadcast(code, ws.Message{Type: ws.EventResults, Data: state})
	}

	authHandler := handlers.NewAuthHandler(authService)
	quizHandler := handlers.NewQuizHandler(quizService)
	sessionHandler := handlers.NewSessionHandler(sessionService, participantService, answerService, autoAdvance, hub)
	playHandler := handlers.NewPlayHandler(sessionService, participantService, answerService, autoAdvance, hub)
	wsHandler := handlers.NewWSHandler(sessionService, hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/sessions/:code", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		quizzes := api.Group("/quizzes")
		quizzes.Use(middleware.JWTAuth(authService))
		{
			quizzes.GET("", quizHandler.ListQuizzes)
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("/:id", quizHandler.GetQuiz)
			quizzes.PUT("/:id", quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", quizHandler.DeleteQuiz)
			quizzes.POST("/:id/questions", quizHandler.AddQuestion)
		}

		questions := api.Group("/questions")
		questions.Use(middleware.JWTAuth(authService))
		{
			questions.DELETE("/:id", quizHandler.DeleteQuestion)
		}

		sessions := api.Group("/sessions")
		{
			sessions.GET("", middleware.JWTAuth(authService), sessionHandler.ListSessions)
			sessions.POST("", middleware.JWTAuth(authService), sessionHandler.CreateSession)

			// State reads are open to anyone with the code; the optional
			// token lets the host's poll drive auto-advance.
			sessions.GET("/:code", middleware.OptionalAuth(authService), sessionHandler.GetSession)

			sessions.POST("/:code/start", middleware.JWTAuth(authService), sessionHandler.Start)
			sessions.POST("/:code/question", middleware.JWTAuth(authService), sessionHandler.StartQuestion)
			sessions.POST("/:code/finish", middleware.JWTAuth(authService), sessionHandler.FinishQuestion)
			sessions.POST("/:code/ranking", middleware.JWTAuth(authService), sessionHandler.ShowRanking)
			sessions.POST("/:code/chart", middleware.JWTAuth(authService), sessionHandler.BackToChart)
			sessions.POST("/:code/next", middleware.JWTAuth(authService), sessionHandler.NextQuestion)
			sessions.POST("/:code/end", middleware.JWTAuth(authService), sessionHandler.End)
			sessions.POST("/:code/kick", middleware.JWTAuth(authService), sessionHandler.Kick)
			sessions.DELETE("/:code", middleware.JWTAuth(authService), sessionHandler.DeleteSession)
			sessions.GET("/:code/distribution", middleware.JWTAuth(authService), sessionHandler.Distribution)
			sessions.GET("/:code/answers", middleware.JWTAuth(authService), sessionHandler.Answers)
		}

		play := api.Group("/play")
		play.Use(middleware.OptionalAuth(authService))
		{
			play.POST("/:code/join", playHandler.Join)
			play.GET("/:code/state", playHandler.State)
			play.POST("/:code/answer", playHandler.Answer)
			play.GET("/:code/result", playHandler.MyResult)
			play.GET("/:code/ranking", playHandler.Ranking)
		}
	}

	log.Info().Str("port", cfg.ServerPort).Dur("poll_interval", cfg.PollInterval).Msg("server starting")
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
