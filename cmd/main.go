package main

import (
	"fmt"
	"os"

	"agentceo/internal/handler"
	"agentceo/internal/middleware"
	"agentceo/internal/model"
	"agentceo/internal/service"
	"agentceo/pkg/config"
	"agentceo/pkg/database"
	"agentceo/pkg/jwtutil"
	"agentceo/pkg/logger"
	"agentceo/pkg/mailauth"
	"agentceo/pkg/metrics"
	"agentceo/pkg/n8n"
	"agentceo/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("agentceo")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations for all platform models
	if err := database.MigrateModels(
		&model.Workspace{},
		&model.User{},
		&model.Business{},
		&model.Contact{},
		&model.Ticket{},
		&model.TicketComment{},
		&model.Agent{},
		&model.AgentTask{},
		&model.TaskExecution{},
		&model.Workflow{},
		&model.WorkflowExecution{},
		&model.WebhookLog{},
		&model.EmailProvider{},
	); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// Seed the active workspaces gauge from current data
	var workspaceCount int64
	db.Model(&model.Workspace{}).Where("active = ?", true).Count(&workspaceCount)
	prometheus.ActiveWorkspacesGauge.Set(float64(workspaceCount))

	// Initialize JWT utility
	jwtConfig := &jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	}
	jwt := jwtutil.NewJWTUtil(jwtConfig)

	// Wire handler dependencies
	handler.InitAuthHandler(jwt)
	handler.InitTaskHandler(service.NewTaskQueue(db))
	handler.InitWorkflowHandler(n8n.NewClient(conf.N8N.BaseURL, conf.N8N.APIKey, conf.N8N.Timeout))
	handler.InitMailHandler(mailauth.NewClient(conf.MailAuth.BaseURL, conf.MailAuth.Timeout))

	// Initialize HTTP metrics
	httpMetrics := metrics.NewHTTPMetrics(conf.ServiceName)

	// Initialize Echo framework
	e := echo.New()

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Metrics and health endpoints
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	e.GET("/healthz", handler.HealthCheck)

	// Public auth routes
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)

	authMW := middleware.JWTAuthMiddleware(jwt)
	e.GET("/auth/me", handler.Me, authMW)

	// Businesses
	businesses := e.Group("/businesses")
	businesses.Use(authMW)
	businesses.GET("", handler.ListBusinesses)
	businesses.POST("", handler.CreateBusiness)
	businesses.GET("/search", handler.SearchBusinesses)
	businesses.POST("/bulk-delete", handler.BulkDeleteBusinesses)
	businesses.GET("/:id", handler.GetBusiness)
	businesses.PUT("/:id", handler.UpdateBusiness)
	businesses.DELETE("/:id", handler.DeleteBusiness)
	businesses.POST("/:id/convert", handler.ConvertToCustomer)

	// Tickets
	tickets := e.Group("/tickets")
	tickets.Use(authMW)
	tickets.GET("", handler.ListTickets)
	tickets.POST("", handler.CreateTicket)
	tickets.GET("/my", handler.ListMyTickets)
	tickets.GET("/stats/distribution", handler.TicketDistribution)
	tickets.GET("/stats/support", handler.SupportStats)
	tickets.POST("/bulk-delete", handler.BulkDeleteTickets)
	tickets.GET("/:id", handler.GetTicket)
	tickets.PUT("/:id", handler.UpdateTicket)
	tickets.DELETE("/:id", handler.DeleteTicket)
	tickets.POST("/:id/assign", handler.AssignTicket)
	tickets.PUT("/:id/status", handler.UpdateTicketStatus)
	tickets.POST("/:id/comments", handler.AddTicketComment)

	// Agents
	agents := e.Group("/agents")
	agents.Use(authMW)
	agents.GET("", handler.ListAgents)
	agents.POST("", handler.CreateAgent)
	agents.GET("/capabilities", handler.AgentCapabilityList)
	agents.GET("/:id", handler.GetAgent)
	agents.PUT("/:id", handler.UpdateAgent)
	agents.DELETE("/:id", handler.DeleteAgent)
	agents.PUT("/:id/status", handler.UpdateAgentStatus)
	agents.GET("/:id/performance", handler.AgentPerformance)

	// Agent tasks
	tasks := e.Group("/tasks")
	tasks.Use(authMW)
	tasks.GET("", handler.ListTasks)
	tasks.POST("", handler.CreateTask)
	tasks.GET("/stats", handler.TaskStats)
	tasks.POST("/bulk-delete", handler.BulkDeleteTasks)
	tasks.GET("/:id", handler.GetTask)
	tasks.DELETE("/:id", handler.DeleteTask)
	tasks.PUT("/:id/status", handler.UpdateTaskStatus)
	tasks.POST("/:id/start", handler.StartTask)
	tasks.POST("/:id/pause", handler.PauseTask)
	tasks.POST("/:id/complete", handler.CompleteTask)
	tasks.POST("/:id/cancel", handler.CancelTask)
	tasks.POST("/:id/executions", handler.StartTaskExecution)

	executions := e.Group("/executions")
	executions.Use(authMW)
	executions.PUT("/:id", handler.FinishTaskExecution)

	// Email provider
	mail := e.Group("/mail")
	mail.Use(authMW)
	mail.POST("/connect", handler.ConnectMail)
	mail.GET("/status", handler.MailStatus)
	mail.DELETE("/disconnect", handler.DisconnectMail)

	// Automation workflows
	workflows := e.Group("/workflows")
	workflows.Use(authMW)
	workflows.GET("", handler.ListWorkflows)
	workflows.POST("", handler.CreateWorkflow)
	workflows.GET("/stats", handler.WorkflowStats)
	workflows.GET("/:id", handler.GetWorkflow)
	workflows.DELETE("/:id", handler.DeleteWorkflow)
	workflows.POST("/:id/execute", handler.ExecuteWorkflow)
	workflows.GET("/:id/executions", handler.ListWorkflowExecutions)

	// Start server
	log.Info("Starting agentceo platform on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
