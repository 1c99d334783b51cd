package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lakeview-records-api/internal/middleware"
	"github.com/noah-isme/lakeview-records-api/internal/models"
	"github.com/noah-isme/lakeview-records-api/internal/repository"
	"github.com/noah-isme/lakeview-records-api/internal/service"
	"github.com/noah-isme/lakeview-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lakeview-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lakeview-records-api/pkg/middleware/requestid"
)

// RouterConfig collects everything the HTTP surface needs.
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	EnableDocs     bool

	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	UserRepo       *repository.UserRepository

	Auth          *AuthHandler
	Sessions      *SessionHandler
	Levels        *LevelHandler
	Courses       *CourseHandler
	Students      *StudentHandler
	Results       *ResultHandler
	Registrations *RegistrationHandler
	Eligibility   *EligibilityHandler
	Advancement   *AdvancementHandler
	Metrics       *MetricsHandler
}

// NewRouter assembles the gin engine with middleware and all routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	if cfg.Logger != nil {
		r.Use(logger.GinMiddleware(cfg.Logger))
	}
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.MetricsService))

	r.GET("/health", cfg.Metrics.Health)
	r.GET("/ready", cfg.Metrics.Health)
	r.GET("/metrics", cfg.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/login", cfg.Auth.Login)
		auth.POST("/refresh", cfg.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(cfg.AuthService))
	{
		protected.POST("/auth/logout", cfg.Auth.Logout)
		protected.POST("/auth/change-password", cfg.Auth.ChangePassword)
		protected.GET("/auth/me", cfg.Auth.Me)

		sessions := protected.Group("/sessions")
		{
			sessions.GET("", cfg.Sessions.List)
			sessions.GET("/active", cfg.Sessions.Active)
			sessions.GET("/:id", cfg.Sessions.Get)
			sessions.POST("", middleware.RequireRoles(models.RoleAdmin), cfg.Sessions.Create)
			sessions.POST("/:id/activate",
				middleware.RequireRoles(models.RoleAdmin),
				middleware.Audit(cfg.UserRepo, models.AuditActionSessionActivate, "sessions"),
				cfg.Sessions.Activate)
		}

		levels := protected.Group("/levels")
		{
			levels.GET("", cfg.Levels.List)
			levels.POST("", middleware.RequireRoles(models.RoleAdmin), cfg.Levels.Create)
		}

		courses := protected.Group("/courses")
		{
			courses.GET("", cfg.Courses.List)
			courses.GET("/:id", cfg.Courses.Get)
			courses.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), cfg.Courses.Create)
			courses.POST("/:id/offerings", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), cfg.Courses.CreateOffering)
			courses.GET("/:id/results",
				middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleExamOfficer),
				cfg.Results.CourseResults)
			courses.GET("/:id/results/export",
				middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleExamOfficer),
				cfg.Results.ExportCSV)
		}

		results := protected.Group("/results")
		results.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleExamOfficer))
		{
			results.POST("",
				middleware.Audit(cfg.UserRepo, models.AuditActionResultUpload, "results"),
				cfg.Results.Upload)
			results.POST("/bulk",
				middleware.Audit(cfg.UserRepo, models.AuditActionResultUpload, "results"),
				cfg.Results.Bulk)
			results.POST("/finalize",
				middleware.Audit(cfg.UserRepo, models.AuditActionSemesterFinalize, "results"),
				cfg.Results.Finalize)
		}

		students := protected.Group("/students")
		students.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleExamOfficer))
		{
			students.GET("", cfg.Students.List)
			students.GET("/:id", cfg.Students.Get)
			students.GET("/:id/transcript", cfg.Students.Transcript)
			students.GET("/:id/eligible-courses", cfg.Eligibility.StudentEligibleCourses)
			students.GET("/:id/registrations", cfg.Registrations.StudentRegistrations)
			students.POST("/:id/registrations",
				middleware.RequireRoles(models.RoleAdmin, models.RoleStaff),
				middleware.Audit(cfg.UserRepo, models.AuditActionRegistration, "registrations"),
				cfg.Registrations.RegisterFor)
		}

		me := protected.Group("/me")
		me.Use(middleware.RequireRoles(models.RoleStudent))
		{
			me.GET("/profile", cfg.Students.MyProfile)
			me.GET("/transcript", cfg.Students.MyTranscript)
			me.GET("/eligible-courses", cfg.Eligibility.MyEligibleCourses)
			me.GET("/registrations", cfg.Registrations.MyRegistrations)
			me.POST("/registrations",
				middleware.Audit(cfg.UserRepo, models.AuditActionRegistration, "registrations"),
				cfg.Registrations.Register)
		}

		protected.POST("/advancement",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(cfg.UserRepo, models.AuditActionSessionAdvance, "advancement"),
			cfg.Advancement.Advance)

		protected.GET("/admin/metrics", middleware.RequireRoles(models.RoleAdmin), cfg.Metrics.Snapshot)
	}

	return r
}
