package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wisekey/langcenter/internal/config"
	"github.com/wisekey/langcenter/internal/handler"
	"github.com/wisekey/langcenter/internal/middleware"
	"github.com/wisekey/langcenter/internal/model"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/service"
	"github.com/wisekey/langcenter/internal/token"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Course     *handler.CourseHandler
	Class      *handler.ClassHandler
	User       *handler.UserHandler
	Enrollment *handler.EnrollmentHandler
	Grade      *handler.GradeHandler
	Attendance *handler.AttendanceHandler
	Dashboard  *handler.DashboardHandler
}

// NewHandlers builds every handler over svc.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:       handler.NewAuthHandler(svc.Auth),
		Course:     handler.NewCourseHandler(svc.Courses),
		Class:      handler.NewClassHandler(svc.Classes),
		User:       handler.NewUserHandler(svc.Users),
		Enrollment: handler.NewEnrollmentHandler(svc.Enrollments),
		Grade:      handler.NewGradeHandler(svc.Grades),
		Attendance: handler.NewAttendanceHandler(svc.Attendance),
		Dashboard:  handler.NewDashboardHandler(svc.Dashboard),
	}
}

var (
	adminOnly    = model.Roles(model.RoleAdmin)
	adminTeacher = model.Roles(model.RoleAdmin, model.RoleTeacher)
)

// Auth routes allow authRateLimit requests per minute per IP.
const authRateLimit = 30

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background work such as the rate limiter sweep.
func SetupRouter(
	ctx context.Context,
	issuer *token.Issuer,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	api := router.Group("/api")
	api.Use(middleware.NoStore())

	// ─── 1. Auth (Public, Rate Limited) ────────────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, authRateLimit, time.Minute)
	auth := api.Group("/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)
	}

	// Everything below needs a valid token. Services apply the row-level
	// rules (own records, class teacher).
	secured := api.Group("")
	secured.Use(middleware.RequireAuth(issuer))

	// ─── 2. Courses ────────────────────────────────────────────────────
	courses := secured.Group("/courses")
	{
		courses.GET("", handlers.Course.List)
		courses.GET("/active", handlers.Course.ListActive)
		courses.GET("/search", handlers.Course.Search)
		courses.GET("/:id", handlers.Course.Get)
		courses.POST("", middleware.RequireRole(adminOnly), handlers.Course.Create)
		courses.PUT("/:id", middleware.RequireRole(adminOnly), handlers.Course.Update)
		courses.DELETE("/:id", middleware.RequireRole(adminOnly), handlers.Course.Delete)
	}

	// ─── 3. Classes ────────────────────────────────────────────────────
	classes := secured.Group("/classes")
	{
		classes.GET("", handlers.Class.List)
		classes.GET("/available", handlers.Class.ListAvailable)
		classes.GET("/course/:id", handlers.Class.ListByCourse)
		classes.GET("/teacher/:id", handlers.Class.ListByTeacher)
		classes.GET("/:id", handlers.Class.Get)
		classes.GET("/:id/students", middleware.RequireRole(adminTeacher), handlers.Class.Students)
		classes.POST("", middleware.RequireRole(adminOnly), handlers.Class.Create)
		classes.PUT("/:id", middleware.RequireRole(adminOnly), handlers.Class.Update)
		classes.DELETE("/:id", middleware.RequireRole(adminOnly), handlers.Class.Delete)
		classes.PUT("/:id/teacher", middleware.RequireRole(adminOnly), handlers.Class.AssignTeacher)
		classes.PUT("/:id/status", middleware.RequireRole(adminOnly), handlers.Class.SetStatus)
	}

	// ─── 4. Users ──────────────────────────────────────────────────────
	users := secured.Group("/users")
	{
		// Own account.
		users.GET("/profile", handlers.User.Profile)
		users.PUT("/profile", handlers.User.UpdateProfile)
		users.PUT("/change-password", handlers.User.ChangePassword)

		users.GET("", middleware.RequireRole(adminTeacher), handlers.User.List)
		users.GET("/role/:role", middleware.RequireRole(adminTeacher), handlers.User.ListByRole)
		users.GET("/search", middleware.RequireRole(adminTeacher), handlers.User.Search)
		users.GET("/:id", handlers.User.Get)
		users.POST("", middleware.RequireRole(adminOnly), handlers.User.Create)
		users.PUT("/:id", middleware.RequireRole(adminOnly), handlers.User.Update)
		users.DELETE("/:id", middleware.RequireRole(adminOnly), handlers.User.Delete)
		users.PUT("/:id/activate", middleware.RequireRole(adminOnly), handlers.User.Activate)
		users.PUT("/:id/deactivate", middleware.RequireRole(adminOnly), handlers.User.Deactivate)
		users.PUT("/:id/reset-password", middleware.RequireRole(adminOnly), handlers.User.ResetPassword)
	}

	// ─── 5. Enrollments ────────────────────────────────────────────────
	enrollments := secured.Group("/enrollments")
	{
		enrollments.GET("", middleware.RequireRole(adminTeacher), handlers.Enrollment.List)
		enrollments.GET("/check", handlers.Enrollment.Check)
		enrollments.GET("/student/:id", handlers.Enrollment.ListByStudent)
		enrollments.GET("/class/:id", middleware.RequireRole(adminTeacher), handlers.Enrollment.ListByClass)
		enrollments.GET("/:id", handlers.Enrollment.Get)
		enrollments.POST("", handlers.Enrollment.Create)
		enrollments.PUT("/:id", middleware.RequireRole(adminOnly), handlers.Enrollment.Update)
		enrollments.DELETE("/:id", handlers.Enrollment.Delete)
	}

	// ─── 6. Grades ─────────────────────────────────────────────────────
	grades := secured.Group("/grades")
	{
		grades.GET("", middleware.RequireRole(adminTeacher), handlers.Grade.List)
		grades.GET("/class/:id", middleware.RequireRole(adminTeacher), handlers.Grade.ListByClass)
		grades.GET("/student/:id", handlers.Grade.ListByStudent)
		grades.GET("/student/:id/class/:classId", handlers.Grade.ForStudentInClass)
		grades.GET("/:id", handlers.Grade.Get)
		grades.POST("", middleware.RequireRole(adminTeacher), handlers.Grade.Create)
		grades.PUT("/:id", middleware.RequireRole(adminTeacher), handlers.Grade.Update)
		grades.DELETE("/:id", middleware.RequireRole(adminTeacher), handlers.Grade.Delete)
	}

	// ─── 7. Attendance ─────────────────────────────────────────────────
	attendance := secured.Group("/attendance")
	{
		attendance.GET("", middleware.RequireRole(adminTeacher), handlers.Attendance.List)
		attendance.GET("/summary", handlers.Attendance.Summary)
		attendance.GET("/class/:id", middleware.RequireRole(adminTeacher), handlers.Attendance.ListByClass)
		attendance.GET("/class/:id/date/:date", middleware.RequireRole(adminTeacher), handlers.Attendance.ListByDate)
		attendance.GET("/student/:id", handlers.Attendance.ListByStudent)
		attendance.GET("/:id", handlers.Attendance.Get)
		attendance.POST("", middleware.RequireRole(adminTeacher), handlers.Attendance.Create)
		attendance.PUT("/:id", middleware.RequireRole(adminTeacher), handlers.Attendance.Update)
		attendance.DELETE("/:id", middleware.RequireRole(adminTeacher), handlers.Attendance.Delete)
	}

	// ─── 8. Dashboards ─────────────────────────────────────────────────
	dashboard := secured.Group("/dashboard")
	{
		dashboard.GET("/admin", middleware.RequireRole(adminOnly), handlers.Dashboard.Admin)
		dashboard.GET("/teacher/:id", middleware.RequireRole(adminTeacher), handlers.Dashboard.Teacher)
		dashboard.GET("/student/:id", handlers.Dashboard.Student)
	}

	return router
}
