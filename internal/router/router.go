package router

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/arzan03/devcamper/internal/auth"
	"github.com/arzan03/devcamper/internal/config"
	"github.com/arzan03/devcamper/internal/handlers"
	"github.com/arzan03/devcamper/internal/middleware"
	"github.com/arzan03/devcamper/internal/models"
	"github.com/arzan03/devcamper/internal/services"
)

const minBodyLimit = 4 * 1024 * 1024

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config        config.Config
	Logger        *zerolog.Logger
	Authenticator *auth.JWTAuthenticator

	Auth      services.AuthService
	Bootcamps services.BootcampService
	Courses   services.CourseService
	Reviews   services.ReviewService
	Users     services.UserService

	// Health lists the dependencies reported by /health.
	Health            map[string]handlers.Pinger
	AggregateFailures func() uint64
	PhotoURL          func(name string) string
}

// New builds the application with its middleware stack and routes.
func New(d Deps) *fiber.App {
	// The photo size check belongs to the service, so the framework limit
	// stays above it.
	bodyLimit := max(int(d.Config.Upload.MaxFileSize)*2, minBodyLimit)

	app := fiber.New(fiber.Config{
		AppName:      "DevCamper API",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: handlers.ErrorHandler(d.Logger),
		BodyLimit:    bodyLimit,
	})

	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{AllowOrigins: d.Config.HTTP.AllowedOrigins}))
	app.Use(limiter.New(limiter.Config{
		Max:        d.Config.HTTP.RateLimit,
		Expiration: d.Config.HTTP.RateWindow,
	}))

	failures := d.AggregateFailures
	if failures == nil {
		failures = func() uint64 { return 0 }
	}
	health := handlers.NewHealthHandler(d.Health, failures)
	app.Get("/health", health.Health)

	api := app.Group("/api/v1")
	protect := middleware.Protect(d.Authenticator, d.Auth)
	publisher := middleware.Authorize(models.RolePublisher, models.RoleAdmin)
	admin := middleware.Authorize(models.RoleAdmin)

	authHandler := handlers.NewAuthHandler(d.Auth, d.Config)
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/logout", authHandler.Logout)
	authRoutes.Get("/me", protect, authHandler.Me)
	authRoutes.Put("/updatedetails", protect, authHandler.UpdateDetails)
	authRoutes.Put("/password", protect, authHandler.UpdatePassword)
	authRoutes.Put("/updatepassword", protect, authHandler.UpdatePassword)
	authRoutes.Post("/forgotpassword", authHandler.ForgotPassword)
	authRoutes.Put("/resetpassword/:token", authHandler.ResetPassword)

	bootcampHandler := handlers.NewBootcampHandler(d.Bootcamps, d.PhotoURL)
	courseHandler := handlers.NewCourseHandler(d.Courses)
	reviewHandler := handlers.NewReviewHandler(d.Reviews)

	bootcamps := api.Group("/bootcamps")
	bootcamps.Get("/radius/:zipcode/:distance", bootcampHandler.WithinRadius)
	bootcamps.Get("/", bootcampHandler.List)
	bootcamps.Post("/", protect, publisher, bootcampHandler.Create)
	bootcamps.Get("/:id", bootcampHandler.Get)
	bootcamps.Put("/:id", protect, publisher, bootcampHandler.Update)
	bootcamps.Delete("/:id", protect, publisher, bootcampHandler.Delete)
	bootcamps.Put("/:id/photo", protect, publisher, bootcampHandler.UploadPhoto)
	bootcamps.Get("/:bootcampId/courses", courseHandler.List)
	bootcamps.Post("/:bootcampId/courses", protect, publisher, courseHandler.Create)
	bootcamps.Get("/:bootcampId/reviews", reviewHandler.List)
	bootcamps.Post("/:bootcampId/reviews", protect, reviewHandler.Create)

	courses := api.Group("/courses")
	courses.Get("/", courseHandler.List)
	courses.Post("/", protect, publisher, courseHandler.Create)
	courses.Get("/:id", courseHandler.Get)
	courses.Put("/:id", protect, publisher, courseHandler.Update)
	courses.Delete("/:id", protect, publisher, courseHandler.Delete)

	reviews := api.Group("/reviews")
	reviews.Get("/", reviewHandler.List)
	reviews.Post("/", protect, reviewHandler.Create)
	reviews.Get("/:id", reviewHandler.Get)
	reviews.Put("/:id", protect, reviewHandler.Update)
	reviews.Delete("/:id", protect, reviewHandler.Delete)

	adminHandler := handlers.NewAdminHandler(d.Users)
	users := api.Group("/users", protect, admin)
	users.Get("/", adminHandler.ListUsers)
	users.Post("/", adminHandler.CreateUser)
	users.Get("/:id", adminHandler.GetUser)
	users.Put("/:id", adminHandler.UpdateUser)
	users.Delete("/:id", adminHandler.DeleteUser)

	return app
}
