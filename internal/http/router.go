package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/http/handlers"
	"github.com/geocoder89/clubhub/internal/http/middlewares"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	maxBodyBytes   = 64 << 10
	adminRateLimit = 120 // per reviewer, per minute
)

// Deps is everything the router needs.  Prom, Metrics and Ping are optional.
type Deps struct {
	Env            string
	ServiceName    string
	AllowedOrigins []string

	Log     *slog.Logger
	Prom    *observability.Prom
	Metrics http.Handler
	Ping    func(ctx context.Context) error

	Registrar handlers.Registrar
	Forms     handlers.FormReader
	Reviews   handlers.RegistrationReviewer
	Users     handlers.UserReader
	JWT       *auth.Manager
	Catalog   handlers.Catalog

	RegisterRateLimit  int
	RegisterRateWindow time.Duration
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.ServiceName == "" {
		d.ServiceName = "clubhub-api"
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.Register(v); err != nil {
			d.Log.Error("register binding rules", "err", err)
		}
	}

	r := gin.New()

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders(d.Env))
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metrics))

	limit, window := d.RegisterRateLimit, d.RegisterRateWindow
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	forms := handlers.NewFormsHandler(d.Forms)
	r.GET("/forms", forms.ListForms)
	r.GET("/forms/:formId", forms.GetForm)

	registerLimiter := middlewares.NewRateLimiter(limit, window).OnLimited(handlers.SubmissionRateLimited)
	registrations := handlers.NewRegistrationHandler(d.Registrar)
	r.POST("/forms/:formId/register",
		registerLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		registrations.Register,
	)

	if d.Catalog != nil {
		content := handlers.NewContentHandler(d.Catalog)
		r.GET("/events", content.ListEvents)
		r.GET("/blogs", content.ListBlogs)
	}

	if d.JWT != nil && d.Users != nil {
		loginLimiter := middlewares.NewRateLimiter(limit, window)
		authHandler := handlers.NewAuthHandler(d.Users, d.JWT)
		r.POST("/admin/login",
			loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
			authHandler.Login,
		)

		if d.Reviews != nil {
			authMW := middlewares.NewAuthMiddleware(d.JWT)
			admin := handlers.NewAdminHandler(d.Reviews, d.Forms, d.Log)

			adminLimiter := middlewares.NewRateLimiter(adminRateLimit, time.Minute)

			g := r.Group("/admin",
				authMW.RequireAuth(),
				authMW.RequireAnyRole(user.RoleAdmin, user.RoleReviewer),
				adminLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
			)
			g.GET("/forms/:formId/registrations", admin.ListRegistrations)
			g.PATCH("/forms/:formId/registrations/:id/round", admin.AdvanceRound)
		}
	}

	return r
}
