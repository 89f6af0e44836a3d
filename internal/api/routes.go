package api

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/axellelanca/shortlink/internal/auth"
	"github.com/axellelanca/shortlink/internal/config"
	"github.com/axellelanca/shortlink/internal/models"
	"github.com/axellelanca/shortlink/internal/ratelimit"
	"github.com/axellelanca/shortlink/internal/services"
)

// ClickRecorder accepts click details for asynchronous persistence.
type ClickRecorder interface {
	Enqueue(event models.ClickEvent) bool
}

// Dependencies is everything the HTTP layer needs. Limiter and Clicks may be nil.
type Dependencies struct {
	Config  *config.Config
	Links   *services.LinkService
	Auth    *services.AuthService
	Tokens  *auth.TokenIssuer
	Limiter ratelimit.Limiter
	Clicks  ClickRecorder
	DBPing  func(ctx context.Context) error
	Log     *slog.Logger
	Started time.Time
}

var registerTagNameOnce sync.Once

// useJSONFieldNames makes binding errors report "origUrl" rather than "OrigURL".
func useJSONFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// SetupRoutes configures all Gin API routes and injects the dependencies.
func SetupRoutes(router *gin.Engine, d Dependencies) {
	useJSONFieldNames()
	if d.Started.IsZero() {
		d.Started = time.Now()
	}

	authRequired := AuthMiddleware(d.Tokens)
	limited := RateLimitMiddleware(d.Limiter, d.Log)

	router.GET("/health", HealthCheckHandler(d.DBPing, d.Started))

	authGroup := router.Group("/auth", limited)
	{
		authGroup.POST("/register", RegisterHandler(d.Auth, d.Log))
		authGroup.POST("/login", LoginHandler(d.Auth, d.Log))
		authGroup.POST("/logout", authRequired, LogoutHandler(d.Auth, d.Log))
	}

	urlGroup := router.Group("/url", limited)
	{
		urlGroup.POST("/shorten", authRequired, CreateShortLinkHandler(d.Links, d.Log))
		urlGroup.GET("/my-urls", authRequired, ListMyLinksHandler(d.Links, d.Log))
		if d.Config.Auth.ProtectStats {
			urlGroup.GET("/stats/:code", authRequired, GetLinkStatsHandler(d.Links, d.Log))
		} else {
			urlGroup.GET("/stats/:code", GetLinkStatsHandler(d.Links, d.Log))
		}
	}

	router.GET("/:code", RedirectHandler(d.Links, d.Clicks, d.Config.Server.RedirectMode, d.Log))
}
