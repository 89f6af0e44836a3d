package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortlink/internal/auth"
	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/logging"
	"github.com/axellelanca/shortlink/internal/ratelimit"
)

// Context keys set by AuthMiddleware.
const (
	ctxUsername    = "username"
	ctxToken       = "token"
	ctxTokenExpiry = "tokenExpiry"
)

// AuthMiddleware requires a valid, unrevoked bearer token.
func AuthMiddleware(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenRevoked):
				abortWithError(c, http.StatusUnauthorized, "Token has been invalidated")
			case errors.Is(err, apperrors.ErrAuthentication):
				abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			default:
				_ = c.Error(err)
				abortWithError(c, http.StatusInternalServerError, serverErrorMessage)
			}
			return
		}

		c.Set(ctxUsername, claims.Username)
		c.Set(ctxToken, token)
		c.Set(ctxTokenExpiry, claims.ExpiresAt.Time)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RateLimitMiddleware limits requests per client IP. A nil limiter disables it;
// limiter errors let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Error("rate limiter unavailable, allowing request", "error", err, "client_ip", ip)
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			log.Warn("Rate limit exceeded",
				"event", logging.EventRateLimitExceeded,
				"client_ip", ip,
				"path", c.Request.URL.Path,
				"retry_after", (time.Duration(seconds) * time.Second).String())
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":     "error",
				"message":    "Too many requests, please try again later",
				"retryAfter": seconds,
			})
			return
		}
		c.Next()
	}
}
