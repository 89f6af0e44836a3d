package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/axellelanca/shortlink/internal/config"
	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/models"
	"github.com/axellelanca/shortlink/internal/services"
)

const healthPingTimeout = 2 * time.Second

// HealthCheckHandler reports storage reachability and uptime.
func HealthCheckHandler(ping func(ctx context.Context) error, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()

		uptime := int64(time.Since(started).Seconds())
		if ping == nil || ping(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "dbConnected": false, "uptimeSeconds": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP", "dbConnected": true, "uptimeSeconds": uptime})
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterHandler creates an account.
func RegisterHandler(authService *services.AuthService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, log, bindingError(err))
			return
		}

		user, err := authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				abortWithError(c, http.StatusBadRequest, "Username or email already exists")
				return
			}
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"status":   "success",
			"message":  "User registered successfully",
			"username": user.Username,
		})
	}
}

// LoginHandler exchanges credentials for a bearer token.
func LoginHandler(authService *services.AuthService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, log, bindingError(err))
			return
		}

		token, expiresAt, err := authService.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expiresAt.UTC()})
	}
}

// LogoutHandler revokes the token the request was authenticated with.
func LogoutHandler(authService *services.AuthService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		expiry, _ := c.Get(ctxTokenExpiry)
		expiresAt, _ := expiry.(time.Time)

		if err := authService.Logout(c.Request.Context(), c.GetString(ctxUsername), c.GetString(ctxToken), expiresAt); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Logged out successfully"})
	}
}

// CreateLinkRequest is the body of POST /url/shorten.
type CreateLinkRequest struct {
	OrigURL    string `json:"origUrl" binding:"required"`
	CustomSlug string `json:"customSlug"`
}

// LinkResponse is the public view of a link.
type LinkResponse struct {
	Code        string    `json:"code"`
	Destination string    `json:"destination"`
	ShortURL    string    `json:"shortUrl"`
	CustomSlug  *string   `json:"customSlug,omitempty"`
	Owner       string    `json:"owner"`
	Clicks      int64     `json:"clicks"`
	QRCode      string    `json:"qrCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newLinkResponse(linkService *services.LinkService, link *models.Link) LinkResponse {
	return LinkResponse{
		Code:        link.Code,
		Destination: link.DestinationURL,
		ShortURL:    linkService.ShortURL(link.Code),
		CustomSlug:  link.CustomSlug,
		Owner:       link.OwnerUsername,
		Clicks:      link.ClickCount,
		QRCode:      link.QRCode,
		CreatedAt:   link.CreatedAt,
	}
}

// CreateShortLinkHandler shortens a URL for the authenticated user.
func CreateShortLinkHandler(linkService *services.LinkService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, log, bindingError(err))
			return
		}

		link, err := linkService.Shorten(c.Request.Context(), c.GetString(ctxUsername), req.OrigURL, req.CustomSlug)
		if err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				abortWithError(c, http.StatusBadRequest, "Custom slug already taken")
				return
			}
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, newLinkResponse(linkService, link))
	}
}

// ListMyLinksHandler returns the caller's links, oldest first.
func ListMyLinksHandler(linkService *services.LinkService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		links, err := linkService.ListByOwner(c.Request.Context(), c.GetString(ctxUsername))
		if err != nil {
			respondError(c, log, err)
			return
		}

		out := make([]LinkResponse, 0, len(links))
		for i := range links {
			out = append(out, newLinkResponse(linkService, &links[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// GetLinkStatsHandler shows a link's counters without counting a click.
func GetLinkStatsHandler(linkService *services.LinkService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := linkService.Stats(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"code":        link.Code,
			"destination": link.DestinationURL,
			"clicks":      link.ClickCount,
			"createdAt":   link.CreatedAt,
			"qrCode":      link.QRCode,
		})
	}
}

// RedirectHandler resolves a code, counts the click and either redirects or answers
// with JSON depending on mode. Click details are queued without blocking the response.
func RedirectHandler(linkService *services.LinkService, clicks ClickRecorder, mode string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := linkService.Resolve(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, log, err)
			return
		}

		if clicks != nil {
			clicks.Enqueue(models.ClickEvent{
				LinkID:    link.ID,
				Timestamp: time.Now(),
				UserAgent: c.GetHeader("User-Agent"),
				Referrer:  c.GetHeader("Referer"),
				IPHash:    hashIP(c.ClientIP()),
			})
		}

		if mode == config.RedirectModeJSON {
			c.JSON(http.StatusOK, gin.H{"destination": link.DestinationURL, "clicks": link.ClickCount})
			return
		}
		c.Redirect(http.StatusFound, link.DestinationURL)
	}
}

func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
