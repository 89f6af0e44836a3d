package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/axellelanca/shortlink/internal/errors"
	"github.com/axellelanca/shortlink/internal/logging"
)

const serverErrorMessage = "Server Error"

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// respondError maps err onto a status code and the error body. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		fields := apperrors.Fields(err)
		log.Warn("Validation failed",
			"event", logging.EventValidationError,
			"path", c.Request.URL.Path,
			"fields", fields)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Validation failed",
			"errors":  fields,
		})
	case errors.Is(err, apperrors.ErrDuplicate):
		abortWithError(c, http.StatusBadRequest, "Resource already exists")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, apperrors.ErrAuthentication):
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, apperrors.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Short URL not found")
	case errors.Is(err, apperrors.ErrRateLimited):
		abortWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
	case errors.Is(err, apperrors.ErrShortCodeGenerationFailed):
		abortWithError(c, http.StatusServiceUnavailable, "Unable to generate unique short code. Please try again later.")
	default:
		log.Error("Unhandled error",
			"event", logging.EventUnhandledError,
			"error", err,
			"endpoint", c.Request.URL.Path,
			"method", c.Request.Method,
			"username", c.GetString(ctxUsername))
		abortWithError(c, http.StatusInternalServerError, serverErrorMessage)
	}
}

// bindingError turns a gin binding failure into a validation error with per-field detail.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("body", "Invalid request body")
	}
	out := make(apperrors.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		msg := "Invalid value"
		switch fe.Tag() {
		case "required":
			msg = "This field is required"
		case "email":
			msg = "Must be a valid email address"
		case "max":
			msg = "Value is too long"
		}
		out = append(out, apperrors.ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}
