package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crmhub/accounts-api/internal/core/domain"
)

const weakPasswordMessage = "Password must be at least 8 characters, include uppercase, lowercase, number, and special character"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and client messages, and logs anything unexpected without
// leaking it to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	if errors.Is(err, echo.ErrNotFound) {
		return http.StatusNotFound, "Route not found: " + c.Request().URL.Path
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
			return he.Code, "Internal server error"
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	kind := domain.KindOf(err)

	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "All fields are required"
	case errors.Is(err, domain.ErrMissingCredentials):
		return http.StatusBadRequest, "Email and password are required"
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email format"
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, weakPasswordMessage
	case errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must not exceed 72 bytes"
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match"
	case errors.Is(err, domain.ErrEmailInUse):
		return http.StatusBadRequest, "Email already in use"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "Invalid id format"
	case errors.Is(err, domain.ErrInvalidCredentials):
		// Users have always received 400 here and admins 401.
		if kind == domain.KindAdmin {
			return http.StatusUnauthorized, "Invalid email or password"
		}
		return http.StatusBadRequest, "Invalid email or password"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many failed login attempts. Try again later."
	case errors.Is(err, domain.ErrAccountExists):
		if kind == domain.KindAdmin {
			return http.StatusConflict, "Admin already registered with this email."
		}
		return http.StatusConflict, "User already exists with this email."
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, kind.Label() + " not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized. No token provided."
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden, "You are not admin"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access forbidden"
	}

	logUnexpected(log, c, err)
	return http.StatusInternalServerError, "Internal server error"
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
