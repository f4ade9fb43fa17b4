package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/pkg/token"
)

// callerID returns the account id of the authenticated caller, or "" on a
// public route.
func callerID(c echo.Context) string {
	claims, ok := token.FromContext(c.Request().Context())
	if !ok {
		return ""
	}
	return claims.AccountID
}

// requireCaller fails with ErrUnauthorized when no claims were attached.
func requireCaller(c echo.Context) (*token.Claims, error) {
	claims, ok := token.FromContext(c.Request().Context())
	if !ok || claims.AccountID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
