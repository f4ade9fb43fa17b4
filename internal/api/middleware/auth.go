package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
	"github.com/crmhub/accounts-api/internal/pkg/token"
)

// Echo context keys set by Auth.
const (
	ClaimsKey    = "claims"
	AccountIDKey = "account_id"
	RoleKey      = "role"
)

// Auth validates the bearer token and injects its claims into both the echo
// context and the request's context.Context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if header == "" {
				return domain.ErrUnauthorized
			}
			raw, ok := bearerToken(header)
			if !ok {
				return domain.ErrInvalidToken
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				return domain.ErrInvalidToken
			}

			c.Set(ClaimsKey, claims)
			c.Set(AccountIDKey, claims.AccountID)
			c.Set(RoleKey, claims.Role)

			req := c.Request()
			c.SetRequest(req.WithContext(token.NewContext(req.Context(), claims)))

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
