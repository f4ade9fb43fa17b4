package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

// errNotLoggedIn is returned when RBAC runs without an authenticated role.
var errNotLoggedIn = echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. Please log in.")

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := roleSet(allowedRoles)
	denied := domain.ErrForbidden
	if _, ok := allowed[domain.RoleAdmin]; ok && len(allowed) == 1 {
		denied = domain.ErrNotAdmin
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			if role == "" {
				return errNotLoggedIn
			}
			if _, ok := allowed[role]; !ok {
				return denied
			}
			return next(c)
		}
	}
}

// Guard composes Auth and RBAC into a single middleware.
func Guard(verifier ports.TokenVerifier, allowedRoles ...string) echo.MiddlewareFunc {
	auth := Auth(verifier)
	rbac := RBAC(allowedRoles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return auth(rbac(next))
	}
}

// SelfOrRole lets a request through when the token subject owns the target
// account, read from the path parameter param and then the query string, or
// when the caller holds one of allowedRoles. It must run after Auth.
func SelfOrRole(param string, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := roleSet(allowedRoles)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(RoleKey).(string)
			subject, _ := c.Get(AccountIDKey).(string)
			if role == "" || subject == "" {
				return errNotLoggedIn
			}
			if _, ok := allowed[role]; ok {
				return next(c)
			}

			target := c.Param(param)
			if target == "" {
				target = c.QueryParam(param)
			}
			if target != subject {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

func roleSet(roles []string) map[string]struct{} {
	m := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		m[r] = struct{}{}
	}
	return m
}
