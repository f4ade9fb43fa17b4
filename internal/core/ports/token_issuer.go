package ports

import "github.com/crmhub/accounts-api/internal/pkg/token"

// TokenIssuer mints bearer tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(sub token.Subject) (string, error)
}

// TokenVerifier decodes bearer tokens presented on protected routes.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}
