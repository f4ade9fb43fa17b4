package ports

import (
	"context"

	"github.com/crmhub/accounts-api/internal/core/domain"
)

// LoginLimiter throttles repeated failed logins for one email.
type LoginLimiter interface {
	Locked(ctx context.Context, kind domain.Kind, email string) (bool, error)
	Fail(ctx context.Context, kind domain.Kind, email string) error
	Reset(ctx context.Context, kind domain.Kind, email string) error
}
