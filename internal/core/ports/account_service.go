package ports

import (
	"context"

	"github.com/crmhub/accounts-api/internal/core/domain"
)

// RegisterInput carries a registration request. Strings are trimmed by the service.
type RegisterInput struct {
	Kind            domain.Kind
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginInput carries a login request.
type LoginInput struct {
	Kind     domain.Kind
	Email    string
	Password string
}

// UpdateProfileInput carries the optional fields of a profile update. Empty
// values mean "leave unchanged".
type UpdateProfileInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	ActorID         string
}

// AdminUpdateInput is the admin-only partial update of an admin record.
type AdminUpdateInput struct {
	Name     string
	Email    string
	Password string
	ActorID  string
}

// AuthResult is returned on successful registration or login.
type AuthResult struct {
	Account *domain.Account
	Token   string
}

// AccountService defines the account use cases.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	UpdateProfile(ctx context.Context, kind domain.Kind, id string, in UpdateProfileInput) (*domain.Account, error)
	AdminUpdate(ctx context.Context, id string, in AdminUpdateInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, kind domain.Kind) ([]*domain.Account, error)
	GetAccount(ctx context.Context, kind domain.Kind, id string) (*domain.Account, error)
	SoftDeleteUser(ctx context.Context, id, actorID string) (*domain.Account, error)
}
