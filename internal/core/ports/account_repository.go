package ports

import (
	"context"

	"github.com/crmhub/accounts-api/internal/core/domain"
)

// AccountPatch lists the fields to overwrite on an account. Empty strings are
// left untouched; PasswordHash must already be hashed.
type AccountPatch struct {
	Name         string
	Email        string
	PasswordHash string
}

// Fields returns the names of the fields the patch sets.
func (p AccountPatch) Fields() []string {
	var f []string
	if p.Name != "" {
		f = append(f, "name")
	}
	if p.Email != "" {
		f = append(f, "email")
	}
	if p.PasswordHash != "" {
		f = append(f, "password")
	}
	return f
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Name == "" && p.Email == "" && p.PasswordHash == ""
}

// AccountRepository persists accounts of a single kind.
type AccountRepository interface {
	// Create inserts the account. A duplicate email yields domain.ErrAccountExists.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	// Update applies patch and returns the stored result. A duplicate email
	// yields domain.ErrEmailInUse.
	Update(ctx context.Context, id string, patch AccountPatch) (*domain.Account, error)
	// SoftDelete flags the account as deleted; repeated calls are no-ops.
	SoftDelete(ctx context.Context, id string) (*domain.Account, error)
}
