package domain

import (
	"regexp"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Kind selects which collection an account lives in. Users and admins share
// the same shape but are never mixed.
type Kind string

const (
	KindUser  Kind = "user"
	KindAdmin Kind = "admin"
)

// Label is the capitalised kind used in client-facing messages.
func (k Kind) Label() string {
	if k == KindAdmin {
		return "Admin"
	}
	return "User"
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindUser || k == KindAdmin
}

// DefaultRole is the role stamped on new records of this kind.
func (k Kind) DefaultRole() string {
	if k == KindAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Account models a registered user or admin.
type Account struct {
	ID           string    `json:"_id"`
	Kind         Kind      `json:"-"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsDeleted    bool      `json:"isDeleted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Active is false once a user has been soft-deleted.
func (a *Account) Active() bool {
	return !a.IsDeleted
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail checks the simple local@domain.tld shape. It is intentionally
// looser than RFC 5322.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
