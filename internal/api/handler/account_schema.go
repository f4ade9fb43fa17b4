package handler

import (
	"time"

	"github.com/crmhub/accounts-api/internal/core/domain"
)

// messageResponse is the envelope used for errors and bare acknowledgements.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type adminUpdateRequest struct {
	ID       string `json:"id" validate:"omitempty,mongodb"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Response types ---

// accountResponse is the public projection of an account. The password hash
// has no field here.
type accountResponse struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsDeleted *bool     `json:"isDeleted,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type registerResponse struct {
	Message string          `json:"message"`
	Data    accountResponse `json:"data"`
	Token   string          `json:"token"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type accountDataResponse struct {
	Message string          `json:"message"`
	Data    accountResponse `json:"data"`
}

type accountListResponse struct {
	Message string            `json:"message"`
	Data    []accountResponse `json:"data"`
}

type softDeleteResponse struct {
	Message string          `json:"message"`
	User    accountResponse `json:"user"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	resp := accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Kind != domain.KindAdmin {
		deleted := a.IsDeleted
		resp.IsDeleted = &deleted
	}
	return resp
}

func toAccountList(accounts []*domain.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	return out
}
