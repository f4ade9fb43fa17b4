package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
	"github.com/crmhub/accounts-api/internal/pkg/token"
)

type stubAccountService struct {
	registerFn      func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn         func(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error)
	updateProfileFn func(ctx context.Context, kind domain.Kind, id string, in ports.UpdateProfileInput) (*domain.Account, error)
	adminUpdateFn   func(ctx context.Context, id string, in ports.AdminUpdateInput) (*domain.Account, error)
	listFn          func(ctx context.Context, kind domain.Kind) ([]*domain.Account, error)
	getFn           func(ctx context.Context, kind domain.Kind, id string) (*domain.Account, error)
	softDeleteFn    func(ctx context.Context, id, actorID string) (*domain.Account, error)
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, kind domain.Kind, id string, in ports.UpdateProfileInput) (*domain.Account, error) {
	return s.updateProfileFn(ctx, kind, id, in)
}

func (s *stubAccountService) AdminUpdate(ctx context.Context, id string, in ports.AdminUpdateInput) (*domain.Account, error) {
	return s.adminUpdateFn(ctx, id, in)
}

func (s *stubAccountService) ListAccounts(ctx context.Context, kind domain.Kind) ([]*domain.Account, error) {
	return s.listFn(ctx, kind)
}

func (s *stubAccountService) GetAccount(ctx context.Context, kind domain.Kind, id string) (*domain.Account, error) {
	return s.getFn(ctx, kind, id)
}

func (s *stubAccountService) SoftDeleteUser(ctx context.Context, id, actorID string) (*domain.Account, error) {
	return s.softDeleteFn(ctx, id, actorID)
}

const (
	userID  = "665f1c2e9b1e8a0012345678"
	adminID = "665f1c2e9b1e8a0087654321"
)

func sampleUser() *domain.Account {
	return &domain.Account{
		ID:           userID,
		Kind:         domain.KindUser,
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: "$2a$10$secret-hash",
		Role:         domain.RoleUser,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withCaller(c echo.Context, id, role string) {
	req := c.Request()
	c.SetRequest(req.WithContext(token.NewContext(req.Context(), &token.Claims{AccountID: id, Role: role})))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return out
}

func TestAccountHandler_Register_User(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Kind != domain.KindUser || in.Name != "Ann" || in.ConfirmPassword != "Abcdef1!" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{Account: sampleUser(), Token: "tok"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/user/createCustomer",
		`{"name":"Ann","email":"ann@x.com","password":"Abcdef1!","confirmPassword":"Abcdef1!"}`)

	if err := NewUserHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["message"] != "Customer created successfully" || resp["token"] != "tok" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	data := resp["data"].(map[string]any)
	if data["_id"] != userID || data["role"] != "user" || data["isDeleted"] != false {
		t.Fatalf("unexpected data: %+v", data)
	}
	if strings.Contains(rec.Body.String(), "secret-hash") || data["password"] != nil {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestAccountHandler_Register_Admin(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			a := sampleUser()
			a.ID, a.Kind, a.Role = adminID, domain.KindAdmin, domain.RoleAdmin
			return &ports.AuthResult{Account: a, Token: "tok"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/admin/adminRegister", `{"name":"Root"}`)

	if err := NewAdminHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["message"] != "Admin created successfully" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if _, ok := resp["data"].(map[string]any)["isDeleted"]; ok {
		t.Fatalf("admin payload must not carry isDeleted")
	}
}

func TestAccountHandler_Register_ServiceErrorPropagates(t *testing.T) {
	want := domain.ForKind(domain.KindUser, domain.ErrAccountExists)
	stub := &stubAccountService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) { return nil, want },
	}
	c, _ := newContext(http.MethodPost, "/", `{"name":"Ann"}`)

	if err := NewUserHandler(stub).Register(c); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountHandler_Register_InvalidJSON(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", `{"name":`)

	err := NewUserHandler(&stubAccountService{}).Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAccountHandler_Login(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(_ context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
			if in.Kind != domain.KindAdmin || in.Email != "root@x.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			a := sampleUser()
			a.ID, a.Email, a.Name = adminID, "root@x.com", "Root"
			return &ports.AuthResult{Account: a, Token: "tok"}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/admin/adminLogin", `{"email":"root@x.com","password":"Abcdef1!"}`)

	if err := NewAdminHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["message"] != "Login successful" || resp["token"] != "tok" ||
		resp["id"] != adminID || resp["email"] != "root@x.com" || resp["name"] != "Root" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAccountHandler_Login_Failure(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(context.Context, ports.LoginInput) (*ports.AuthResult, error) {
			return nil, domain.ForKind(domain.KindUser, domain.ErrInvalidCredentials)
		},
	}
	c, _ := newContext(http.MethodPost, "/", `{"email":"a@b.co","password":"wrong"}`)

	if err := NewUserHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	stub := &stubAccountService{
		updateProfileFn: func(_ context.Context, kind domain.Kind, id string, in ports.UpdateProfileInput) (*domain.Account, error) {
			if kind != domain.KindUser || id != userID || in.Email != "new@x.com" || in.ActorID != adminID {
				t.Fatalf("unexpected call: %s %s %+v", kind, id, in)
			}
			a := sampleUser()
			a.Email = in.Email
			return a, nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/", `{"email":"new@x.com"}`)
	c.SetParamNames("id")
	c.SetParamValues(userID)
	withCaller(c, adminID, domain.RoleAdmin)

	if err := NewUserHandler(stub).UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["message"] != "User updated successfully" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if resp["data"].(map[string]any)["email"] != "new@x.com" {
		t.Fatalf("unexpected data: %+v", resp["data"])
	}
}

func TestAccountHandler_List(t *testing.T) {
	cases := []struct {
		name     string
		accounts []*domain.Account
		message  string
	}{
		{"empty", []*domain.Account{}, "No users found"},
		{"populated", []*domain.Account{sampleUser()}, "All user list"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAccountService{
				listFn: func(context.Context, domain.Kind) ([]*domain.Account, error) { return tc.accounts, nil },
			}
			c, rec := newContext(http.MethodGet, "/", "")

			if err := NewUserHandler(stub).List(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			resp := decode(t, rec)
			if resp["message"] != tc.message {
				t.Fatalf("expected %q, got %v", tc.message, resp["message"])
			}
			data, ok := resp["data"].([]any)
			if !ok || len(data) != len(tc.accounts) {
				t.Fatalf("unexpected data: %+v", resp["data"])
			}
		})
	}
}

func TestAccountHandler_Get_PathThenQuery(t *testing.T) {
	var got string
	stub := &stubAccountService{
		getFn: func(_ context.Context, _ domain.Kind, id string) (*domain.Account, error) {
			got = id
			return sampleUser(), nil
		},
	}
	h := NewUserHandler(stub)

	c, rec := newContext(http.MethodGet, "/api/admin/adminByID?id="+userID, "")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != userID {
		t.Fatalf("expected query id, got %q", got)
	}
	if decode(t, rec)["_id"] != userID {
		t.Fatalf("expected bare account body")
	}

	c, _ = newContext(http.MethodGet, "/?id=ignored", "")
	c.SetParamNames("id")
	c.SetParamValues("from-path")
	_ = h.Get(c)
	if got != "from-path" {
		t.Fatalf("expected path id to win, got %q", got)
	}
}

func TestAccountHandler_SoftDelete(t *testing.T) {
	stub := &stubAccountService{
		softDeleteFn: func(_ context.Context, id, actorID string) (*domain.Account, error) {
			if id != userID || actorID != adminID {
				t.Fatalf("unexpected call: %s %s", id, actorID)
			}
			a := sampleUser()
			a.IsDeleted = true
			return a, nil
		},
	}
	c, rec := newContext(http.MethodPatch, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(userID)
	withCaller(c, adminID, domain.RoleAdmin)

	if err := NewUserHandler(stub).SoftDelete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	if resp["message"] != "User soft-deleted" {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if resp["user"].(map[string]any)["isDeleted"] != true {
		t.Fatalf("expected isDeleted true: %+v", resp["user"])
	}
}

func TestAccountHandler_AdminUpdate_TargetResolution(t *testing.T) {
	cases := []struct {
		name   string
		target string
		body   string
		want   string
	}{
		{"body id", "/", `{"id":"` + userID + `","name":"X"}`, userID},
		{"query id", "/?id=" + userID, `{"name":"X"}`, userID},
		{"caller fallback", "/", `{"name":"X"}`, adminID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			stub := &stubAccountService{
				adminUpdateFn: func(_ context.Context, id string, in ports.AdminUpdateInput) (*domain.Account, error) {
					got = id
					if in.ActorID != adminID {
						t.Fatalf("actor not propagated: %+v", in)
					}
					a := sampleUser()
					a.Kind, a.Role = domain.KindAdmin, domain.RoleAdmin
					return a, nil
				},
			}
			c, rec := newContext(http.MethodPut, tc.target, tc.body)
			withCaller(c, adminID, domain.RoleAdmin)

			if err := NewAdminHandler(stub).AdminUpdate(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected target %q, got %q", tc.want, got)
			}
			if decode(t, rec)["message"] != "Admin updated successfully" {
				t.Fatalf("unexpected message")
			}
		})
	}
}

func TestAccountHandler_AdminUpdate_RejectsMalformedID(t *testing.T) {
	c, _ := newContext(http.MethodPut, "/", `{"id":"not-an-object-id"}`)
	withCaller(c, adminID, domain.RoleAdmin)

	err := NewAdminHandler(&stubAccountService{}).AdminUpdate(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAccountHandler_AdminUpdate_RequiresCaller(t *testing.T) {
	c, _ := newContext(http.MethodPut, "/", `{"name":"X"}`)

	err := NewAdminHandler(&stubAccountService{}).AdminUpdate(c)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
