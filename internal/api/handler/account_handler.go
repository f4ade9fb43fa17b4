package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/accounts-api/internal/api/metrics"
	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

var errInvalidPayload = echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")

// AccountHandler serves the endpoints shared by users and admins. Its kind
// picks the collection and the wording of success messages.
type AccountHandler struct {
	service ports.AccountService
	kind    domain.Kind
}

// NewUserHandler returns the handler mounted under /api/user.
func NewUserHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service, kind: domain.KindUser}
}

// NewAdminHandler returns the handler for admin credentials and records.
func NewAdminHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{service: service, kind: domain.KindAdmin}
}

func (h *AccountHandler) createdMessage() string {
	if h.kind == domain.KindAdmin {
		return "Admin created successfully"
	}
	return "Customer created successfully"
}

// Register creates an account of the handler's kind and returns it with a token.
//
// @Summary      Register an account
// @Description  Users register via /user/createCustomer, admins via /admin/adminRegister (confirmPassword required).
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  messageResponse
// @Failure      409   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /user/createCustomer [post]
// @Router       /admin/adminRegister [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidPayload
	}

	res, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Kind:            h.kind,
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	metrics.AccountsRegisteredTotal.WithLabelValues(string(h.kind)).Inc()
	return c.JSON(http.StatusCreated, registerResponse{
		Message: h.createdMessage(),
		Data:    toAccountResponse(res.Account),
		Token:   res.Token,
	})
}

// Login exchanges credentials for a bearer token.
//
// @Summary      Login
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      429   {object}  messageResponse
// @Router       /user/login [post]
// @Router       /admin/adminLogin [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidPayload
	}

	res, err := h.service.Login(c.Request().Context(), ports.LoginInput{
		Kind:     h.kind,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues(string(h.kind), metrics.LoginFailure).Inc()
		case errors.Is(err, domain.ErrTooManyAttempts):
			metrics.LoginsTotal.WithLabelValues(string(h.kind), metrics.LoginLocked).Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues(string(h.kind), metrics.LoginSuccess).Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   res.Token,
		ID:      res.Account.ID,
		Email:   res.Account.Email,
		Name:    res.Account.Name,
	})
}

// UpdateProfile applies a partial update to the account at :id.
//
// @Summary      Update a profile
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Account id"
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  accountDataResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /user/updating/{id} [patch]
// @Router       /admin/updating/{id} [patch]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidPayload
	}

	updated, err := h.service.UpdateProfile(c.Request().Context(), h.kind, c.Param("id"), ports.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		ActorID:         callerID(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, accountDataResponse{
		Message: h.kind.Label() + " updated successfully",
		Data:    toAccountResponse(updated),
	})
}

// List returns every account of the handler's kind, soft-deleted users included.
//
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountListResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /user/getAllUser [get]
// @Router       /admin/adminAllUsers [get]
func (h *AccountHandler) List(c echo.Context) error {
	accounts, err := h.service.ListAccounts(c.Request().Context(), h.kind)
	if err != nil {
		return err
	}

	msg := "All user list"
	if len(accounts) == 0 {
		msg = "No users found"
	}
	return c.JSON(http.StatusOK, accountListResponse{
		Message: msg,
		Data:    toAccountList(accounts),
	})
}

// Get returns one account. The id is read from the path, falling back to the
// "id" query parameter.
//
// @Summary      Get an account
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account id"
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /user/{id} [get]
// @Router       /admin/adminByID [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		id = c.QueryParam("id")
	}

	account, err := h.service.GetAccount(c.Request().Context(), h.kind, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// SoftDelete flags the user at :id as deleted.
//
// @Summary      Soft-delete a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  softDeleteResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /admin/delete/{id} [patch]
func (h *AccountHandler) SoftDelete(c echo.Context) error {
	deleted, err := h.service.SoftDeleteUser(c.Request().Context(), c.Param("id"), callerID(c))
	if err != nil {
		return err
	}

	metrics.AccountsSoftDeletedTotal.Inc()
	return c.JSON(http.StatusOK, softDeleteResponse{
		Message: "User soft-deleted",
		User:    toAccountResponse(deleted),
	})
}

// AdminUpdate changes name, email or password of an admin record. The target
// is the body "id", then the "id" query parameter, then the caller.
//
// @Summary      Update an admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    query     string              false  "Admin id"
// @Param        body  body      adminUpdateRequest  true   "Fields to change"
// @Success      200   {object}  accountDataResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /admin/adminUpdating [put]
func (h *AccountHandler) AdminUpdate(c echo.Context) error {
	var req adminUpdateRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidPayload
	}

	claims, err := requireCaller(c)
	if err != nil {
		return err
	}

	id := req.ID
	if id == "" {
		id = c.QueryParam("id")
		req.ID = id
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if id == "" {
		id = claims.AccountID
	}

	updated, err := h.service.AdminUpdate(c.Request().Context(), id, ports.AdminUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		ActorID:  claims.AccountID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, accountDataResponse{
		Message: "Admin updated successfully",
		Data:    toAccountResponse(updated),
	})
}
