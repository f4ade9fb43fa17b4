package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
)

// ActivityHandler exposes the account audit trail to admins.
type ActivityHandler struct {
	service ports.ActivityService
}

func NewActivityHandler(service ports.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

type activityRequest struct {
	ID    string `param:"id"    validate:"required,mongodb"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type activityListResponse struct {
	Data []*domain.Activity `json:"data"`
}

// List returns the newest activity entries of one account.
//
// @Summary      Account activity
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Account id"
// @Param        limit  query     int     false  "Max entries (1-100, default 20)"
// @Success      200    {object}  activityListResponse
// @Failure      400    {object}  messageResponse
// @Failure      401    {object}  messageResponse
// @Failure      403    {object}  messageResponse
// @Router       /admin/activity/{id} [get]
func (h *ActivityHandler) List(c echo.Context) error {
	var req activityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entries, err := h.service.List(c.Request().Context(), req.ID, req.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityListResponse{Data: entries})
}
