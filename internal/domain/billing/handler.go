package billing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/domain/scheduling"
	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
	"github.com/hospital/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	desk := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	desk.GET("/appointments/:id/bill", h.GenerateBill)
	desk.GET("/appointments/:id/bill/view", h.ViewBill)

	api.PUT("/appointments/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor))

	api.GET("/admin/fees", h.ListFees, auth.RequireRole(auth.RoleAdmin))
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// actor names the caller on generated bills.
func actor(c echo.Context) string {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return ""
	}
	if p.Username != "" {
		return p.Username
	}
	return p.UserID
}

func (h *Handler) GenerateBill(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	bill, err := h.svc.GenerateBill(c.Request().Context(), id, actor(c))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) ViewBill(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.svc.ViewBill(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus completes an appointment. Cancellation has its own route.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	if req.Status != "" && req.Status != scheduling.StatusCompleted {
		return apperr.HTTP(apperr.Validation("status can only be set to %s", scheduling.StatusCompleted))
	}
	a, err := h.svc.CompleteAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"appointment_id": a.ID,
		"status":         a.Status,
	})
}

func (h *Handler) ListFees(c echo.Context) error {
	page := pagination.FromContext(c)
	items, total, err := h.svc.ListFees(c.Request().Context(), page)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, page))
}
