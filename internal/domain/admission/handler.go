package admission

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	ward := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))
	ward.GET("/admissions", h.List)
	ward.GET("/admissions/:id", h.Get)
	ward.GET("/admissions/:id/medicines", h.ListMedicines)
	ward.POST("/admissions/:id/medicine", h.AdministerMedicine)

	desk := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor))
	desk.POST("/admissions", h.Admit)
	desk.POST("/admissions/:id/discharge-bill", h.DischargeAndBill)
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func (h *Handler) Admit(c echo.Context) error {
	var a Admission
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Admit(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":   "Patient admitted",
		"admission": a,
	})
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.ListAdmissions(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.GetAdmission(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) AdministerMedicine(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var m AdministeredMedicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m.AdmissionID = id
	if err := h.svc.AdministerMedicine(c.Request().Context(), &m); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListMedicines(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DischargeAndBill(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var by string
	if p, ok := auth.PrincipalFromContext(c.Request().Context()); ok {
		by = p.Username
	}
	d, err := h.svc.DischargeAndBill(c.Request().Context(), id, by)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}
