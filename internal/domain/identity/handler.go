package identity

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
	api.POST("/patient/register", h.SelfRegister)

	clinical := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))
	clinical.GET("/patients", h.ListPatients)
	clinical.GET("/patients/without-appointments", h.ListPatientsWithoutAppointments)
	clinical.GET("/receptionist/patients/all", h.ListPatients)
	clinical.GET("/staff", h.ListStaff)
	clinical.GET("/nurses", h.listByRole(auth.RoleNurse))
	clinical.GET("/receptionists", h.listByRole(auth.RoleReceptionist))
	api.GET("/patients/:id", h.GetPatient,
		auth.RequireSelfOrRole("id", auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))

	booking := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse, auth.RolePatient))
	booking.GET("/doctors", h.ListDoctors)
	booking.GET("/doctors/:id", h.GetDoctor)

	desk := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	desk.POST("/patients", h.CreatePatient)
	desk.PUT("/patients/:id", h.UpdatePatient)
	desk.DELETE("/patients/:id", h.DeletePatient)
	desk.POST("/receptionist/patient/register", h.RegisterPatient)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/staff", h.ListStaff)
	admin.GET("/staff/:id", h.GetStaff)
	admin.POST("/staff", h.CreateStaff)
	admin.PUT("/staff/:id", h.UpdateStaff)
	admin.DELETE("/staff/:id", h.DeleteStaff)
	admin.GET("/doctors", h.ListDoctors)
	admin.GET("/nurses", h.listByRole(auth.RoleNurse))
	admin.GET("/receptionists", h.listByRole(auth.RoleReceptionist))
	admin.GET("/interns", h.listByRole("intern"))
	admin.GET("/roles", h.ListRoles)
	admin.GET("/shifts", h.ListShifts)
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func bindBody(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := bindBody(c, &p); err != nil {
		return err
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var p Patient
	if err := bindBody(c, &p); err != nil {
		return err
	}
	if err := h.svc.RegisterPatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Patient registered successfully",
		"patient": p,
	})
}

func (h *Handler) SelfRegister(c echo.Context) error {
	var r SelfRegistration
	if err := bindBody(c, &r); err != nil {
		return err
	}
	if err := h.svc.SelfRegister(c.Request().Context(), &r); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":    "Registration successful",
		"patient_id": r.ID,
		"username":   r.Username,
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	if c.QueryParam("without_appointments") == "true" {
		return h.ListPatientsWithoutAppointments(c)
	}
	items, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatientsWithoutAppointments(c echo.Context) error {
	items, err := h.svc.ListPatientsWithoutAppointments(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var p Patient
	if err := bindBody(c, &p); err != nil {
		return err
	}
	p.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// -- Staff Handlers --

func (h *Handler) CreateStaff(c echo.Context) error {
	var st Staff
	if err := bindBody(c, &st); err != nil {
		return err
	}
	if err := h.svc.CreateStaff(c.Request().Context(), &st); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.svc.GetStaff(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) UpdateStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var st Staff
	if err := bindBody(c, &st); err != nil {
		return err
	}
	st.ID = id
	if err := h.svc.UpdateStaff(c.Request().Context(), &st); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStaff(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteStaff(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListStaff(c echo.Context) error {
	items, err := h.svc.ListStaff(c.Request().Context(), c.QueryParam("role"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) listByRole(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := h.svc.ListStaff(c.Request().Context(), role)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, items)
	}
}

func (h *Handler) ListDoctors(c echo.Context) error {
	items, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListRoles(c echo.Context) error {
	items, err := h.svc.ListRoles(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListShifts(c echo.Context) error {
	items, err := h.svc.ListShifts(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}
