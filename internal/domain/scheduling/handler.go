package scheduling

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
	api.GET("/doctors/with-timings", h.DoctorsWithTimings)

	booking := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse, auth.RolePatient))
	booking.GET("/doctors/:id/timings", h.ListDoctorTimings)
	booking.GET("/clinical_timings", h.ListTimings)
	booking.GET("/slots", h.ListSlots)
	booking.GET("/slots/:id/availability", h.SlotAvailability)

	desk := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	desk.POST("/appointments", h.CreateAppointment)
	desk.GET("/receptionist/appointments", h.ListAppointments)
	desk.GET("/appointments/:id", h.GetAppointment)
	desk.GET("/appointments/:id/status", h.GetAppointmentStatus)
	desk.PUT("/appointments/:id/cancel", h.CancelAppointment)
	desk.PUT("/slots/reset", h.ResetSlots)

	api.POST("/patient/appointments", h.CreatePatientAppointment,
		auth.RequireRole(auth.RolePatient, auth.RoleReceptionist))
	api.GET("/patient/:p_id/appointments", h.ListPatientAppointments,
		auth.RequireSelfOrRole("p_id", auth.RoleReceptionist, auth.RoleDoctor))
	api.GET("/doctor/:staff_id/appointments", h.DoctorAppointments, auth.RequireRole(auth.RoleDoctor))

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/clinical_timings", h.CreateTiming)
	admin.DELETE("/clinical_timings/:id", h.DeleteTiming)
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

// -- Timing Handlers --

func (h *Handler) CreateTiming(c echo.Context) error {
	var t Timing
	if err := bindBody(c, &t); err != nil {
		return err
	}
	if err := h.svc.CreateTiming(c.Request().Context(), &t); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) DeleteTiming(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteTiming(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListTimings(c echo.Context) error {
	items, err := h.svc.ListTimings(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDoctorTimings(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListDoctorTimings(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DoctorsWithTimings(c echo.Context) error {
	items, err := h.svc.DoctorsWithTimings(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

// -- Slot Handlers --

func (h *Handler) ListSlots(c echo.Context) error {
	var timingID *uuid.UUID
	if raw := c.QueryParam("timing_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid timing_id")
		}
		timingID = &id
	}
	items, err := h.svc.ListSlots(c.Request().Context(), timingID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) SlotAvailability(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	free, err := h.svc.IsSlotAvailable(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"slot_id": id, "available": free})
}

func (h *Handler) ResetSlots(c echo.Context) error {
	n, err := h.svc.ResetSlots(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "All slots reset", "released": n})
}

// -- Appointment Handlers --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := bindBody(c, &a); err != nil {
		return err
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

// CreatePatientAppointment books for the logged-in patient. Receptionists may
// book on behalf of any patient.
func (h *Handler) CreatePatientAppointment(c echo.Context) error {
	var a Appointment
	if err := bindBody(c, &a); err != nil {
		return err
	}
	if p, ok := auth.PrincipalFromContext(c.Request().Context()); ok && p.Role == auth.RolePatient {
		if p.PatientID == nil {
			return echo.NewHTTPError(http.StatusForbidden, "login is not linked to a patient")
		}
		a.PatientID = *p.PatientID
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.CancelAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Appointment cancelled",
		"appointment": a,
	})
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.AppointmentDetails(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetAppointmentStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.svc.AppointmentStatus(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	items, err := h.svc.ListAppointments(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	id, err := parseID(c, "p_id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListPatientAppointments(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

// DoctorAppointments serves the doctor dashboard. A doctor may only read
// their own list.
func (h *Handler) DoctorAppointments(c echo.Context) error {
	staffID, err := parseID(c, "staff_id")
	if err != nil {
		return err
	}
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if ok && p.Role == auth.RoleDoctor && p.StaffID != nil && *p.StaffID != staffID {
		return echo.NewHTTPError(http.StatusForbidden, "access limited to own appointments")
	}
	out, err := h.svc.DoctorAppointments(c.Request().Context(), staffID, c.QueryParam("filter"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

