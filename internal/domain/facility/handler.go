package facility

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
	// Reference lists are public so the registration form can load them.
	api.GET("/countries", h.listLookups(h.svc.Countries()))
	api.GET("/blood_groups", h.listLookups(h.svc.BloodGroups()))
	api.GET("/departments", h.ListDepartments)

	staff := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor, auth.RoleNurse))
	staff.GET("/wards", h.ListWards)
	staff.GET("/departments_with_wards", h.ListDepartmentsWithWards)

	desk := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	desk.GET("/wards/by-department/:dept_id", h.ListWardsByDepartment)
	desk.GET("/wards/:id/nurse", h.GetWardNurse)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/countries", h.createLookup(h.svc.Countries()))
	admin.PUT("/countries/:id", h.updateLookup(h.svc.Countries()))
	admin.DELETE("/countries/:id", h.deleteLookup(h.svc.Countries()))
	admin.POST("/blood_groups", h.createLookup(h.svc.BloodGroups()))
	admin.PUT("/blood_groups/:id", h.updateLookup(h.svc.BloodGroups()))
	admin.DELETE("/blood_groups/:id", h.deleteLookup(h.svc.BloodGroups()))
	admin.POST("/departments", h.CreateDepartment)
	admin.PUT("/departments/:id", h.UpdateDepartment)
	admin.DELETE("/departments/:id", h.DeleteDepartment)
	admin.GET("/admin/departments", h.ListDepartments)
	admin.POST("/wards", h.CreateWard)
	admin.PUT("/wards/:id", h.UpdateWard)
	admin.DELETE("/wards/:id", h.DeleteWard)
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

// -- Department Handlers --

func (h *Handler) CreateDepartment(c echo.Context) error {
	var d Department
	if err := bindBody(c, &d); err != nil {
		return err
	}
	if err := h.svc.CreateDepartment(c.Request().Context(), &d); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var d Department
	if err := bindBody(c, &d); err != nil {
		return err
	}
	d.ID = id
	if err := h.svc.UpdateDepartment(c.Request().Context(), &d); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListDepartments(c echo.Context) error {
	items, err := h.svc.ListDepartments(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDepartmentsWithWards(c echo.Context) error {
	items, err := h.svc.ListDepartmentsWithWards(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

// -- Ward Handlers --

func (h *Handler) CreateWard(c echo.Context) error {
	var w Ward
	if err := bindBody(c, &w); err != nil {
		return err
	}
	if err := h.svc.CreateWard(c.Request().Context(), &w); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) UpdateWard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var w Ward
	if err := bindBody(c, &w); err != nil {
		return err
	}
	w.ID = id
	if err := h.svc.UpdateWard(c.Request().Context(), &w); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteWard(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteWard(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ListWards accepts ?department_id= (or the older departmentId) as a filter.
func (h *Handler) ListWards(c echo.Context) error {
	var deptID *uuid.UUID
	raw := c.QueryParam("department_id")
	if raw == "" {
		raw = c.QueryParam("departmentId")
	}
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid department_id")
		}
		deptID = &id
	}
	items, err := h.svc.ListWards(c.Request().Context(), deptID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListWardsByDepartment(c echo.Context) error {
	id, err := parseID(c, "dept_id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListWards(c.Request().Context(), &id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetWardNurse(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.svc.WardNurse(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, n)
}

// -- Lookup Handlers --

func (h *Handler) listLookups(svc *LookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := svc.List(c.Request().Context())
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, items)
	}
}

func (h *Handler) createLookup(svc *LookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var item Lookup
		if err := bindBody(c, &item); err != nil {
			return err
		}
		if err := svc.Create(c.Request().Context(), &item); err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusCreated, item)
	}
}

func (h *Handler) updateLookup(svc *LookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		var item Lookup
		if err := bindBody(c, &item); err != nil {
			return err
		}
		item.ID = id
		if err := svc.Update(c.Request().Context(), &item); err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, item)
	}
}

func (h *Handler) deleteLookup(svc *LookupService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.Delete(c.Request().Context(), id); err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	}
}
