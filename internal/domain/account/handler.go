package account

import (
	"net/http"

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
	api.POST("/login", h.Login)
	api.GET("/me", h.Me)
	api.POST("/admin/userlogin", h.CreateStaffLogin, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Login(c echo.Context) error {
	var cred Credentials
	if err := c.Bind(&cred); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	session, err := h.svc.Login(c.Request().Context(), cred)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, session)
}

// Me echoes the caller's principal.
func (h *Handler) Me(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateStaffLogin(c echo.Context) error {
	var req NewStaffLogin
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	l, err := h.svc.CreateStaffLogin(c.Request().Context(), req)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "User login created successfully",
		"login":   l,
	})
}
