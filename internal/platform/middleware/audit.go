package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/auth"
)

// AuditEntry describes one access to a hospital record.
type AuditEntry struct {
	RequestID  string
	UserID     string
	Role       string
	Resource   string
	ResourceID string
	PatientID  string
	Action     string
	Method     string
	Path       string
	RemoteIP   string
	Status     int
}

// Audit emits an "audit" log line for every /api/ request after the handler
// has run. Login bodies are never inspected.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return next(c)
			}

			err := next(c)
			entry := buildAuditEntry(c, err)

			evt := logger.Info()
			if entry.Action != "read" {
				evt = logger.Warn()
			}
			evt.
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.RemoteIP).
				Int("status", entry.Status).
				Msg("record_access")

			return err
		}
	}
}

func buildAuditEntry(c echo.Context, err error) AuditEntry {
	req := c.Request()
	entry := AuditEntry{
		Method:   req.Method,
		Path:     req.URL.Path,
		RemoteIP: c.RealIP(),
		Action:   httpMethodToAction(req.Method),
		Status:   c.Response().Status,
	}
	if he, ok := err.(*echo.HTTPError); ok {
		entry.Status = he.Code
	} else if err != nil {
		entry.Status = http.StatusInternalServerError
	}
	entry.RequestID, _ = c.Get("request_id").(string)

	if p, ok := auth.PrincipalFromContext(req.Context()); ok {
		entry.UserID = p.UserID
		entry.Role = p.Role
	}

	entry.Resource, entry.ResourceID = splitResource(req.URL.Path)
	entry.PatientID = extractPatientID(c, entry.Resource, entry.ResourceID)
	return entry
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResource returns the first segment after /api/ and the first UUID that
// follows it, if any.
//
//	/api/patients                    -> patients, ""
//	/api/appointments/<id>/bill      -> appointments, <id>
//	/api/admin/sales/daily           -> admin, ""
func splitResource(path string) (string, string) {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/"), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown", ""
	}
	for _, s := range segments[1:] {
		if isUUIDLike(s) {
			return segments[0], s
		}
	}
	return segments[0], ""
}

func extractPatientID(c echo.Context, resource, id string) string {
	if (resource == "patients" || resource == "patient") && id != "" {
		return id
	}
	for _, name := range []string{"p_id", "patient_id"} {
		if v := c.Param(name); isUUIDLike(v) {
			return v
		}
		if v := c.QueryParam(name); isUUIDLike(v) {
			return v
		}
	}
	return ""
}

func isUUIDLike(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
