package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/auth"
)

func runAudit(t *testing.T, req *http.Request, h echo.HandlerFunc) (map[string]interface{}, bool) {
	t.Helper()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("request_id", "rid-1")
	_ = Audit(logger)(h)(c)

	if buf.Len() == 0 {
		return nil, false
	}
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("audit line is not JSON: %v", err)
	}
	return line, true
}

func TestAudit_PatientRead(t *testing.T) {
	pid := uuid.NewString()
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{UserID: "u1", Role: auth.RoleReceptionist})
	req := httptest.NewRequest(http.MethodGet, "/api/patients/"+pid, nil).WithContext(ctx)

	line, ok := runAudit(t, req, okHandler)
	if !ok {
		t.Fatal("expected audit line")
	}
	checks := map[string]string{
		"type":        "audit",
		"request_id":  "rid-1",
		"user_id":     "u1",
		"role":        auth.RoleReceptionist,
		"resource":    "patients",
		"resource_id": pid,
		"patient_id":  pid,
		"action":      "read",
		"level":       "info",
	}
	for k, want := range checks {
		if got, _ := line[k].(string); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if line["status"].(float64) != http.StatusOK {
		t.Errorf("expected status 200, got %v", line["status"])
	}
}

func TestAudit_MutationLoggedAsWarn(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/appointments", nil)
	line, ok := runAudit(t, req, func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]string{})
	})
	if !ok {
		t.Fatal("expected audit line")
	}
	if line["action"] != "create" || line["level"] != "warn" {
		t.Errorf("unexpected audit line %v", line)
	}
}

func TestAudit_ErrorStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/patients/"+uuid.NewString(), nil)
	line, _ := runAudit(t, req, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	})
	if line["status"].(float64) != http.StatusNotFound {
		t.Errorf("expected status 404, got %v", line["status"])
	}
	if line["action"] != "delete" {
		t.Errorf("expected delete action, got %v", line["action"])
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	if _, ok := runAudit(t, req, okHandler); ok {
		t.Error("expected no audit line for /health")
	}
}

func TestSplitResource(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		path, resource, id string
	}{
		{"/api/patients", "patients", ""},
		{"/api/appointments/" + id + "/bill", "appointments", id},
		{"/api/admin/sales/daily", "admin", ""},
		{"/api/doctors/" + id, "doctors", id},
		{"/api/", "unknown", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, rid := splitResource(tt.path)
			if r != tt.resource || rid != tt.id {
				t.Errorf("splitResource(%q) = %q, %q", tt.path, r, rid)
			}
		})
	}
}

func TestExtractPatientID_FromParamAndQuery(t *testing.T) {
	pid := uuid.NewString()
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/patient/appointments/x", nil), httptest.NewRecorder())
	c.SetParamNames("p_id")
	c.SetParamValues(pid)
	if got := extractPatientID(c, "patient", ""); got != pid {
		t.Errorf("expected %s from path param, got %q", pid, got)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admissions?patient_id="+pid, nil), httptest.NewRecorder())
	if got := extractPatientID(c, "admissions", ""); got != pid {
		t.Errorf("expected %s from query, got %q", pid, got)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admissions?patient_id=bogus", nil), httptest.NewRecorder())
	if got := extractPatientID(c, "admissions", ""); got != "" {
		t.Errorf("expected empty id for non-uuid, got %q", got)
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("%s -> %q, want %q", method, got, want)
		}
	}
}
