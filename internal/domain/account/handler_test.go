package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/auth"
)

func TestHandler_Login_Unauthorized(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"x","password":"yyyyyy"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Login(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	svc, repo, _ := newTestService()
	patientID := uuid.New()
	repo.patients[patientID] = &PatientProfile{PatientID: patientID, Name: "Hina"}
	if err := svc.CreatePatientLogin(context.Background(), "hina", "secret1", patientID); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"hina","password":"secret1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var session Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatal(err)
	}
	if session.Token == "" || session.Role != auth.RolePatient {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestHandler_CreateStaffLogin_RequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	e := echo.New()
	NewHandler(svc).RegisterRoutes(e.Group("/api"))

	body := `{"username":"omar","password":"secret1","staff_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/userlogin", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{Role: auth.RoleReceptionist}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/userlogin", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{Role: auth.RoleAdmin}))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Me(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err, ok := h.Me(c).(*echo.HTTPError); !ok || err.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal")
	}

	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: "u1", Role: auth.RoleNurse}))
	rec = httptest.NewRecorder()
	if err := h.Me(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.Body.String(), `"role":"nurse"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
