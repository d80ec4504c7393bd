package scheduling

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

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Errorf("expected %d, got %d", code, he.Code)
	}
}

func appointmentBody(f *fixture, slot *Slot, patientID uuid.UUID) string {
	b, _ := json.Marshal(map[string]string{
		"patient_id":       patientID.String(),
		"doctor_id":        f.doctorID.String(),
		"timing_id":        f.timing.ID.String(),
		"slot_id":          slot.ID.String(),
		"appointment_mode": "Online",
		"date":             "2026-03-11",
	})
	return string(b)
}

func TestHandler_CreateAppointment(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(appointmentBody(f, f.timing.Slots[0], uuid.New())))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreateAppointment(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(appointmentBody(f, f.timing.Slots[0], uuid.New())))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	expectHTTPStatus(t, h.CreateAppointment(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest)
}

func TestHandler_CreatePatientAppointment_UsesOwnID(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()
	self := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(appointmentBody(f, f.timing.Slots[0], uuid.New())))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{Role: auth.RolePatient, PatientID: &self}))
	rec := httptest.NewRecorder()

	if err := h.CreatePatientAppointment(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.PatientID != self {
		t.Errorf("expected patient %s, got %s", self, a.PatientID)
	}
}

func TestHandler_CancelAppointment_NotFound(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPut, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	expectHTTPStatus(t, h.CancelAppointment(c), http.StatusNotFound)
}

func TestHandler_ListSlots_BadTiming(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/?timing_id=nope", nil), httptest.NewRecorder())
	expectHTTPStatus(t, h.ListSlots(c), http.StatusBadRequest)
}

func TestHandler_DoctorAppointments_OtherDoctorForbidden(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	me := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{Role: auth.RoleDoctor, StaffID: &me}))
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetParamNames("staff_id")
	c.SetParamValues(uuid.New().String())
	expectHTTPStatus(t, h.DoctorAppointments(c), http.StatusForbidden)
}

func TestRoutes_ReceptionistOnlyCancel(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group("/api"))
	a := f.newAppointment(f.timing.Slots[0])
	if err := f.svc.CreateAppointment(context.Background(), a); err != nil {
		t.Fatal(err)
	}

	for role, want := range map[string]int{auth.RoleDoctor: http.StatusForbidden, auth.RoleReceptionist: http.StatusOK} {
		req := httptest.NewRequest(http.MethodPut, "/api/appointments/"+a.ID.String()+"/cancel", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{Role: role}))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %s: expected %d, got %d", role, want, rec.Code)
		}
	}
}
