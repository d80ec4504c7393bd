package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/domain/scheduling"
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

func billContext(e *echo.Echo, method, id, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := auth.WithPrincipal(req.Context(), auth.Principal{UserID: "u1", Username: "desk1", Role: auth.RoleReceptionist})
	rec := httptest.NewRecorder()
	c := e.NewContext(req.WithContext(ctx), rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestHandler_GenerateBill(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()
	a := f.appointment(scheduling.StatusScheduled)
	f.prescribe(a, nil)

	c, rec := billContext(e, http.MethodGet, a.ID.String(), "")
	if err := h.GenerateBill(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var bill Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bill.Total != 70 || bill.GeneratedBy != "desk1" {
		t.Errorf("unexpected bill %+v", bill)
	}

	c, _ = billContext(e, http.MethodGet, a.ID.String(), "")
	expectHTTPStatus(t, h.GenerateBill(c), http.StatusBadRequest)
}

func TestHandler_GenerateBill_InvalidID(t *testing.T) {
	f := newFixture()
	c, _ := billContext(echo.New(), http.MethodGet, "abc", "")
	expectHTTPStatus(t, NewHandler(f.svc).GenerateBill(c), http.StatusBadRequest)
}

func TestHandler_UpdateStatus(t *testing.T) {
	f := newFixture()
	h, e := NewHandler(f.svc), echo.New()
	a := f.appointment(scheduling.StatusScheduled)

	c, _ := billContext(e, http.MethodPut, a.ID.String(), `{"status":"Cancelled"}`)
	expectHTTPStatus(t, h.UpdateStatus(c), http.StatusBadRequest)

	c, rec := billContext(e, http.MethodPut, a.ID.String(), `{"status":"Completed"}`)
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"Completed"`) {
		t.Errorf("expected completed status, got %s", rec.Body.String())
	}
}

func TestHandler_ViewBill_NotFound(t *testing.T) {
	f := newFixture()
	c, _ := billContext(echo.New(), http.MethodGet, f.appointment(scheduling.StatusCompleted).ID.String(), "")
	expectHTTPStatus(t, NewHandler(f.svc).ViewBill(c), http.StatusNotFound)
}

func TestHandler_ListFees(t *testing.T) {
	f := newFixture()
	for i := 0; i < 3; i++ {
		a := f.appointment(scheduling.StatusScheduled)
		if _, err := f.svc.GenerateBill(context.Background(), a.ID, "desk1"); err != nil {
			t.Fatal(err)
		}
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/?limit=2", nil), rec)
	if err := NewHandler(f.svc).ListFees(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []FeeListItem `json:"data"`
		Total int           `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Data) != 2 || resp.Total != 3 {
		t.Errorf("unexpected page: %d of %d", len(resp.Data), resp.Total)
	}
}
