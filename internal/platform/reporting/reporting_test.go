package reporting

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

type failingQuerier struct {
	calls int
	args  []interface{}
}

func (q *failingQuerier) Query(_ context.Context, _ string, args ...interface{}) (pgx.Rows, error) {
	q.calls++
	q.args = args
	return nil, errors.New("relation \"daily_sales\" does not exist")
}

func TestPredefinedMeasures(t *testing.T) {
	expectedIDs := []string{"daily-sales", "monthly-sales", "appointment-status", "ward-occupancy", "low-stock"}
	if len(PredefinedMeasures) != len(expectedIDs) {
		t.Fatalf("expected %d measures, got %d", len(expectedIDs), len(PredefinedMeasures))
	}
	for i, id := range expectedIDs {
		m := PredefinedMeasures[i]
		if m.ID != id {
			t.Errorf("measure[%d] = %s, want %s", i, m.ID, id)
		}
		if m.SQL == "" || m.Name == "" || m.Description == "" {
			t.Errorf("measure %s is incomplete", m.ID)
		}
	}
}

func TestFindMeasure(t *testing.T) {
	if m := FindMeasure("low-stock"); m == nil || m.Name != "Low Stock Medicines" {
		t.Errorf("expected low-stock measure, got %+v", m)
	}
	if FindMeasure("nonexistent") != nil {
		t.Error("expected nil for nonexistent measure")
	}
}

func TestBindParameters(t *testing.T) {
	m := FindMeasure("low-stock")

	args, used, err := m.bindParameters(func(string) string { return "" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 1 || args[0] != 10 || used["threshold"] != "10" {
		t.Errorf("expected default threshold 10, got %v %v", args, used)
	}

	args, _, err = m.bindParameters(func(string) string { return "3" })
	if err != nil || args[0] != 3 {
		t.Errorf("expected threshold 3, got %v (%v)", args, err)
	}

	for _, bad := range []string{"abc", "-1"} {
		if _, _, err := m.bindParameters(func(string) string { return bad }); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestEvaluateMeasure_NotFound(t *testing.T) {
	h := NewHandler(&failingQuerier{})
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admin/reports/nope", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.EvaluateMeasure(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestEvaluateMeasure_BadParameter(t *testing.T) {
	q := &failingQuerier{}
	h := NewHandler(q)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admin/reports/appointment-status?days=x", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("appointment-status")

	err := h.EvaluateMeasure(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if q.calls != 0 {
		t.Error("query must not run with invalid parameters")
	}
}

func TestSalesAlias_HidesDatabaseError(t *testing.T) {
	q := &failingQuerier{}
	h := NewHandler(q)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admin/sales/daily", nil), httptest.NewRecorder())

	err := h.rows("daily-sales")(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if he.Message != "internal server error" {
		t.Errorf("database text leaked: %v", he.Message)
	}
	if q.calls != 1 {
		t.Errorf("expected one query, got %d", q.calls)
	}
}
