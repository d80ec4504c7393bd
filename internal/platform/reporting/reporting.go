package reporting

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
)

// Parameter is a named, typed query-string input bound as a SQL argument.
type Parameter struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
}

// MeasureDefinition is a fixed admin report. SQL is never built from input;
// parameters are passed positionally in declaration order.
type MeasureDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SQL         string      `json:"-"`
	Parameters  []Parameter `json:"parameters"`
}

// MeasureReport holds the rows produced by evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "daily-sales",
		Name:        "Daily Sales",
		Description: "Paid bills per day with doctor fee and medicine totals",
		SQL:         `SELECT to_char(sale_date, 'YYYY-MM-DD') AS sale_date, bills, doctor_fees, medicine_sales, total_sales FROM daily_sales ORDER BY sale_date DESC`,
	},
	{
		ID:          "monthly-sales",
		Name:        "Monthly Sales",
		Description: "Paid bills per calendar month",
		SQL:         `SELECT sale_month, bills, doctor_fees, medicine_sales, total_sales FROM monthly_sales ORDER BY sale_month DESC`,
	},
	{
		ID:          "appointment-status",
		Name:        "Appointments by Status",
		Description: "Appointment counts per status over the last N days",
		SQL: `SELECT status, COUNT(*) AS total FROM appointments
		      WHERE ap_date >= CURRENT_DATE - $1::int GROUP BY status ORDER BY status`,
		Parameters: []Parameter{{Name: "days", Type: "int", Default: "30"}},
	},
	{
		ID:          "ward-occupancy",
		Name:        "Ward Occupancy",
		Description: "Remaining capacity, assigned patients and active admissions per ward",
		SQL: `SELECT w.name AS ward, d.name AS department, w.capacity AS free_beds,
		             (SELECT COUNT(*) FROM patients p WHERE p.ward_id = w.id) AS assigned_patients,
		             (SELECT COUNT(*) FROM admissions a WHERE a.ward_id = w.id AND a.status <> 'Discharged') AS active_admissions
		      FROM wards w JOIN departments d ON d.id = w.department_id
		      ORDER BY d.name, w.name`,
	},
	{
		ID:          "low-stock",
		Name:        "Low Stock Medicines",
		Description: "Medicines at or below a stock threshold",
		SQL: `SELECT name, quantity, price::float8 AS price FROM medicines
		      WHERE quantity <= $1::int ORDER BY quantity, name`,
		Parameters: []Parameter{{Name: "threshold", Type: "int", Default: "10"}},
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// bindParameters resolves each declared parameter from the query values,
// falling back to its default. Integers are parsed here so bad input is a 400.
func (m *MeasureDefinition) bindParameters(lookup func(string) string) ([]interface{}, map[string]string, error) {
	args := make([]interface{}, 0, len(m.Parameters))
	used := map[string]string{}
	for _, p := range m.Parameters {
		v := lookup(p.Name)
		if v == "" {
			v = p.Default
		}
		switch p.Type {
		case "int":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, nil, apperr.Validation("%s must be a non-negative integer", p.Name)
			}
			args = append(args, n)
		default:
			args = append(args, v)
		}
		used[p.Name] = v
	}
	return args, used, nil
}

// Querier is the subset of pgxpool.Pool the reports need.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// Handler serves the admin reporting API.
type Handler struct {
	db Querier
}

func NewHandler(db Querier) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/reports", h.ListMeasures)
	admin.GET("/reports/:id", h.EvaluateMeasure)
	admin.GET("/sales/daily", h.rows("daily-sales"))
	admin.GET("/sales/monthly", h.rows("monthly-sales"))
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return apperr.HTTP(apperr.NotFound("report %q not found", c.Param("id")))
	}
	args, params, err := measure.bindParameters(c.QueryParam)
	if err != nil {
		return apperr.HTTP(err)
	}
	results, err := h.execute(c.Request().Context(), measure.SQL, args...)
	if err != nil {
		return apperr.HTTP(apperr.Internal(err, "evaluate report "+measure.ID))
	}
	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		Parameters:  params,
	})
}

// rows serves a measure as a bare array, the shape the admin dashboard reads.
func (h *Handler) rows(id string) echo.HandlerFunc {
	measure := FindMeasure(id)
	return func(c echo.Context) error {
		args, _, err := measure.bindParameters(c.QueryParam)
		if err != nil {
			return apperr.HTTP(err)
		}
		results, err := h.execute(c.Request().Context(), measure.SQL, args...)
		if err != nil {
			return apperr.HTTP(apperr.Internal(err, "evaluate report "+id))
		}
		return c.JSON(http.StatusOK, results)
	}
}

func (h *Handler) execute(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := h.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		results = append(results, rowToMap(fields, values))
	}
	return results, rows.Err()
}

func rowToMap(fields []pgconn.FieldDescription, values []interface{}) map[string]interface{} {
	row := make(map[string]interface{}, len(fields))
	for i, fd := range fields {
		row[fd.Name] = values[i]
	}
	return row
}
