package slas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	authpkg "github.com/mark3748/helpdesk-sla/cmd/api/auth"
	"github.com/mark3748/helpdesk-sla/internal/sla"
	"github.com/mark3748/helpdesk-sla/internal/tenant"
)

type rule struct {
	priority          string
	ackDays, ackHours int
	resDays, resHours int
}

// fakeDB has rules but no calendar row.
type fakeDB struct{ rows []rule }

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return &fakeRows{rows: db.rows}, nil
}
func (db *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return noRow{} }

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

type fakeRows struct {
	rows []rule
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}
func (r *fakeRows) Scan(dest ...any) error {
	if r.i == 0 || r.i > len(r.rows) {
		return pgx.ErrNoRows
	}
	row := r.rows[r.i-1]
	*dest[0].(*string) = row.priority
	*dest[1].(*int) = row.ackDays
	*dest[2].(*int) = row.ackHours
	*dest[3].(*int) = row.resDays
	*dest[4].(*int) = row.resHours
	return nil
}

func newApp(db *fakeDB) *apppkg.App {
	gin.SetMode(gin.TestMode)
	cfg := apppkg.Config{Env: "test", TestBypassAuth: true, SLA: apppkg.SLAConfig{FallbackDay: sla.FallbackDay}}
	a := apppkg.NewApp(cfg, nil, nil, tenant.DBSource{DB: db}, nil, nil)
	a.R.GET("/tenants/:tenant/rules", authpkg.Middleware(a), List(a))
	a.R.GET("/tenants/:tenant/rules/resolve", authpkg.Middleware(a), Resolve(a))
	return a
}

func TestList(t *testing.T) {
	a := newApp(&fakeDB{rows: []rule{{"P1", 0, 1, 1, 0}, {"P2", 1, 0, 3, 0}}})

	rr := httptest.NewRecorder()
	a.R.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenants/acme/rules", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out struct {
		StandardDay string           `json:"standard_day"`
		Rules       []map[string]any `json:"rules"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	// without a calendar a day counts as the fallback eight hours
	if out.StandardDay != "08:00:00" || len(out.Rules) != 2 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Rules[0]["priority"] != "P1" || out.Rules[0]["resolve_within"] != "08:00:00" || out.Rules[1]["resolve_within"] != "24:00:00" {
		t.Fatalf("unexpected rules: %v", out.Rules)
	}
}

func TestListUnknownTenant(t *testing.T) {
	a := newApp(&fakeDB{})
	rr := httptest.NewRecorder()
	a.R.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenants/ghost/rules", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestResolve(t *testing.T) {
	a := newApp(&fakeDB{rows: []rule{{"Urgente", 0, 1, 0, 4}, {"Normale", 1, 0, 5, 0}}})
	tests := []struct {
		query    string
		code     int
		priority string
	}{
		{"?priority=urgente", http.StatusOK, "Urgente"},
		{"?priority=P2%20-%20Normale", http.StatusOK, "Normale"},
		{"?priority=Bassa", http.StatusNotFound, ""},
		{"", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		a.R.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tenants/acme/rules/resolve"+tt.query, nil))
		if rr.Code != tt.code {
			t.Fatalf("%s: expected %d, got %d", tt.query, tt.code, rr.Code)
		}
		if tt.code != http.StatusOK {
			continue
		}
		var m sla.Match
		if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
			t.Fatal(err)
		}
		if m.Rule.Priority != tt.priority {
			t.Fatalf("%s: resolved to %q", tt.query, m.Rule.Priority)
		}
	}
}
