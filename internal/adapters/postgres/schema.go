package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RowQuerier runs single-row queries. *pgxpool.Pool satisfies it.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Inspector answers catalog questions about a live database.
type Inspector struct {
	q      RowQuerier
	schema string
}

// NewInspector creates an Inspector for the given schema ("public" if empty).
func NewInspector(q RowQuerier, schema string) *Inspector {
	if schema == "" {
		schema = "public"
	}
	return &Inspector{q: q, schema: schema}
}

func (i *Inspector) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var ok bool
	if err := i.q.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// TableExists reports whether a base table named name exists.
func (i *Inspector) TableExists(ctx context.Context, name string) (bool, error) {
	return i.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE'
		)`, i.schema, name)
}

// EnumValues returns the labels of an enum type in declaration order. An
// empty slice means the type does not exist.
func (i *Inspector) EnumValues(ctx context.Context, name string) ([]string, error) {
	var labels []string
	err := i.q.QueryRow(ctx, `
		SELECT COALESCE(array_agg(e.enumlabel ORDER BY e.enumsortorder), '{}')
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1 AND t.typname = $2`, i.schema, name).Scan(&labels)
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// FunctionExists reports whether at least one overload of name exists.
func (i *Inspector) FunctionExists(ctx context.Context, name string) (bool, error) {
	return i.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_proc p
			JOIN pg_namespace n ON n.oid = p.pronamespace
			WHERE n.nspname = $1 AND p.proname = $2
		)`, i.schema, name)
}

// TriggerExists reports whether trigger is attached to table.
func (i *Inspector) TriggerExists(ctx context.Context, table, trigger string) (bool, error) {
	return i.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_trigger t
			JOIN pg_class c ON c.oid = t.tgrelid
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE n.nspname = $1 AND c.relname = $2 AND t.tgname = $3 AND NOT t.tgisinternal
		)`, i.schema, table, trigger)
}

// RLSEnabled reports whether row level security is enabled on table. A
// missing table reports false.
func (i *Inspector) RLSEnabled(ctx context.Context, table string) (bool, error) {
	var enabled bool
	err := i.q.QueryRow(ctx, `
		SELECT c.relrowsecurity
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND c.relkind = 'r'`, i.schema, table).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return enabled, err
}

// ExtensionInstalled reports whether a Postgres extension is installed.
func (i *Inspector) ExtensionInstalled(ctx context.Context, name string) (bool, error) {
	return i.exists(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = $1)`, name)
}

// TriggerRef names a trigger on a table.
type TriggerRef struct {
	Table string
	Name  string
}

// Expectations describe the objects a database must contain.
type Expectations struct {
	Extensions []string
	Tables     []string
	// Enums maps a type name to labels it must contain. Extra labels are allowed.
	Enums     map[string][]string
	Functions []string
	Triggers  []TriggerRef
	RLSTables []string
}

// ConstructTrackExpectations is the schema the API and migrations agree on.
func ConstructTrackExpectations() Expectations {
	return Expectations{
		Extensions: []string{"postgis"},
		Tables:     []string{"projects", "project_tasks", "profiles"},
		Enums: map[string][]string{
			"project_status": {"planning", "in_progress", "on_hold", "completed", "cancelled"},
			"task_status":    {"todo", "in_progress", "done"},
			"user_role":      {"admin", "project_manager", "field_worker", "viewer"},
		},
		Functions: []string{"nearby_projects", "set_updated_at"},
		Triggers: []TriggerRef{
			{Table: "projects", Name: "projects_set_updated_at"},
			{Table: "project_tasks", Name: "project_tasks_set_updated_at"},
		},
		RLSTables: []string{"projects", "project_tasks"},
	}
}

// Check is the outcome of one expectation.
type Check struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Report collects every check run by Verify.
type Report struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether every check succeeded.
func (r Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Failures returns the failed checks.
func (r Report) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

func (r *Report) add(kind, name string, ok bool, err error, detail string) {
	c := Check{Kind: kind, Name: name, OK: ok && err == nil, Detail: detail}
	if err != nil {
		c.Detail = err.Error()
	} else if !ok && detail == "" {
		c.Detail = "missing"
	}
	r.Checks = append(r.Checks, c)
}

// Verify runs every expectation and never stops early. Query errors are
// recorded as failed checks.
func (i *Inspector) Verify(ctx context.Context, exp Expectations) Report {
	var r Report

	for _, name := range exp.Extensions {
		ok, err := i.ExtensionInstalled(ctx, name)
		r.add("extension", name, ok, err, "")
	}
	for _, name := range exp.Tables {
		ok, err := i.TableExists(ctx, name)
		r.add("table", name, ok, err, "")
	}
	for _, name := range sortedKeys(exp.Enums) {
		labels, err := i.EnumValues(ctx, name)
		missing := missingLabels(exp.Enums[name], labels)
		detail := ""
		switch {
		case err != nil:
		case len(labels) == 0:
			detail = "missing"
		case len(missing) > 0:
			detail = "missing values: " + strings.Join(missing, ", ")
		}
		r.add("enum", name, len(labels) > 0 && len(missing) == 0, err, detail)
	}
	for _, name := range exp.Functions {
		ok, err := i.FunctionExists(ctx, name)
		r.add("function", name, ok, err, "")
	}
	for _, t := range exp.Triggers {
		ok, err := i.TriggerExists(ctx, t.Table, t.Name)
		r.add("trigger", fmt.Sprintf("%s.%s", t.Table, t.Name), ok, err, "")
	}
	for _, table := range exp.RLSTables {
		ok, err := i.RLSEnabled(ctx, table)
		detail := ""
		if !ok {
			detail = "row level security disabled"
		}
		r.add("rls", table, ok, err, detail)
	}

	return r
}

func missingLabels(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var missing []string
	for _, w := range want {
		if _, ok := set[w]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
