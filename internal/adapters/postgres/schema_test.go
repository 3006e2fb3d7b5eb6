package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	val any
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *bool:
		v, _ := r.val.(bool)
		*d = v
	case *[]string:
		v, _ := r.val.([]string)
		*d = v
	}
	return nil
}

type fakeCatalog struct {
	tables     map[string]bool
	enums      map[string][]string
	functions  map[string]bool
	triggers   map[string]bool
	rls        map[string]bool
	extensions map[string]bool
	failTables bool
}

func (c *fakeCatalog) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	arg := func(i int) string { return args[i].(string) }
	switch {
	case strings.Contains(sql, "information_schema.tables"):
		if c.failTables {
			return fakeRow{err: errors.New("connection reset")}
		}
		return fakeRow{val: c.tables[arg(1)]}
	case strings.Contains(sql, "pg_enum"):
		return fakeRow{val: c.enums[arg(1)]}
	case strings.Contains(sql, "pg_proc"):
		return fakeRow{val: c.functions[arg(1)]}
	case strings.Contains(sql, "pg_trigger"):
		return fakeRow{val: c.triggers[arg(1)+"."+arg(2)]}
	case strings.Contains(sql, "relrowsecurity"):
		v, ok := c.rls[arg(1)]
		if !ok {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{val: v}
	case strings.Contains(sql, "pg_extension"):
		return fakeRow{val: c.extensions[arg(0)]}
	}
	return fakeRow{err: errors.New("unexpected query")}
}

func completeCatalog() *fakeCatalog {
	exp := ConstructTrackExpectations()
	c := &fakeCatalog{
		tables:     map[string]bool{},
		enums:      map[string][]string{},
		functions:  map[string]bool{},
		triggers:   map[string]bool{},
		rls:        map[string]bool{"profiles": false},
		extensions: map[string]bool{},
	}
	for _, t := range exp.Tables {
		c.tables[t] = true
	}
	for name, labels := range exp.Enums {
		c.enums[name] = append([]string(nil), labels...)
	}
	for _, f := range exp.Functions {
		c.functions[f] = true
	}
	for _, t := range exp.Triggers {
		c.triggers[t.Table+"."+t.Name] = true
	}
	for _, t := range exp.RLSTables {
		c.rls[t] = true
	}
	for _, e := range exp.Extensions {
		c.extensions[e] = true
	}
	return c
}

func TestVerify_AllPresent(t *testing.T) {
	insp := NewInspector(completeCatalog(), "")
	report := insp.Verify(context.Background(), ConstructTrackExpectations())

	assert.True(t, report.Passed())
	assert.Empty(t, report.Failures())
	// 1 extension + 3 tables + 3 enums + 2 functions + 2 triggers + 2 rls
	assert.Len(t, report.Checks, 13)
}

func TestVerify_ReportsEachFailure(t *testing.T) {
	c := completeCatalog()
	delete(c.tables, "profiles")
	c.enums["task_status"] = []string{"todo", "done"}
	delete(c.enums, "user_role")
	c.triggers["projects.projects_set_updated_at"] = false
	c.rls["project_tasks"] = false

	report := NewInspector(c, "public").Verify(context.Background(), ConstructTrackExpectations())
	require.False(t, report.Passed())

	failed := map[string]string{}
	for _, f := range report.Failures() {
		failed[f.Kind+":"+f.Name] = f.Detail
	}
	assert.Equal(t, "missing", failed["table:profiles"])
	assert.Equal(t, "missing values: in_progress", failed["enum:task_status"])
	assert.Equal(t, "missing", failed["enum:user_role"])
	assert.Equal(t, "missing", failed["trigger:projects.projects_set_updated_at"])
	assert.Equal(t, "row level security disabled", failed["rls:project_tasks"])
	assert.Len(t, failed, 5)
}

func TestVerify_QueryErrorIsAFailedCheck(t *testing.T) {
	c := completeCatalog()
	c.failTables = true

	report := NewInspector(c, "").Verify(context.Background(), ConstructTrackExpectations())
	failures := report.Failures()
	require.Len(t, failures, 3)
	for _, f := range failures {
		assert.Equal(t, "table", f.Kind)
		assert.Equal(t, "connection reset", f.Detail)
	}
}

func TestRLSEnabled_MissingTable(t *testing.T) {
	ok, err := NewInspector(completeCatalog(), "").RLSEnabled(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnumValues_Order(t *testing.T) {
	labels, err := NewInspector(completeCatalog(), "").EnumValues(context.Background(), "project_status")
	require.NoError(t, err)
	assert.Equal(t, []string{"planning", "in_progress", "on_hold", "completed", "cancelled"}, labels)
}
