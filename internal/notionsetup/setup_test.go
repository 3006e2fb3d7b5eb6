package notionsetup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	verifyErr error
	createID  string
	created   int
}

func (f *fakeAdmin) VerifyAccess(context.Context, string) error { return f.verifyErr }

func (f *fakeAdmin) CreatePlanDatabase(context.Context, string, string) (string, error) {
	f.created++
	return f.createID, nil
}

// clearEnv keeps the developer's shell from leaking into LoadEnv.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range templateVars {
		t.Setenv(v.name, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupDir(t *testing.T) (planPath, envPath string) {
	t.Helper()
	dir := t.TempDir()
	planPath = filepath.Join(dir, "project-plan.md")
	writeFile(t, planPath, "# Plan\n## Phase 1\n- [ ] Survey\n- [x] Permits\n")
	return planPath, filepath.Join(dir, ".env.notion")
}

func TestCheckGoVersion(t *testing.T) {
	assert.NoError(t, CheckGoVersion("go1.22.0", MinGoVersion))
	assert.NoError(t, CheckGoVersion("go1.24.9", MinGoVersion))
	assert.NoError(t, CheckGoVersion("go1.23.1 X:boringcrypto", MinGoVersion))
	assert.Error(t, CheckGoVersion("go1.21.13", MinGoVersion))
	assert.Error(t, CheckGoVersion("devel", MinGoVersion))
}

func TestRunSetup_MissingPlan(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  filepath.Join(dir, "missing.md"),
		EnvPath:   filepath.Join(dir, ".env.notion"),
		GoVersion: "go1.24.0",
	}, NewConsole(&out))

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Project plan not found")
	assert.NoFileExists(t, filepath.Join(dir, ".env.notion"))
}

func TestRunSetup_OldGo(t *testing.T) {
	clearEnv(t)
	planPath, envPath := setupDir(t)
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  planPath,
		EnvPath:   envPath,
		GoVersion: "go1.20.1",
	}, NewConsole(&out))

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Go toolchain check failed")
}

func TestRunSetup_WritesTemplateAndSteps(t *testing.T) {
	clearEnv(t)
	planPath, envPath := setupDir(t)
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  planPath,
		EnvPath:   envPath,
		GoVersion: "go1.24.0",
	}, NewConsole(&out))

	require.Equal(t, 0, code)
	data, err := os.ReadFile(envPath)
	require.NoError(t, err)
	for _, v := range templateVars {
		assert.Contains(t, string(data), v.name+"="+v.placeholder)
	}
	assert.Contains(t, out.String(), "(2 tasks)")
	assert.Contains(t, out.String(), " 1. ")
	assert.Contains(t, out.String(), " 5. ")
}

func TestRunSetup_KeepsExistingEnvUnlessForced(t *testing.T) {
	clearEnv(t)
	planPath, envPath := setupDir(t)
	writeFile(t, envPath, "NOTION_TOKEN=keep\n")

	var out bytes.Buffer
	opts := SetupOptions{PlanPath: planPath, EnvPath: envPath, GoVersion: "go1.24.0"}
	require.Equal(t, 0, RunSetup(context.Background(), opts, NewConsole(&out)))

	data, _ := os.ReadFile(envPath)
	assert.Equal(t, "NOTION_TOKEN=keep\n", string(data))
	assert.Contains(t, out.String(), "already exists")

	opts.Force = true
	require.Equal(t, 0, RunSetup(context.Background(), opts, NewConsole(&out)))
	data, _ = os.ReadFile(envPath)
	assert.Equal(t, EnvTemplate(), string(data))
}

func TestRunSetup_WriteFailureContinues(t *testing.T) {
	clearEnv(t)
	planPath, _ := setupDir(t)
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  planPath,
		EnvPath:   filepath.Join(t.TempDir(), "no-such-dir", ".env.notion"),
		GoVersion: "go1.24.0",
	}, NewConsole(&out))

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Could not write env template")
	assert.Contains(t, out.String(), "Next steps")
}

func TestRunSetup_VerifyCreatesDatabase(t *testing.T) {
	clearEnv(t)
	planPath, envPath := setupDir(t)
	writeFile(t, envPath, "NOTION_TOKEN=secret_abc\nNOTION_PARENT_PAGE_ID=parent-1\nNOTION_DATABASE_ID=your_database_id\n")

	admin := &fakeAdmin{createID: "db-42"}
	var gotToken string
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  planPath,
		EnvPath:   envPath,
		GoVersion: "go1.24.0",
		Verify:    true,
		CreateDB:  true,
		NewNotion: func(token string) NotionAdmin {
			gotToken = token
			return admin
		},
	}, NewConsole(&out))

	require.Equal(t, 0, code)
	assert.Equal(t, "secret_abc", gotToken)
	assert.Equal(t, 1, admin.created)
	assert.Contains(t, out.String(), "db-42")
}

func TestRunSetup_VerifyAccessDenied(t *testing.T) {
	clearEnv(t)
	planPath, envPath := setupDir(t)
	writeFile(t, envPath, "NOTION_TOKEN=secret_abc\nNOTION_PARENT_PAGE_ID=parent-1\n")

	admin := &fakeAdmin{verifyErr: errors.New("object_not_found")}
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  planPath,
		EnvPath:   envPath,
		GoVersion: "go1.24.0",
		Verify:    true,
		NewNotion: func(string) NotionAdmin { return admin },
	}, NewConsole(&out))

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "cannot access the parent page")
}

func TestRunSetup_VerifySkippedWithPlaceholders(t *testing.T) {
	clearEnv(t)
	planPath, envPath := setupDir(t)
	var out bytes.Buffer

	code := RunSetup(context.Background(), SetupOptions{
		PlanPath:  planPath,
		EnvPath:   envPath,
		GoVersion: "go1.24.0",
		Verify:    true,
		NewNotion: func(string) NotionAdmin {
			t.Fatal("client must not be built without credentials")
			return nil
		},
	}, NewConsole(&out))

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Skipping Notion verification")
}
