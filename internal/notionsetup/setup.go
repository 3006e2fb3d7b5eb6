// Package notionsetup implements the notion-setup and notion-sync scripts.
// Both are single linear passes: preconditions that fail print in red and
// return exit code 1.
package notionsetup

import (
	"context"
	"errors"
	"fmt"
	"go/version"
	"os"
	"strings"

	"github.com/constructtrack/platform/internal/core/plan"
)

// MinGoVersion is the oldest toolchain the project builds with.
const MinGoVersion = "go1.22"

// NotionAdmin is the Notion access the setup script needs.
type NotionAdmin interface {
	VerifyAccess(ctx context.Context, pageID string) error
	CreatePlanDatabase(ctx context.Context, parentPageID, title string) (string, error)
}

type SetupOptions struct {
	PlanPath  string
	EnvPath   string
	Force     bool
	Verify    bool
	CreateDB  bool
	GoVersion string // defaults to runtime.Version() in the command

	// NewNotion builds a client for -verify; required only when Verify is set.
	NewNotion func(token string) NotionAdmin
}

// CheckGoVersion reports an error when current is older than minimum.
func CheckGoVersion(current, minimum string) error {
	current, _, _ = strings.Cut(current, " ")
	if !version.IsValid(current) {
		return fmt.Errorf("unrecognized Go version %q", current)
	}
	if version.Compare(current, minimum) < 0 {
		return fmt.Errorf("%s is older than the required %s", current, minimum)
	}
	return nil
}

// RunSetup runs the setup pass and returns the process exit code.
func RunSetup(ctx context.Context, opts SetupOptions, con *Console) int {
	if opts.PlanPath == "" {
		opts.PlanPath = plan.DefaultPath
	}
	if opts.EnvPath == "" {
		opts.EnvPath = DefaultEnvPath
	}

	con.Header("ConstructTrack Notion setup")

	if _, err := os.Stat(opts.PlanPath); err != nil {
		con.Fail("Project plan not found at %s", opts.PlanPath)
		con.Info("Create it (markdown checklist, one '- [ ] task' per line) and re-run.")
		return 1
	}
	tasks, err := plan.ParseFile(opts.PlanPath)
	switch {
	case errors.Is(err, plan.ErrNoTasks):
		con.Warn("Project plan %s has no checklist tasks yet", opts.PlanPath)
	case err != nil:
		con.Warn("Project plan %s could not be parsed: %v", opts.PlanPath, err)
	default:
		con.Success("Project plan found: %s (%d tasks)", opts.PlanPath, len(tasks))
	}

	if err := CheckGoVersion(opts.GoVersion, MinGoVersion); err != nil {
		con.Fail("Go toolchain check failed: %v", err)
		return 1
	}
	con.Success("Go version %s meets minimum %s", opts.GoVersion, MinGoVersion)

	written, err := WriteEnvTemplate(opts.EnvPath, opts.Force)
	switch {
	case err != nil:
		con.Fail("Could not write env template: %v", err)
	case written:
		con.Success("Wrote env template to %s", opts.EnvPath)
	default:
		con.Warn("%s already exists, keeping it (use -force to overwrite)", opts.EnvPath)
	}

	if opts.Verify {
		if code := verifyNotion(ctx, opts, con); code != 0 {
			return code
		}
	}

	con.Steps("Next steps", nextSteps(opts.EnvPath))
	return 0
}

func verifyNotion(ctx context.Context, opts SetupOptions, con *Console) int {
	env, err := LoadEnv(opts.EnvPath)
	if err != nil {
		con.Fail("Could not load environment: %v", err)
		return 1
	}
	if missing := env.Missing(VarNotionToken, VarParentPageID); len(missing) > 0 {
		con.Warn("Skipping Notion verification, not set: %s", strings.Join(missing, ", "))
		return 0
	}
	if opts.NewNotion == nil {
		con.Warn("Skipping Notion verification, no client configured")
		return 0
	}

	client := opts.NewNotion(env.NotionToken)
	if err := client.VerifyAccess(ctx, env.ParentPageID); err != nil {
		con.Fail("Notion integration cannot access the parent page: %v", err)
		con.Info("Share the page with the integration and re-run.")
		return 1
	}
	con.Success("Notion integration can access the parent page")

	if !opts.CreateDB {
		return 0
	}
	if env.DatabaseID != "" {
		con.Warn("%s is already set, not creating another database", VarDatabaseID)
		return 0
	}
	id, err := client.CreatePlanDatabase(ctx, env.ParentPageID, "")
	if err != nil {
		con.Fail("Could not create the project-plan database: %v", err)
		return 1
	}
	con.Success("Created project-plan database %s", id)
	con.Info("Set %s=%s in %s", VarDatabaseID, id, opts.EnvPath)
	return 0
}

func nextSteps(envPath string) []string {
	return []string{
		fmt.Sprintf("Fill in the values in %s", envPath),
		"Create a Notion integration and share the parent page with it",
		"Run notion-setup -verify -create-db to create the project-plan database",
		"Run notion-sync to check the configuration",
		"Run notion-sync -publish to push the plan tasks to Notion",
	}
}
