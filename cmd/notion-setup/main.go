package main

import (
	"context"
	"flag"
	"os"
	"runtime"

	"github.com/constructtrack/platform/internal/adapters/notion"
	"github.com/constructtrack/platform/internal/core/plan"
	"github.com/constructtrack/platform/internal/notionsetup"
)

func main() {
	opts := notionsetup.SetupOptions{GoVersion: runtime.Version()}
	flag.StringVar(&opts.PlanPath, "plan", plan.DefaultPath, "project plan markdown file")
	flag.StringVar(&opts.EnvPath, "env", notionsetup.DefaultEnvPath, "env template to write")
	flag.BoolVar(&opts.Force, "force", false, "overwrite an existing env file")
	flag.BoolVar(&opts.Verify, "verify", false, "check Notion access with NOTION_TOKEN and NOTION_PARENT_PAGE_ID")
	flag.BoolVar(&opts.CreateDB, "create-db", false, "with -verify, create the project-plan database")
	flag.Parse()

	opts.NewNotion = func(token string) notionsetup.NotionAdmin {
		return notion.New(token)
	}

	os.Exit(notionsetup.RunSetup(context.Background(), opts, notionsetup.NewConsole(os.Stdout)))
}
