package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/constructtrack/platform/internal/adapters/postgres"
	"github.com/constructtrack/platform/internal/pkg/config"
)

func main() {
	asJSON := flag.Bool("json", false, "print the report as JSON")
	schema := flag.String("schema", "public", "schema to inspect")
	flag.Parse()

	cfg, err := config.Load("constructtrack-schemacheck")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	report := postgres.NewInspector(db.Pool, *schema).Verify(ctx, postgres.ConstructTrackExpectations())

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("encode: %v", err)
		}
	} else {
		pass, fail := color.New(color.FgGreen), color.New(color.FgRed, color.Bold)
		for _, c := range report.Checks {
			if c.OK {
				pass.Print("PASS ")
			} else {
				fail.Print("FAIL ")
			}
			fmt.Printf("%-10s %s", c.Kind, c.Name)
			if c.Detail != "" {
				fmt.Printf(" (%s)", c.Detail)
			}
			fmt.Println()
		}
		fmt.Printf("\n%d checks, %d failed\n", len(report.Checks), len(report.Failures()))
	}

	if !report.Passed() {
		os.Exit(1)
	}
}
