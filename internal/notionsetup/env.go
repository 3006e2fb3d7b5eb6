package notionsetup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultEnvPath is the env file the scripts write and read.
const DefaultEnvPath = ".env.notion"

// Variable names shared with the API server configuration.
const (
	VarNotionToken     = "NOTION_TOKEN"
	VarParentPageID    = "NOTION_PARENT_PAGE_ID"
	VarDatabaseID      = "NOTION_DATABASE_ID"
	VarWebhookSecret   = "NOTION_WEBHOOK_SECRET"
	VarSupabaseURL     = "SUPABASE_URL"
	VarSupabaseAnonKey = "SUPABASE_ANON_KEY"
)

// placeholder prefix written by the template; such values count as unset.
const placeholderPrefix = "your_"

var templateVars = []struct{ name, placeholder, comment string }{
	{VarNotionToken, "your_notion_integration_token", "Internal integration token (Settings > Integrations)"},
	{VarParentPageID, "your_parent_page_id", "Page the plan database lives under"},
	{VarDatabaseID, "your_database_id", "Filled in after the plan database is created"},
	{VarWebhookSecret, "your_webhook_secret", "Shared secret for X-Notion-Signature verification"},
	{VarSupabaseURL, "your_supabase_url", ""},
	{VarSupabaseAnonKey, "your_supabase_anon_key", ""},
}

// EnvTemplate renders the .env.notion template with placeholder values.
func EnvTemplate() string {
	var b strings.Builder
	b.WriteString("# ConstructTrack Notion integration\n")
	for _, v := range templateVars {
		if v.comment != "" {
			fmt.Fprintf(&b, "\n# %s\n", v.comment)
		}
		fmt.Fprintf(&b, "%s=%s\n", v.name, v.placeholder)
	}
	return b.String()
}

// WriteEnvTemplate writes the template to path. An existing file is kept
// unless force is set; written reports whether the file was (re)written.
func WriteEnvTemplate(path string, force bool) (written bool, err error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := os.WriteFile(path, []byte(EnvTemplate()), 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// Env is the subset of environment the scripts care about.
type Env struct {
	NotionToken     string
	ParentPageID    string
	DatabaseID      string
	WebhookSecret   string
	SupabaseURL     string
	SupabaseAnonKey string
}

// LoadEnv reads variables from the process environment, falling back to
// the env file at path. A missing file is not an error.
func LoadEnv(path string) (Env, error) {
	v := viper.New()
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Env{}, fmt.Errorf("read %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	get := func(name string) string {
		val := strings.TrimSpace(v.GetString(name))
		if strings.HasPrefix(val, placeholderPrefix) {
			return ""
		}
		return val
	}
	return Env{
		NotionToken:     get(VarNotionToken),
		ParentPageID:    get(VarParentPageID),
		DatabaseID:      get(VarDatabaseID),
		WebhookSecret:   get(VarWebhookSecret),
		SupabaseURL:     get(VarSupabaseURL),
		SupabaseAnonKey: get(VarSupabaseAnonKey),
	}, nil
}

// Missing returns the names of required variables that are empty.
func (e Env) Missing(names ...string) []string {
	values := map[string]string{
		VarNotionToken:     e.NotionToken,
		VarParentPageID:    e.ParentPageID,
		VarDatabaseID:      e.DatabaseID,
		VarWebhookSecret:   e.WebhookSecret,
		VarSupabaseURL:     e.SupabaseURL,
		VarSupabaseAnonKey: e.SupabaseAnonKey,
	}
	var missing []string
	for _, n := range names {
		if values[n] == "" {
			missing = append(missing, n)
		}
	}
	return missing
}
