package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/constructtrack/platform/internal/core/domain"
)

const samplePlan = `# ConstructTrack Project Plan

Intro paragraph with a - [ ] fake checkbox in the middle.

## Phase 1: Foundation

- [x] Set up Supabase project
- [ ] **Design database schema**
  - [~] Draft RLS policies

## Phase 2: Field App ##

* [ ] Offline map tiles
+ [X] Crew check-in

` + "```" + `
- [ ] not a task
` + "```" + `

- [ ]
`

func TestParse(t *testing.T) {
	tasks, err := Parse(strings.NewReader(samplePlan))
	require.NoError(t, err)

	want := []domain.PlanTask{
		{Title: "Set up Supabase project", Section: "Phase 1: Foundation", Status: domain.TaskDone, Order: 1},
		{Title: "Design database schema", Section: "Phase 1: Foundation", Status: domain.TaskTodo, Order: 2},
		{Title: "Draft RLS policies", Section: "Phase 1: Foundation", Status: domain.TaskInProgress, Order: 3},
		{Title: "Offline map tiles", Section: "Phase 2: Field App", Status: domain.TaskTodo, Order: 4},
		{Title: "Crew check-in", Section: "Phase 2: Field App", Status: domain.TaskDone, Order: 5},
	}
	assert.Equal(t, want, tasks)
}

func TestParse_NoTasks(t *testing.T) {
	_, err := Parse(strings.NewReader("# Empty\n\nNothing to do.\n"))
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestParse_TasksBeforeAnySection(t *testing.T) {
	tasks, err := Parse(strings.NewReader("# Title\n- [ ] Kickoff\n"))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Empty(t, tasks[0].Section)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.md")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	tasks, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.md"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"**Bold**":   "Bold",
		"_em_":       "em",
		"plain":      "plain",
		"**":         "**",
		"  spaced  ": "spaced",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanTitle(in), in)
	}
}
