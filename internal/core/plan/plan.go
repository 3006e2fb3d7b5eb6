// Package plan reads the project-plan markdown document into tasks.
package plan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/constructtrack/platform/internal/core/domain"
)

// DefaultPath is where the project plan lives relative to the repo root.
const DefaultPath = "docs/project-plan.md"

// ErrNoTasks is returned when a document has no checklist items.
var ErrNoTasks = errors.New("plan has no checklist tasks")

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	checkboxRe = regexp.MustCompile(`^\s*[-*+]\s+\[([ xX~/-])\]\s+(.+?)\s*$`)
)

// Parse extracts checklist items. Level-two and deeper headings become the
// section of the tasks that follow; the level-one heading is the document
// title. Items inside fenced code blocks are ignored.
func Parse(r io.Reader) ([]domain.PlanTask, error) {
	var (
		tasks   []domain.PlanTask
		section string
		fenced  bool
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			if len(m[1]) > 1 {
				section = m[2]
			}
			continue
		}

		m := checkboxRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := cleanTitle(m[2])
		if title == "" {
			continue
		}
		tasks = append(tasks, domain.PlanTask{
			Title:   title,
			Section: section,
			Status:  statusFor(m[1]),
			Order:   len(tasks) + 1,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	return tasks, nil
}

// ParseFile parses the plan document at path.
func ParseFile(path string) ([]domain.PlanTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	tasks, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

func statusFor(mark string) domain.TaskStatus {
	switch mark {
	case "x", "X":
		return domain.TaskDone
	case "~", "/", "-":
		return domain.TaskInProgress
	default:
		return domain.TaskTodo
	}
}

// cleanTitle drops emphasis markers wrapping the whole item.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	for _, marker := range []string{"**", "__", "*", "_"} {
		if len(s) > 2*len(marker) && strings.HasPrefix(s, marker) && strings.HasSuffix(s, marker) {
			s = strings.TrimSpace(s[len(marker) : len(s)-len(marker)])
			break
		}
	}
	return s
}
