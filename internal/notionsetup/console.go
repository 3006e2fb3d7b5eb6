package notionsetup

import (
	"io"

	"github.com/fatih/color"
)

// Console prints colored status lines for the setup scripts.
type Console struct {
	w    io.Writer
	head *color.Color
	ok   *color.Color
	warn *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewConsole writes to w. Color is disabled automatically when the process
// is not attached to a terminal.
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:    w,
		head: color.New(color.FgCyan, color.Bold),
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
}

func (c *Console) Header(format string, a ...any) { c.head.Fprintf(c.w, "\n"+format+"\n\n", a...) }
func (c *Console) Success(format string, a ...any) { c.ok.Fprintf(c.w, "✔ "+format+"\n", a...) }
func (c *Console) Warn(format string, a ...any) { c.warn.Fprintf(c.w, "! "+format+"\n", a...) }
func (c *Console) Fail(format string, a ...any) { c.fail.Fprintf(c.w, "✘ "+format+"\n", a...) }
func (c *Console) Info(format string, a ...any) { c.dim.Fprintf(c.w, "  "+format+"\n", a...) }

// Steps prints a numbered list.
func (c *Console) Steps(title string, steps []string) {
	c.head.Fprintf(c.w, "\n%s\n", title)
	for i, s := range steps {
		c.ok.Fprintf(c.w, "%2d. ", i+1)
		io.WriteString(c.w, s+"\n")
	}
}
