package harnessup

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-isatty"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Console writes the user-facing messages. Styling is only applied when Styled
// is set; plain output is byte-stable for tests and pipes.
type Console struct {
	Out    io.Writer
	Styled bool
}

// NewConsole returns a console writing to out. Styling is enabled when out is a
// terminal, noColor is false and NO_COLOR is not set.
func NewConsole(out io.Writer, noColor bool) *Console {
	styled := false
	if f, ok := out.(*os.File); ok && !noColor && os.Getenv("NO_COLOR") == "" {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{Out: out, Styled: styled}
}

// Banner prints a boxed title
func (c *Console) Banner(title string) {
	if c.Styled {
		fmt.Fprintln(c.Out, bannerStyle.Render(title))
		return
	}

	rule := strings.Repeat("=", len(title)+4)
	fmt.Fprintf(c.Out, "%s\n  %s\n%s\n", rule, title, rule)
}

// Step prints a progress line
func (c *Console) Step(format string, args ...any) {
	fmt.Fprintln(c.Out, fmt.Sprintf(format, args...))
}

// Success prints an acknowledgment line
func (c *Console) Success(format string, args ...any) {
	c.line("✓ ", successStyle, format, args...)
}

// Warn prints a warning line
func (c *Console) Warn(format string, args ...any) {
	c.line("! ", warnStyle, format, args...)
}

// Fail prints a failure line
func (c *Console) Fail(format string, args ...any) {
	c.line("✗ ", failStyle, format, args...)
}

// Note prints a secondary line
func (c *Console) Note(format string, args ...any) {
	c.line("  ", dimStyle, format, args...)
}

// Print writes text verbatim
func (c *Console) Print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *Console) line(prefix string, style lipgloss.Style, format string, args ...any) {
	msg := prefix + fmt.Sprintf(format, args...)
	if c.Styled {
		msg = style.Render(msg)
	}
	fmt.Fprintln(c.Out, msg)
}
