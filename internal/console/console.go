// Package console renders supervisor output on the operator's terminal and
// multiplexes operator input against a poll interval.
package console

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Level selects the style of a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Basic ANSI palette, matching what most terminals render for exit notices.
const (
	colorRed    lipgloss.Color = "1"
	colorGreen  lipgloss.Color = "2"
	colorYellow lipgloss.Color = "3"
)

// ANSI control sequences used to overwrite the prompt line.
const (
	cursorPrevLine = "\x1b[1F"
	eraseLine      = "\x1b[2K"
)

// Console writes prompts, messages and notices to out.
type Console struct {
	out io.Writer

	// tty enables cursor movement so asynchronous notices replace the prompt
	// line instead of being appended to it.
	tty bool

	styles map[Level]lipgloss.Style
}

// New creates a Console writing to out. Colors are only emitted when color
// is true; cursor movement only when tty is true.
func New(out io.Writer, tty, color bool) *Console {
	r := lipgloss.NewRenderer(out)

	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Console{
		out: out,
		tty: tty,
		styles: map[Level]lipgloss.Style{
			LevelInfo:    r.NewStyle(),
			LevelSuccess: r.NewStyle().Foreground(colorGreen),
			LevelWarning: r.NewStyle().Foreground(colorYellow),
			LevelError:   r.NewStyle().Foreground(colorRed),
		},
	}
}

// Writer returns the underlying writer, e.g. for tabular output.
func (c *Console) Writer() io.Writer {
	return c.out
}

// Prompt writes p without a trailing newline.
func (c *Console) Prompt(p string) {
	fmt.Fprint(c.out, p)
}

// Printf writes a formatted line.
func (c *Console) Printf(format string, a ...any) {
	fmt.Fprintf(c.out, format+"\n", a...)
}

// Message writes a styled line.
func (c *Console) Message(level Level, format string, a ...any) {
	fmt.Fprintln(c.out, c.styles[level].Render(fmt.Sprintf(format, a...)))
}

// Notice writes a styled line in place of the current prompt line. It is
// used for events that happen while the operator may be typing.
func (c *Console) Notice(level Level, format string, a ...any) {
	msg := c.styles[level].Render(fmt.Sprintf(format, a...))

	if c.tty {
		fmt.Fprint(c.out, "\n"+cursorPrevLine+eraseLine+msg+"\n")
		return
	}

	fmt.Fprint(c.out, "\n"+msg+"\n")
}
