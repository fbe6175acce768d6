// Package console renders answers and diagnostics for the ask command.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const wordWrap = 100

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Summary is the accounting shown after an answer in verbose mode.
type Summary struct {
	ToolRounds   int
	InputTokens  int
	OutputTokens int
	ResultBytes  int
	Duration     time.Duration
}

// Renderer writes answers to out and diagnostics to errOut. Markdown and
// colors are only used when out is a terminal.
type Renderer struct {
	out      io.Writer
	errOut   io.Writer
	markdown *glamour.TermRenderer

	accent *color.Color
	bold   *color.Color
	faint  *color.Color
	warn   *color.Color
	fail   *color.Color
}

// NewRenderer creates a renderer. plain disables markdown and colors.
func NewRenderer(out, errOut io.Writer, plain bool) (*Renderer, error) {
	r := &Renderer{
		out:    out,
		errOut: errOut,
		accent: color.RGB(240, 150, 0),
		bold:   color.New(color.Bold),
		faint:  color.New(color.Faint),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
	}

	if plain || !IsTerminal(out) {
		for _, c := range []*color.Color{r.accent, r.bold, r.faint, r.warn, r.fail} {
			c.DisableColor()
		}
		return r, nil
	}

	var margin uint = 0
	dark := styles.DarkStyleConfig
	dark.Document.Margin = &margin
	dark.Code.Prefix = ""
	dark.Code.Suffix = ""

	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(dark),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	r.markdown = md

	return r, nil
}

// Answer prints the final answer.
func (r *Renderer) Answer(text string) error {
	text = strings.TrimSpace(text)

	if r.markdown != nil {
		rendered, err := r.markdown.Render(text)
		if err == nil {
			_, err = fmt.Fprintf(r.out, "%s%s\n%s\n",
				r.accent.Sprint("●"), r.bold.Sprint(" Answer"), strings.TrimSpace(rendered))
			return err
		}
	}

	_, err := fmt.Fprintln(r.out, text)
	return err
}

// Summary prints s as one faint line on the diagnostic stream.
func (r *Renderer) Summary(s Summary) {
	rounds := "tool rounds"
	if s.ToolRounds == 1 {
		rounds = "tool round"
	}

	parts := []string{
		fmt.Sprintf("%d %s", s.ToolRounds, rounds),
		fmt.Sprintf("%s in / %s out tokens", humanize.Comma(int64(s.InputTokens)), humanize.Comma(int64(s.OutputTokens))),
	}
	if s.ResultBytes > 0 {
		parts = append(parts, humanize.Bytes(uint64(s.ResultBytes))+" of tool results")
	}
	parts = append(parts, s.Duration.Round(time.Millisecond).String())

	fmt.Fprintln(r.errOut, r.faint.Sprint(strings.Join(parts, " · ")))
}

// Warn prints a non-fatal problem.
func (r *Renderer) Warn(format string, args ...any) {
	fmt.Fprintln(r.errOut, r.warn.Sprint("warning: ")+fmt.Sprintf(format, args...))
}

// Error prints a fatal problem.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.errOut, r.fail.Sprint("error: ")+err.Error())
}
