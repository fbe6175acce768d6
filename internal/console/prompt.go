package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
)

// ErrNoQuery is returned when the user submits nothing or aborts the prompt.
var ErrNoQuery = errors.New("no query given")

const maxQueryLength = 1024

// ReadQuery asks for a question. On a terminal it shows an interactive
// prompt; otherwise the whole of in is read as the question.
func ReadQuery(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && IsTerminal(f) {
		return promptQuery(ctx, f, out)
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read query: %w", err)
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", ErrNoQuery
	}
	return query, nil
}

func promptQuery(ctx context.Context, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(newPromptModel(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || !m.submitted {
		return "", ErrNoQuery
	}
	return m.Query(), nil
}

type promptModel struct {
	textinput textinput.Model
	submitted bool
	canceled  bool
}

func newPromptModel() promptModel {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.Placeholder = "ask anything"
	ti.CharLimit = maxQueryLength
	ti.Focus()
	return promptModel{textinput: ti}
}

// Query returns the trimmed input.
func (m promptModel) Query() string {
	return strings.TrimSpace(m.textinput.Value())
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.Query() == "" {
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.textinput.Width = msg.Width - 2
		return m, nil
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.submitted || m.canceled {
		return ""
	}
	return m.textinput.View() + "\n\n" + color.New(color.Faint).Sprint("enter to ask, esc to quit") + "\n"
}
