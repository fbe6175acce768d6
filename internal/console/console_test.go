package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_PlainAnswer(t *testing.T) {
	var out, errOut bytes.Buffer
	r, err := NewRenderer(&out, &errOut, false)
	require.NoError(t, err)

	require.NoError(t, r.Answer("  Sam Altman is the CEO of **OpenAI**.\n"))

	assert.Equal(t, "Sam Altman is the CEO of **OpenAI**.\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRenderer_Diagnostics(t *testing.T) {
	var out, errOut bytes.Buffer
	r, err := NewRenderer(&out, &errOut, true)
	require.NoError(t, err)

	r.Warn("gateway at %s is not reachable", "http://localhost:5001")
	r.Error(errors.New("tool loop exceeded"))

	assert.Empty(t, out.String())
	assert.Equal(t,
		"warning: gateway at http://localhost:5001 is not reachable\nerror: tool loop exceeded\n",
		errOut.String())
}

func TestRenderer_Summary(t *testing.T) {
	var out, errOut bytes.Buffer
	r, err := NewRenderer(&out, &errOut, true)
	require.NoError(t, err)

	r.Summary(Summary{
		ToolRounds:   1,
		InputTokens:  12345,
		OutputTokens: 67,
		ResultBytes:  2048,
		Duration:     1234567 * time.Microsecond,
	})

	line := errOut.String()
	assert.Contains(t, line, "1 tool round")
	assert.Contains(t, line, "12,345 in / 67 out tokens")
	assert.Contains(t, line, "2.0 kB of tool results")
	assert.Contains(t, line, "1.235s")
}

func TestReadQuery_FromPipe(t *testing.T) {
	query, err := ReadQuery(context.Background(), strings.NewReader("  Who is the CEO of OpenAI?\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "Who is the CEO of OpenAI?", query)

	_, err = ReadQuery(context.Background(), strings.NewReader(" \n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoQuery)
}

func TestPromptModel(t *testing.T) {
	var m tea.Model = newPromptModel()

	// Enter on an empty prompt is ignored.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.(promptModel).submitted)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("weather in Paris")})
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	pm := m.(promptModel)
	assert.NotNil(t, cmd)
	assert.True(t, pm.submitted)
	assert.Equal(t, "weather in Paris", pm.Query())
	assert.Empty(t, pm.View())
}

func TestPromptModel_Cancel(t *testing.T) {
	var m tea.Model = newPromptModel()

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.NotNil(t, cmd)
	assert.True(t, m.(promptModel).canceled)
	assert.False(t, m.(promptModel).submitted)
}
