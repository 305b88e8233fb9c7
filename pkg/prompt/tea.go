package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

// TeaPrompter renders prompts with bubbletea. It is the default Prompter
// when stdin is a terminal.
type TeaPrompter struct{}

func (p *TeaPrompter) SelectVersion(ctx context.Context, pkg, current string, choices []Choice) (string, error) {
	m := selectModel{
		title:   fmt.Sprintf("Select a new version for %s (currently %s)", pkg, current),
		choices: append(append([]Choice{}, choices...), Choice{Label: "custom"}),
		input:   textinput.New(),
	}
	m.input.Placeholder = "x.y.z"

	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return "", err
	}

	result := final.(selectModel)
	if result.aborted {
		return "", ErrAborted
	}
	if result.customEntry {
		return strings.TrimPrefix(strings.TrimSpace(result.input.Value()), "v"), nil
	}
	return result.choices[result.cursor].Version, nil
}

func (p *TeaPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	m := confirmModel{message: message}
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return false, err
	}
	result := final.(confirmModel)
	if result.aborted {
		return false, ErrAborted
	}
	return result.accepted, nil
}

// selectModel is a cursor-driven choice list with a free-form entry for the
// trailing "custom" choice.
type selectModel struct {
	title       string
	choices     []Choice
	cursor      int
	customEntry bool
	aborted     bool
	input       textinput.Model
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.customEntry {
		switch key.String() {
		case "enter":
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		if m.choices[m.cursor].Label == "custom" {
			m.customEntry = true
			m.input.Focus()
			return m, textinput.Blink
		}
		return m, tea.Quit
	case "q", "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.customEntry {
		b.WriteString("Enter a version: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		return b.String()
	}

	for i, c := range m.choices {
		line := c.Label
		if c.Version != "" {
			line = fmt.Sprintf("%s (%s)", c.Label, c.Version)
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render("\nenter to select, q to abort\n"))
	return b.String()
}

type confirmModel struct {
	message  string
	accepted bool
	aborted  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.accepted = true
		return m, tea.Quit
	case "n", "N", "enter":
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	return fmt.Sprintf("%s %s\n", m.message, faintStyle.Render("(y/N)"))
}
