package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrPromptCancelled = errors.New("prompt cancelled")

type Prompter interface {
	Visibility() (string, error)
	Credentials() (email, password string, err error)
}

// TeaPrompter asks interactively through bubbletea programs.
type TeaPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TeaPrompter) run(m tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}
	return tea.NewProgram(m, opts...).Run()
}

func (p TeaPrompter) Visibility() (string, error) {
	final, err := p.run(newVisibilityModel())
	if err != nil {
		return "", err
	}
	m := final.(visibilityModel)
	if m.cancelled {
		return "", ErrPromptCancelled
	}
	return m.chosen, nil
}

func (p TeaPrompter) Credentials() (string, string, error) {
	final, err := p.run(newCredentialsModel())
	if err != nil {
		return "", "", err
	}
	m := final.(credentialsModel)
	if m.cancelled {
		return "", "", ErrPromptCancelled
	}
	return strings.TrimSpace(m.inputs[0].Value()), m.inputs[1].Value(), nil
}

type visibilityModel struct {
	choices   []string
	cursor    int
	chosen    string
	cancelled bool
}

func newVisibilityModel() visibilityModel {
	return visibilityModel{choices: []string{"public", "private"}}
}

func (m visibilityModel) Init() tea.Cmd { return nil }

func (m visibilityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.choices[m.cursor]
		return m, tea.Quit
	}
	return m, nil
}

func (m visibilityModel) View() string {
	if m.chosen != "" || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Select visibility") + "\n")
	for i, choice := range m.choices {
		if i == m.cursor {
			b.WriteString(successStyle.Render("> "+choice) + "\n")
			continue
		}
		b.WriteString("  " + choice + "\n")
	}
	b.WriteString(infoStyle.Render("up/down to move, enter to select") + "\n")
	return b.String()
}

type credentialsModel struct {
	inputs    []textinput.Model
	focus     int
	done      bool
	cancelled bool
}

func newCredentialsModel() credentialsModel {
	email := textinput.New()
	email.Prompt = "Email: "
	email.Placeholder = "you@example.com"
	email.Focus()

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return credentialsModel{inputs: []textinput.Model{email, password}}
}

func (m credentialsModel) Init() tea.Cmd { return textinput.Blink }

func (m credentialsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "down":
			cmd := m.setFocus((m.focus + 1) % len(m.inputs))
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
			return m, cmd
		case "enter":
			if m.focus == len(m.inputs)-1 {
				m.done = true
				return m, tea.Quit
			}
			cmd := m.setFocus(m.focus + 1)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *credentialsModel) setFocus(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
			continue
		}
		m.inputs[j].Blur()
	}
	return cmd
}

func (m credentialsModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Log in to cobit") + "\n")
	for _, in := range m.inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString(infoStyle.Render("tab to switch fields, enter to submit") + "\n")
	return b.String()
}
