package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// TUIPrompter asks questions with Bubble Tea programs.
type TUIPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewTUIPrompter creates a TUIPrompter reading keys from in.
func NewTUIPrompter(in io.Reader, out io.Writer) *TUIPrompter {
	return &TUIPrompter{in: in, out: out}
}

// Choose implements Prompter.
func (p *TUIPrompter) Choose(ctx context.Context, message string, options []string) (int, error) {
	final, err := p.run(ctx, newChoiceModel(message, options))
	if err != nil {
		return -1, err
	}

	return final.(choiceModel).chosen, nil
}

// Input implements Prompter.
func (p *TUIPrompter) Input(ctx context.Context, prompt string) (string, error) {
	final, err := p.run(ctx, newInputModel(prompt))
	if err != nil {
		return "", err
	}

	model := final.(inputModel)
	if model.cancelled {
		return "", nil
	}

	return strings.TrimSpace(model.input.Value()), nil
}

func (p *TUIPrompter) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}

	return final, nil
}

type choiceModel struct {
	message string
	options []string
	cursor  int
	chosen  int
	done    bool
}

func newChoiceModel(message string, options []string) choiceModel {
	return choiceModel{message: message, options: options, chosen: -1}
}

func (cm choiceModel) Init() tea.Cmd {
	return nil
}

func (cm choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return cm, nil
	}

	switch key.String() {
	case "up", "k":
		if cm.cursor > 0 {
			cm.cursor--
		}
	case "down", "j":
		if cm.cursor < len(cm.options)-1 {
			cm.cursor++
		}
	case "enter":
		if len(cm.options) > 0 {
			cm.chosen = cm.cursor
		}

		cm.done = true

		return cm, tea.Quit
	case "esc", "q", "ctrl+c":
		cm.done = true
		return cm, tea.Quit
	}

	return cm, nil
}

func (cm choiceModel) View() string {
	if cm.done {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(cm.message))
	b.WriteString("\n")

	for i, option := range cm.options {
		if i == cm.cursor {
			b.WriteString(selectedStyle.Render("> " + option))
		} else {
			b.WriteString("  " + option)
		}

		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select • enter confirm • esc dismiss"))
	b.WriteString("\n")

	return b.String()
}

type inputModel struct {
	prompt    string
	input     textinput.Model
	cancelled bool
	done      bool
}

func newInputModel(prompt string) inputModel {
	input := textinput.New()
	input.Placeholder = "gist id"
	input.CharLimit = 64
	input.Focus()

	return inputModel{prompt: prompt, input: input}
}

func (im inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (im inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			im.done = true
			return im, tea.Quit
		case "esc", "ctrl+c":
			im.cancelled = true
			im.done = true

			return im, tea.Quit
		}
	}

	var cmd tea.Cmd
	im.input, cmd = im.input.Update(msg)

	return im, cmd
}

func (im inputModel) View() string {
	if im.done {
		return ""
	}

	return fmt.Sprintf("%s\n%s\n%s\n", titleStyle.Render(im.prompt), im.input.View(), helpStyle.Render("enter confirm • esc cancel"))
}
