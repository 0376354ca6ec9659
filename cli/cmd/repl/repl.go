// Package repl implements the interactive dynexpr session: a line
// editor with history, fuzzy completion over registered names, and
// styled result output.
package repl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dynexpr/dynexpr/lang"
	"github.com/dynexpr/dynexpr/log"
)

// Cmd launches the interactive session.
type Cmd struct {
	HistoryFile string `help:"History file location" default:""`
}

// Run executes the repl command.
func (c *Cmd) Run(interp *lang.Interpreter, logger log.Logger) error {
	m := newModel(interp, logger, c.HistoryFile)

	_, err := tea.NewProgram(m).Run()

	return err
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{":help", ":vars", ":types", ":clear", ":quit"}

type model struct {
	interp    *lang.Interpreter
	logger    log.Logger
	input     textinput.Model
	history   *history
	completer *completer
	lines     []string
	done      bool
}

func newModel(interp *lang.Interpreter, logger log.Logger, histFile string) *model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()

	return &model{
		interp:    interp,
		logger:    logger,
		input:     ti,
		history:   newHistory(histFile),
		completer: newCompleter(interp),
		lines: []string{
			hintStyle.Render("dynexpr repl — :help for commands, tab to complete"),
		},
	}
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd

		m.input, cmd = m.input.Update(msg)

		return m, cmd
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		m.done = true

		return m, tea.Quit

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyUp:
		if prev, ok := m.history.prev(); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}

		return m, nil

	case tea.KeyDown:
		next, _ := m.history.next()
		m.input.SetValue(next)
		m.input.CursorEnd()

		return m, nil

	case tea.KeyTab:
		m.complete()

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// submit evaluates the current line.
func (m *model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.lines = append(m.lines, promptStyle.Render(prompt)+text)
	m.history.add(text)
	m.input.SetValue("")

	if strings.HasPrefix(text, ":") {
		return m.control(text)
	}

	result, err := m.interp.Eval(text)
	if err != nil {
		m.lines = append(m.lines, errorStyle.Render(err.Error()))

		return m, nil
	}

	m.lines = append(m.lines, resultStyle.Render(lang.FormatResult(result)))

	return m, nil
}

// control dispatches a :command.
func (m *model) control(text string) (tea.Model, tea.Cmd) {
	switch text {
	case ":quit":
		m.done = true

		return m, tea.Quit

	case ":clear":
		m.lines = nil

	case ":vars":
		idents, _ := m.interp.KnownNames()
		m.lines = append(m.lines, hintStyle.Render(strings.Join(idents, "  ")))

	case ":types":
		_, types := m.interp.KnownNames()
		m.lines = append(m.lines, hintStyle.Render(strings.Join(types, "  ")))

	case ":help":
		m.lines = append(m.lines,
			hintStyle.Render("commands: "+strings.Join(ctrlCommands, " ")),
		)

	default:
		m.lines = append(m.lines,
			errorStyle.Render(fmt.Sprintf("unknown command %s", text)),
		)
	}

	return m, nil
}

// complete applies the first fuzzy completion to the word at the cursor.
func (m *model) complete() {
	value := m.input.Value()
	cursor := m.input.Position()

	replaced, pos, ok := m.completer.complete(value, cursor)
	if !ok {
		return
	}

	m.input.SetValue(replaced)
	m.input.SetCursor(pos)
}

// View implements tea.Model.
func (m *model) View() string {
	if m.done {
		return strings.Join(m.lines, "\n") + "\n"
	}

	return strings.Join(m.lines, "\n") + "\n" + m.input.View() + "\n"
}
