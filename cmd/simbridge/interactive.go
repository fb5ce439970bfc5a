package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/wippyai/simbridge/bridge"
	"github.com/wippyai/simbridge/callback"
	"github.com/wippyai/simbridge/config"
	"github.com/wippyai/simbridge/host"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func newInteractiveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "pick callbacks and call them from a terminal ui",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("interactive mode needs a terminal")
			}
			h := opts.newHost()
			defer h.Close(context.Background())
			if err := h.Initialize(cmd.Context()); err != nil {
				return err
			}
			m, err := newInteractiveModel(cmd.Context(), h, opts.config)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

type callbackInfo struct {
	id      string
	backend string
	params  []slotInfo
	returns []slotInfo
}

type slotInfo struct {
	name    string
	typeStr string
}

type modelState int

const (
	stateSelectCallback modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	ctx       context.Context
	err       error
	host      *host.Host
	result    *callback.Result
	filename  string
	outputs   []float64
	callbacks []callbackInfo
	inputs    []textinput.Model
	selected  int
	focusIdx  int
	state     modelState
}

func newInteractiveModel(ctx context.Context, h *host.Host, filename string) (*interactiveModel, error) {
	cfg := h.Config()
	infos := make([]callbackInfo, 0, len(cfg.Callbacks))
	for _, c := range cfg.Callbacks {
		info, err := describeCallback(c)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return &interactiveModel{
		ctx:       ctx,
		host:      h,
		filename:  filename,
		callbacks: infos,
		state:     stateSelectCallback,
	}, nil
}

func describeCallback(c config.Callback) (callbackInfo, error) {
	params, returns, err := c.Signatures()
	if err != nil {
		return callbackInfo{}, err
	}
	info := callbackInfo{id: c.ID, backend: c.Backend}
	for i, s := range c.Inputs {
		info.params = append(info.params, slotInfo{name: s.Name, typeStr: params[i].String()})
	}
	for i, s := range c.Outputs {
		info.returns = append(info.returns, slotInfo{name: s.Name, typeStr: returns[i].String()})
	}
	return info, nil
}

type callResultMsg struct {
	err     error
	result  *callback.Result
	outputs []float64
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectCallback && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectCallback && m.selected < len(m.callbacks)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectCallback:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.call
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.call

			case stateShowResult:
				m.reset()
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectCallback
				m.inputs = nil
			case stateShowResult:
				m.reset()
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.outputs = msg.outputs
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectCallback
	m.result = nil
	m.outputs = nil
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	c := m.callbacks[m.selected]
	m.inputs = make([]textinput.Model, len(c.params))
	for i, p := range c.params {
		ti := textinput.New()
		ti.Placeholder = p.typeStr
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// call concatenates every field into the flat input buffer.
func (m *interactiveModel) call() tea.Msg {
	var in []float64
	for i, input := range m.inputs {
		vals, err := parseFloats(input.Value())
		if err != nil {
			return callResultMsg{err: fmt.Errorf("%s: %w", m.callbacks[m.selected].params[i].name, err)}
		}
		in = append(in, vals...)
	}
	out, res, err := m.host.Invoke(m.ctx, m.callbacks[m.selected].id, in)
	return callResultMsg{result: res, outputs: out, err: err}
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		vals[i] = v
	}
	return vals, nil
}

func (m *interactiveModel) View() string {
	if len(m.callbacks) == 0 {
		return errorStyle.Render("No callbacks in " + m.filename + "\n\nPress q to quit.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("simbridge"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectCallback:
		b.WriteString("Select a callback to call:\n\n")
		for i, c := range m.callbacks {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + formatCallback(c)))
			} else {
				b.WriteString("  " + formatCallback(c))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		c := m.callbacks[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(c.id)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(c.params[i].typeStr))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("values separated by spaces or commas • tab next field • enter call • esc back"))

	case stateShowResult:
		c := m.callbacks[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(c.id)))
		if m.outputs != nil {
			b.WriteString(resultStyle.Render(fmt.Sprintf("%v", m.outputs)))
			b.WriteString("\n")
		}
		if m.result != nil {
			for _, e := range m.result.Entries {
				b.WriteString(entryStyle(e.Level).Render(e.Level.String() + " " + e.Message))
				b.WriteString("\n")
			}
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func entryStyle(l bridge.Level) lipgloss.Style {
	switch l {
	case bridge.LevelError:
		return errorStyle
	case bridge.LevelWarning:
		return warnStyle
	default:
		return helpStyle
	}
}

func formatCallback(c callbackInfo) string {
	return funcStyle.Render(c.id) + formatSlots(c.params) + " -> " + formatSlots(c.returns) +
		" " + helpStyle.Render(c.backend)
}

func formatSlots(slots []slotInfo) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.name + ": " + typeStyle.Render(s.typeStr)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
