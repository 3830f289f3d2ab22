package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/style"
)

// watchStatus runs the live status view, refreshing until q or ctrl-c.
func watchStatus(e *engine.Engine, intervalSec int) error {
	if intervalSec < 1 {
		intervalSec = 1
	}
	m := watchModel{
		engine:   e,
		interval: time.Duration(intervalSec) * time.Second,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	_, err := tea.NewProgram(m).Run()
	return err
}

type statusMsg struct {
	report *engine.StatusReport
	err    error
}

type tickMsg time.Time

type watchModel struct {
	engine   *engine.Engine
	interval time.Duration
	spinner  spinner.Model
	report   *engine.StatusReport
	err      error
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh)
}

func (m watchModel) refresh() tea.Msg {
	report, err := m.engine.Status(engine.Selection{})
	return statusMsg{report: report, err: err}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case statusMsg:
		m.report = msg.report
		m.err = msg.err
		return m, m.tick()
	case tickMsg:
		return m, m.refresh
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	header := fmt.Sprintf("%s flowspace status (every %s, q to quit)\n\n",
		m.spinner.View(), m.interval)
	if m.err != nil {
		return header + style.Error.Render(fmt.Sprintf("error: %v", m.err)) + "\n"
	}
	if m.report == nil {
		return header + style.Dim.Render("loading...") + "\n"
	}
	return header + renderStatus(m.report, statusDetailed, statusOnlyIncomplete, true)
}
