package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hostsurvey/hostsurvey/collector"
	"github.com/hostsurvey/hostsurvey/model"
)

var (
	progressStageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	progressDoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// progressTUI is a minimal bubbletea program showing the current
// collection stage. It never affects the bundle produced, purely
// cosmetic terminal output while collect runs.
type progressTUI struct {
	program *tea.Program
}

func newProgressTUI() *progressTUI {
	return &progressTUI{program: tea.NewProgram(progressModel{})}
}

func (t *progressTUI) update(ev collector.ProgressEvent) {
	if t.program != nil {
		t.program.Send(progressMsg(ev))
	}
}

// run starts coll.Collect in the background while the TUI renders
// stage transitions, and returns the finished bundle once both the
// collection and the program have completed.
func (t *progressTUI) run(ctx context.Context, coll *collector.Collector) (*model.Bundle, error) {
	type result struct {
		bundle *model.Bundle
		err    error
	}
	done := make(chan result, 1)

	go func() {
		bundle, err := coll.Collect(ctx)
		done <- result{bundle, err}
		t.program.Send(progressDoneMsg{})
	}()

	if _, err := t.program.Run(); err != nil {
		return nil, err
	}

	r := <-done
	return r.bundle, r.err
}

type progressMsg collector.ProgressEvent
type progressDoneMsg struct{}

type progressModel struct {
	stage   string
	message string
	done    bool
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case progressMsg:
		m.stage = ev.Stage
		m.message = ev.Message
		return m, nil
	case progressDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return progressDoneStyle.Render("collection complete") + "\n"
	}
	if m.stage == "" {
		return "starting collection...\n"
	}
	return progressStageStyle.Render(m.stage) + ": " + m.message + "\n"
}
