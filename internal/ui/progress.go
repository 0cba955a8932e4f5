package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"stackflow/internal/driver"
)

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path   string
	status string
	stage  driver.Stage
	failed bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders batch-export
// progress from the driver's event stream.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: string(driver.StatusQueued)})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	for _, item := range m.items {
		name := runewidth.Truncate(item.path, nameWidth, "…")
		status := item.status
		switch {
		case item.failed:
			status = errStyle.Render(status)
		case item.status == string(driver.StatusDone):
			status = okStyle.Render(status)
		}
		fmt.Fprintf(&b, "  %s  %s\n", runewidth.FillRight(name, nameWidth), status)
	}

	b.WriteString("\n")
	b.WriteString(m.prog.View())
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(evt)
	}
}

func (m *progressModel) applyEvent(evt driver.Event) tea.Cmd {
	i, ok := m.index[evt.File]
	if !ok {
		return nil
	}
	item := &m.items[i]
	item.stage = evt.Stage
	switch evt.Status {
	case driver.StatusWorking:
		item.status = string(evt.Stage)
	case driver.StatusDone:
		item.status = string(driver.StatusDone)
	case driver.StatusError:
		item.failed = true
		item.status = string(driver.StatusError)
	}
	return m.prog.SetPercent(m.completedRatio())
}

func (m *progressModel) completedRatio() float64 {
	if len(m.items) == 0 {
		return 1
	}
	finished := 0
	for _, item := range m.items {
		if item.failed || item.status == string(driver.StatusDone) {
			finished++
		}
	}
	return float64(finished) / float64(len(m.items))
}
