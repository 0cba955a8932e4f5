package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"stackflow/internal/cfgjson"
)

type viewerModel struct {
	title  string
	pairs  []cfgjson.Pair
	cursor int
	top    int
	width  int
	height int
}

// NewViewerModel returns a Bubble Tea model that browses an exported
// control-flow document block by block.
func NewViewerModel(title string, pairs []cfgjson.Pair) tea.Model {
	return &viewerModel{
		title:  title,
		pairs:  pairs,
		width:  80,
		height: 24,
	}
}

func (m *viewerModel) Init() tea.Cmd {
	return nil
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.pairs)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.pairs) - 1
		}
		m.scrollToCursor()
		return m, nil
	}
	return m, nil
}

func (m *viewerModel) scrollToCursor() {
	visible := m.listHeight()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+visible {
		m.top = m.cursor - visible + 1
	}
}

func (m *viewerModel) listHeight() int {
	// header + blank + footer
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	return h
}

func (m *viewerModel) View() string {
	if len(m.pairs) == 0 {
		return "empty document\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	selStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	listWidth := m.width / 3
	if listWidth < 16 {
		listWidth = 16
	}

	visible := m.listHeight()
	end := m.top + visible
	if end > len(m.pairs) {
		end = len(m.pairs)
	}

	var list []string
	for i := m.top; i < end; i++ {
		p := m.pairs[i]
		line := fmt.Sprintf("%s (%s)", p.Block.ID, p.Exit.Type)
		line = runewidth.Truncate(line, listWidth-4, "…")
		if i == m.cursor {
			list = append(list, selStyle.Render("> "+line))
		} else {
			list = append(list, "  "+line)
		}
	}

	left := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(list, "\n"))
	right := m.detailView(m.pairs[m.cursor], m.width-listWidth-2)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ select block · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *viewerModel) detailView(p cfgjson.Pair, width int) string {
	headStyle := lipgloss.NewStyle().Bold(true)
	opStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headStyle.Render(p.Block.ID))
	if len(p.Block.Instructions) == 0 {
		b.WriteString("  (no instructions)\n")
	}
	for _, op := range p.Block.Instructions {
		b.WriteString("  ")
		b.WriteString(opStyle.Render(formatOp(op)))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s %s", headStyle.Render(p.Exit.Type), strings.Join(p.Exit.Exit, ", "))
	if len(p.Exit.Cond) > 0 {
		fmt.Fprintf(&b, " if %s", strings.Join(p.Exit.Cond, ", "))
	}
	if len(p.Exit.Instructions) > 0 {
		fmt.Fprintf(&b, " from %s", strings.Join(p.Exit.Instructions, ", "))
	}
	b.WriteString("\n")

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// formatOp renders one operation record as a single line.
func formatOp(op cfgjson.OpJSON) string {
	var b strings.Builder
	switch {
	case len(op.Assignment) > 0:
		fmt.Fprintf(&b, "%s :=", strings.Join(op.Assignment, ", "))
	default:
		b.WriteString(op.Op)
		if len(op.BuiltinArgs) > 0 {
			fmt.Fprintf(&b, "#[%s]", strings.Join(op.BuiltinArgs, ", "))
		}
	}
	fmt.Fprintf(&b, " in:[%s] out:[%s]", strings.Join(op.In, ", "), strings.Join(op.Out, ", "))
	return b.String()
}
