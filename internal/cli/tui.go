package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/deptree/pkg/deps"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TreeModel - Interactive tree browser
// =============================================================================

// treeRow is one visible line of the browser.
type treeRow struct {
	node  *deps.Node
	key   string // index path from the root, e.g. "0/2/1"
	depth int
}

// TreeModel is the bubbletea model for browsing a resolved tree. The root
// starts expanded; everything below it starts collapsed.
type TreeModel struct {
	Root     *deps.Node
	Expanded map[string]bool
	Cursor   int
	Offset   int
	Height   int

	rows []treeRow
}

// NewTreeModel creates a browser for root.
func NewTreeModel(root *deps.Node) TreeModel {
	m := TreeModel{
		Root:     root,
		Expanded: map[string]bool{"": true},
		Height:   20,
	}
	m.rows = m.flatten()
	return m
}

func (m TreeModel) flatten() []treeRow {
	var rows []treeRow
	var visit func(n *deps.Node, key string, depth int)
	visit = func(n *deps.Node, key string, depth int) {
		rows = append(rows, treeRow{node: n, key: key, depth: depth})
		if !m.Expanded[key] {
			return
		}
		for i, d := range n.Dependencies {
			visit(d, childKey(key, i), depth+1)
		}
	}
	if m.Root != nil {
		visit(m.Root, "", 0)
	}
	return rows
}

func childKey(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "/" + strconv.Itoa(i)
}

func parentKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i]
	}
	return ""
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if len(m.rows) == 0 {
			return m, tea.Quit
		}
		row := m.rows[m.Cursor]
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
			}
		case "right", "l", "enter", " ":
			if len(row.node.Dependencies) > 0 {
				m = m.toggle(row.key, msg.String() == "enter" || msg.String() == " ")
			}
		case "left", "h":
			if m.Expanded[row.key] && len(row.node.Dependencies) > 0 {
				m = m.toggle(row.key, true)
			} else if row.depth > 0 {
				m.Cursor = m.indexOf(parentKey(row.key))
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	m.scroll()
	return m, nil
}

// toggle expands key, or flips it when flip is set.
func (m TreeModel) toggle(key string, flip bool) TreeModel {
	expanded := make(map[string]bool, len(m.Expanded)+1)
	for k, v := range m.Expanded {
		expanded[k] = v
	}
	expanded[key] = !flip || !expanded[key]
	m.Expanded = expanded
	m.rows = m.flatten()
	return m
}

func (m TreeModel) indexOf(key string) int {
	for i, r := range m.rows {
		if r.key == key {
			return i
		}
	}
	return 0
}

func (m *TreeModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m TreeModel) View() string {
	var b strings.Builder

	if m.Root != nil {
		b.WriteString(StyleTitle.Render(m.Root.ID()))
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d packages", m.Root.Count()-1)))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  →/⏎ expand  ← collapse  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]

		marker := "  "
		switch {
		case len(r.node.Dependencies) == 0:
		case m.Expanded[r.key]:
			marker = "▾ "
		default:
			marker = "▸ "
		}

		line := strings.Repeat("  ", r.depth) + marker + r.node.ID()
		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		if n := len(r.node.Dependencies); n > 0 && !m.Expanded[r.key] {
			b.WriteString(listDimStyle.Render(fmt.Sprintf(" (%d)", n)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))

	return b.String()
}

// browseTree runs the browser until the user quits.
func browseTree(ctx context.Context, tree *deps.Node) error {
	_, err := tea.NewProgram(NewTreeModel(tree), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}
