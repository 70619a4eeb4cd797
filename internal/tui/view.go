package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kamusis/phenopick/internal/picker"
)

const help = "/ search  f filter  tab pane  enter select  a add  d remove  x clear  y copy  Y copy all  m more  r reload  q quit"

// View renders the three panes.
func (m *Model) View() string {
	if m.ctrl == nil {
		if m.err != nil {
			return errorStyle.Render(m.status) + "\n"
		}
		return fmt.Sprintf("\n %s Loading zebrafish ontologies...\n", m.spinner.View())
	}

	bodyHeight := max(5, m.height-6)
	treeWidth := m.width / 4
	selWidth := m.width / 4
	resultsWidth := max(20, m.width-treeWidth-selWidth-6)

	tree := m.pane(focusTree, treeWidth, bodyHeight, "Anatomy", m.treeLines(bodyHeight-1))
	results := m.pane(focusResults, resultsWidth, bodyHeight, m.ctrl.Label(), m.resultLines(bodyHeight-1))
	sel := m.pane(focusSelection, selWidth, bodyHeight,
		fmt.Sprintf("Selected (%d)", len(m.ctrl.Selection())), m.selectionLines(bodyHeight-1))

	var b strings.Builder
	b.WriteString(titleStyle.Render("phenopick") + "  " + m.inputLine() + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tree, results, sel) + "\n")
	b.WriteString(m.status + "\n")
	b.WriteString(subtleStyle.Render(help))
	return b.String()
}

func (m *Model) inputLine() string {
	if m.mode != inputNone {
		return m.input.View()
	}
	var parts []string
	if q := m.ctrl.Query(); q != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q))
	}
	if f := m.ctrl.Filter(); f != "" {
		parts = append(parts, fmt.Sprintf("filter: %q", f))
	}
	return subtleStyle.Render(strings.Join(parts, "  "))
}

func (m *Model) pane(f focus, width, height int, title string, lines []string) string {
	style := paneStyle
	if m.focus == f {
		style = activePaneStyle
	}
	content := titleStyle.Render(truncate(title, width)) + "\n" + strings.Join(lines, "\n")
	return style.Width(width).Height(height).Render(content)
}

// window returns the [start, end) range of n items that keeps cursor visible.
func window(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := max(0, cursor-height+1)
	return start, min(n, start+height)
}

func (m *Model) treeLines(height int) []string {
	start, end := window(m.treeCursor, len(m.rows), height)
	lines := make([]string, 0, end-start)
	h := m.ctrl.Bundle().Anatomy
	idx := m.ctrl.Bundle().Index
	sel := m.ctrl.SelectedAnatomy()
	for i := start; i < end; i++ {
		r := m.rows[i]
		marker := "  "
		if h.HasChildren(r.node.URI) {
			marker = "▸ "
			if m.expanded[r.node.URI] {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", r.depth) + marker + r.node.DisplayLabel()
		if n := idx.Count(r.node.URI); n > 0 {
			line += subtleStyle.Render(fmt.Sprintf(" (%d)", n))
		}
		switch {
		case i == m.treeCursor && m.focus == focusTree:
			line = cursorStyle.Render(line)
		case sel != nil && sel.URI == r.node.URI:
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func (m *Model) resultLines(height int) []string {
	vis := m.ctrl.Visible()
	if len(vis) == 0 {
		switch m.ctrl.Mode() {
		case picker.ModeEmpty:
			return []string{subtleStyle.Render("Search for phenotypes above, or select an anatomy term to browse")}
		default:
			return []string{subtleStyle.Render(m.ctrl.Summary())}
		}
	}
	height--
	start, end := window(m.resultCursor, len(vis), height)
	lines := []string{subtleStyle.Render(m.ctrl.Summary())}
	hl, hasHL := m.ctrl.Highlighted()
	for i := start; i < end; i++ {
		r := vis[i]
		mark := "  "
		if m.ctrl.IsSelected(r.URI()) {
			mark = "✓ "
		}
		line := mark + highlight(r) + subtleStyle.Render(fmt.Sprintf("  %s · %d", r.Node.LocalID(), r.Usage))
		switch {
		case i == m.resultCursor && m.focus == focusResults:
			line = cursorStyle.Render(mark + r.Label() + fmt.Sprintf("  %s · %d", r.Node.LocalID(), r.Usage))
		case hasHL && hl.URI() == r.URI():
			line = selectedStyle.Render(mark+r.Label()) + subtleStyle.Render(fmt.Sprintf("  %s · %d", r.Node.LocalID(), r.Usage))
		}
		lines = append(lines, line)
	}
	if n := m.ctrl.Remaining(); n > 0 {
		lines = append(lines, subtleStyle.Render(fmt.Sprintf("m: show %d more", min(n, m.ctrl.PageSize()))))
	}
	return lines
}

func (m *Model) selectionLines(height int) []string {
	sel := m.ctrl.Selection()
	if len(sel) == 0 {
		return []string{subtleStyle.Render("a: add the phenotype under the cursor")}
	}
	start, end := window(m.selCursor, len(sel), height)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := sel[i].Label()
		if i == m.selCursor && m.focus == focusSelection {
			line = cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

// highlight renders the label with the fuzzy-matched bytes emphasised.
func highlight(r picker.Match) string {
	if len(r.Indexes) == 0 {
		return r.Label()
	}
	matched := make(map[int]bool, len(r.Indexes))
	for _, i := range r.Indexes {
		matched[i] = true
	}
	var b strings.Builder
	for i, c := range r.Text {
		if matched[i] {
			b.WriteString(matchStyle.Render(string(c)))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
