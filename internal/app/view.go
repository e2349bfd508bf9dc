package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

const helpText = "tab pane  j/k move  enter open  / filter  s search  f cycle filter  x reset  r refresh  y copy id  d delete  q quit"

func (m *Model) View() string {
	width := max(20, m.width)
	p := m.activePane()

	var b strings.Builder
	b.WriteString(m.headerLine(width))
	b.WriteString("\n")
	b.WriteString(m.tabsLine())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	detail, hasDetail := p.Detail()
	tableHeight := max(3, m.height-chromeHeight)
	if hasDetail {
		tableHeight = max(3, (m.height-chromeHeight)/2)
	}
	b.WriteString(m.tableView(p, width, tableHeight))

	if hasDetail {
		b.WriteString(dividerStyle.Render(strings.Repeat("─", width)))
		b.WriteString("\n")
		lines := strings.Split(renderMarkdown(detail, width), "\n")
		limit := max(minDetailHeight, m.height-chromeHeight-tableHeight-1)
		if len(lines) > limit {
			lines = lines[:limit]
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine(p, width))
	b.WriteString("\n")
	switch {
	case m.mode != modeNormal:
		b.WriteString(m.input.View())
	case m.confirmID != "":
		b.WriteString(confirmStyle.Render(fmt.Sprintf("delete %s? y to confirm, any other key cancels", m.confirmID)))
	case m.toast.visible(m.now()):
		b.WriteString(m.toast.render(width))
	default:
		b.WriteString(helpStyle.Render(truncateToWidth(helpText, width)))
	}
	return b.String()
}

func (m *Model) headerLine(width int) string {
	who := string(m.dash.role)
	if m.profile.Name != "" {
		who = m.profile.Name + " (" + who + ")"
	}
	live := "offline"
	if m.events != nil {
		live = "live"
	}
	left := headerStyle.Render("lexdesk")
	right := statusStyle.Render(who + "  " + live)
	gap := max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) tabsLine() string {
	tabs := make([]string, len(m.dash.panes))
	for i, p := range m.dash.panes {
		label := fmt.Sprintf("%s %d", p.Name(), len(p.Rows()))
		if i == m.active {
			tabs[i] = tabActiveStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) tableView(p pane, width, height int) string {
	widths := fitColumns(p.Widths(), width-2)
	var b strings.Builder
	b.WriteString("  " + columnStyle.Render(renderRow(p.Titles(), widths)))
	b.WriteString("\n")

	rows := p.Rows()
	if len(rows) == 0 {
		msg := "nothing to show"
		if p.Status() == state.StatusLoading {
			msg = "loading…"
		} else if !m.scopeReady {
			msg = "resolving your client record…"
		}
		b.WriteString(statusStyle.Render("  " + msg))
		b.WriteString("\n")
		return b.String()
	}
	cursor := m.cursors[m.active]
	selected := p.SelectedID()
	start, end := visibleWindow(len(rows), cursor, height-1)
	for i := start; i < end; i++ {
		r := rows[i]
		marker := "  "
		if r.id == selected {
			marker = "• "
		}
		line := renderRow(r.cells, widths)
		if i == cursor {
			b.WriteString(selectedStyle.Render(marker + line))
		} else {
			b.WriteString(rowStyle.Render(marker + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) statusLine(p pane, width int) string {
	parts := []string{fmt.Sprintf("%d shown / %d loaded", len(p.Rows()), p.Total())}
	if term := p.SearchTerm(); term != "" {
		parts = append(parts, "filter: "+term)
	}
	if f := describeFilters(p.Filters()); f != "" {
		parts = append(parts, f)
	}
	line := strings.Join(parts, "  ")
	if p.InFlight() > 0 {
		line = m.spinner.View() + " " + line
	}
	return statusStyle.Render(truncateToWidth(line, width))
}

func describeFilters(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if !types.IsFilterAll(v) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + filters[k]
	}
	return strings.Join(parts, " ")
}
