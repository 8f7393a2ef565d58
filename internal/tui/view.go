package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"categorydesk/internal/models"
	"categorydesk/internal/services"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	badgeStyle       = lipgloss.NewStyle().Background(lipgloss.Color("238")).Foreground(lipgloss.Color("15")).Padding(0, 1)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	bannerStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("214")).Padding(0, 1)
	selectedStyle    = lipgloss.NewStyle().Background(lipgloss.Color("63")).Foreground(lipgloss.Color("0"))
	markStyle        = lipgloss.NewStyle().Background(lipgloss.Color("227")).Foreground(lipgloss.Color("0"))
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	destructiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder

	if m.snapshot.Banner != "" {
		b.WriteString(bannerStyle.Render("Connection Status\n" + m.snapshot.Banner + "\n" + mutedStyle.Render("press r to retry")))
		b.WriteString("\n")
	}

	title := titleStyle.Render("Category Management")
	if m.snapshot.Demo() {
		title += " " + badgeStyle.Render("Demo Mode")
	}
	b.WriteString(title)
	b.WriteString("\n")
	if m.snapshot.Demo() {
		b.WriteString(mutedStyle.Render("Managing sample categories (changes won't be saved)"))
	} else {
		b.WriteString(mutedStyle.Render("Manage your application categories"))
	}
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	} else if m.search != "" {
		b.WriteString(fmt.Sprintf("Search: %s %s\n", m.search, mutedStyle.Render("(esc to clear)")))
	}
	if summary := services.Summarize(len(m.visible()), len(m.snapshot.Categories), m.search); summary != "" {
		b.WriteString(mutedStyle.Render(summary))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderList())

	if dialog := m.renderDialog(); dialog != "" {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(dialog))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if !m.notice.IsZero() {
		b.WriteString(renderNotice(m.notice))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(renderHelp(m.mode)))
	return b.String()
}

func (m Model) renderList() string {
	if m.loading {
		return mutedStyle.Render("Loading categories...") + "\n"
	}
	if len(m.snapshot.Categories) == 0 {
		return mutedStyle.Render("No categories found") + "\n" + "Press a to add your first category.\n"
	}

	visible := m.visible()
	if len(visible) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No categories match %q", m.search)) + "\n" + "Press esc to clear the search.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("  %-6s %s", "ID", "Name")))
	b.WriteString("\n")
	for i, c := range visible {
		cursor := "  "
		if i == m.cursor && m.mode == modeList {
			cursor = selectedStyle.Render(">") + " "
		}
		b.WriteString(fmt.Sprintf("%s%-6d %s\n", cursor, c.ID, renderName(c.Name, m.search)))
	}
	return b.String()
}

// renderName marks every occurrence of the search term.
func renderName(name, term string) string {
	var b strings.Builder
	for _, seg := range services.Highlight(name, term) {
		if seg.Match {
			b.WriteString(markStyle.Render(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func (m Model) renderDialog() string {
	var b strings.Builder

	switch m.mode {
	case modeAdd:
		b.WriteString(titleStyle.Render("Add New Category"))
		b.WriteString("\n" + mutedStyle.Render("Enter the name for the new category.") + "\n\n")
		b.WriteString(m.input.View())
	case modeEdit:
		b.WriteString(titleStyle.Render("Edit Category"))
		b.WriteString("\n" + mutedStyle.Render("Update the category name.") + "\n\n")
		b.WriteString(m.input.View())
	case modeBulk:
		b.WriteString(titleStyle.Render("Add Multiple Categories"))
		b.WriteString("\n" + mutedStyle.Render("Enter category names, one per line. Duplicate names will be automatically removed.") + "\n\n")
		b.WriteString(m.bulk.View())
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d categories to add", len(services.ParseBulkNames(m.bulk.Value())))))
		if m.progress != nil {
			b.WriteString("\n")
			b.WriteString(renderProgress(*m.progress))
		}
	case modeConfirmDelete:
		if m.pendingDel == nil {
			return ""
		}
		b.WriteString(titleStyle.Render("Delete Category"))
		b.WriteString("\nAre you sure you want to delete this category?\n")
		b.WriteString(mutedStyle.Render(m.pendingDel.Name))
		b.WriteString("\n\n[y] delete  [n] cancel")
	default:
		return ""
	}

	if m.dialogErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.dialogErr))
	}
	if m.busy && m.mode != modeBulk {
		b.WriteString("\n" + mutedStyle.Render("Saving..."))
	}
	return b.String()
}

func renderProgress(p models.BulkResult) string {
	const width = 30
	filled := 0
	if p.Total > 0 {
		filled = p.Processed() * width / p.Total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	out := fmt.Sprintf("Progress: %s %d / %d", bar, p.Completed, p.Total)
	if len(p.Failed) > 0 {
		out += "\n" + errorStyle.Render("Failed to create:") + " " + strings.Join(p.Failed, ", ")
	}
	return out
}

func renderNotice(n models.Notice) string {
	text := n.Title + ": " + n.Description
	if n.Destructive() {
		return destructiveStyle.Render(text)
	}
	return noticeStyle.Render(text)
}

func renderHelp(current mode) string {
	switch current {
	case modeSearch:
		return "type to filter • enter keep • esc clear"
	case modeAdd, modeEdit:
		return "enter save • esc cancel"
	case modeBulk:
		return "ctrl+s create • esc cancel"
	case modeConfirmDelete:
		return "y delete • n cancel"
	default:
		return "↑/↓ j/k move • / search • a add • b bulk add • e edit • d delete • r retry • q quit"
	}
}
