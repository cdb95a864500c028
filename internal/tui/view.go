package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/huddle-chat/huddle/internal/feed"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	reactionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	repliesStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	pillStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.headerTitle()))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.anchor.NewMessages() {
		b.WriteString(pillStyle.Render("new messages · ctrl+b to jump down"))
	} else {
		b.WriteString(statusStyle.Render(statusLine(m.status)))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) headerTitle() string {
	if m.thread != nil {
		if parent, ok := m.thread.Parent(); ok {
			return fmt.Sprintf("thread · %s (%d replies) · esc to close", parent.AuthorName, len(m.thread.Replies()))
		}
		return "thread · loading"
	}
	title := "#" + m.opts.ChannelName
	if m.pager.HasMore() {
		title += " · scroll up for history"
	}
	return title
}

func (m *Model) renderMessages() string {
	items := m.visibleItems()
	if len(items) == 0 {
		return timeStyle.Render("no messages yet")
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, m.renderItem(item, i == m.selected))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderItem(item feed.ListItem, selected bool) string {
	ts := timeStyle.Render(item.CreatedAt.Local().Format("15:04"))
	author := authorStyle.Render(item.AuthorName)

	content := item.Content
	if feed.IsOptimisticID(item.ID) {
		content = pendingStyle.Render(content + " (sending…)")
	}

	line := fmt.Sprintf("%s %s %s", ts, author, content)

	var extras []string
	if len(item.Reactions) > 0 {
		parts := make([]string, len(item.Reactions))
		for i, r := range item.Reactions {
			mark := ""
			if r.ReactedByMe {
				mark = "*"
			}
			parts[i] = fmt.Sprintf("%s %d%s", r.Emoji, r.Count, mark)
		}
		extras = append(extras, reactionStyle.Render(strings.Join(parts, "  ")))
	}
	if item.RepliesCount > 0 && m.thread == nil {
		extras = append(extras, repliesStyle.Render(fmt.Sprintf("%d replies · ctrl+t to open", item.RepliesCount)))
	}
	if len(extras) > 0 {
		line += "\n    " + strings.Join(extras, "   ")
	}

	if selected {
		return selectedStyle.Width(m.width).Render(line)
	}
	return line
}
