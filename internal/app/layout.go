package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

const sidebarWidth = 22 // 20 content + 2 border/padding

func renderDeviceBar(selectedPort, board string, session *serial.Session, width int) string {
	portDisplay := selectedPort
	if portDisplay == "" {
		portDisplay = "(no port)"
	}
	boardDisplay := board
	if boardDisplay == "" {
		boardDisplay = "(no board)"
	}
	conn := ui.ConnBadge(session.Connected(), session.Device())
	content := fmt.Sprintf("Port: %s  Board: %s  %s", portDisplay, boardDisplay, conn)
	return ui.StatusBarStyle.Width(width).Render(content)
}

func renderSidebar(pages []PageID, active PageID, pageMap map[PageID]Page, height int, focused bool) string {
	var b strings.Builder
	title := "femtoclaw"
	if focused {
		title = ui.BoldStyle.Render("femtoclaw [FOCUSED]")
	} else {
		title = ui.TitleStyle.Render("femtoclaw")
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, id := range pages {
		p := pageMap[id]
		if id == active {
			b.WriteString(ui.SidebarActiveStyle.Render("▸ " + p.Name()))
		} else {
			b.WriteString(ui.SidebarItemStyle.Render("  " + p.Name()))
		}
		b.WriteString("\n")
	}

	style := ui.SidebarStyle.Height(height)
	if focused {
		style = style.BorderForeground(ui.Primary)
	}
	return style.Render(b.String())
}

func renderContent(view string, width, height int) string {
	return ui.ContentStyle.
		Width(width).
		Height(height).
		Render(view)
}

func renderStatusBar(pageHelp []key.Binding, width int, focus FocusArea) string {
	var parts []string

	if focus == FocusSidebar {
		parts = append(parts,
			ui.StatusKey("↑/↓", "navigate"),
			ui.StatusKey("enter", "select"),
		)
	} else {
		for _, kb := range pageHelp {
			if kb.Enabled() {
				parts = append(parts, ui.StatusKey(kb.Help().Key, kb.Help().Desc))
			}
		}
	}

	parts = append(parts,
		ui.StatusKey("tab", "focus"),
		ui.StatusKey("?", "help"),
		ui.StatusKey("q", "quit"),
	)

	line := strings.Join(parts, "  ")
	return ui.StatusBarStyle.Width(width).Render(line)
}

func renderLayout(deviceBar, sidebar, content, statusBar string) string {
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(lipgloss.Left, deviceBar, main, statusBar)
}
