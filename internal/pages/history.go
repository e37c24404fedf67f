package pages

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/store"
	"github.com/amsamiul/femtoclaw/internal/tools"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

type historyTab int

const (
	tabFlashes historyTab = iota
	tabBuilds
)

// HistoryPage lists past flash and build jobs from the on-disk store.
type HistoryPage struct {
	store   *store.Store
	tab     historyTab
	flashes table.Model
	builds  table.Model
	message string
	width   int
	height  int
}

func NewHistoryPage(st *store.Store) *HistoryPage {
	flashes := table.New(
		table.WithColumns([]table.Column{
			{Title: "When", Width: 19},
			{Title: "Board", Width: 10},
			{Title: "Port", Width: 16},
			{Title: "Result", Width: 10},
			{Title: "Duration", Width: 10},
		}),
		table.WithFocused(true),
	)
	builds := table.New(
		table.WithColumns([]table.Column{
			{Title: "When", Width: 19},
			{Title: "Board", Width: 10},
			{Title: "Env", Width: 10},
			{Title: "Result", Width: 10},
			{Title: "Duration", Width: 10},
		}),
	)
	return &HistoryPage{store: st, flashes: flashes, builds: builds}
}

func (p *HistoryPage) Name() string { return "History" }

func (p *HistoryPage) Init() tea.Cmd {
	p.reload()
	return nil
}

func (p *HistoryPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "flashes/builds")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func result(success, cancelled bool) string {
	switch {
	case cancelled:
		return "cancelled"
	case success:
		return "ok"
	default:
		return "failed"
	}
}

func (p *HistoryPage) reload() {
	p.message = ""

	flashes, err := p.store.Flashes()
	if err != nil {
		p.message = fmt.Sprintf("load flashes: %v", err)
	}
	rows := make([]table.Row, 0, len(flashes))
	for i := len(flashes) - 1; i >= 0; i-- {
		r := flashes[i]
		rows = append(rows, table.Row{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Board, r.Port, result(r.Success, r.Cancelled), r.Duration,
		})
	}
	p.flashes.SetRows(rows)

	builds, err := p.store.Builds()
	if err != nil {
		p.message = fmt.Sprintf("load builds: %v", err)
	}
	rows = make([]table.Row, 0, len(builds))
	for i := len(builds) - 1; i >= 0; i-- {
		r := builds[i]
		rows = append(rows, table.Row{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Board, r.Env, result(r.Success, r.Cancelled), r.Duration,
		})
	}
	p.builds.SetRows(rows)
}

func (p *HistoryPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tools.JobDoneMsg:
		// A record lands in the store after every job.
		p.reload()
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if p.tab == tabFlashes {
				p.tab = tabBuilds
				p.flashes.Blur()
				p.builds.Focus()
			} else {
				p.tab = tabFlashes
				p.builds.Blur()
				p.flashes.Focus()
			}
			return p, nil
		case "r":
			p.reload()
			return p, nil
		}
		var cmd tea.Cmd
		if p.tab == tabFlashes {
			p.flashes, cmd = p.flashes.Update(msg)
		} else {
			p.builds, cmd = p.builds.Update(msg)
		}
		return p, cmd
	}
	return p, nil
}

func (p *HistoryPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	h := height - 6
	if h < 3 {
		h = 3
	}
	p.flashes.SetHeight(h)
	p.builds.SetHeight(h)
}

func (p *HistoryPage) View() string {
	var tabLine, body string
	if p.tab == tabFlashes {
		tabLine = ui.AccentStyle.Render("● Flashes") + "  " + ui.DimStyle.Render("○ Builds")
		body = p.flashes.View()
	} else {
		tabLine = ui.DimStyle.Render("○ Flashes") + "  " + ui.AccentStyle.Render("● Builds")
		body = p.builds.View()
	}

	parts := []string{ui.Title("Job History"), tabLine, "", body}
	if p.message != "" {
		parts = append(parts, ui.LogWarnStyle.Render(p.message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
