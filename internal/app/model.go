package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amsamiul/femtoclaw/internal/serial"
)

// pollInterval is how often the serial ports are re-enumerated for
// hot-plug and hot-unplug detection.
const pollInterval = 3 * time.Second

type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusContent
)

type pollTickMsg struct{}

type Model struct {
	pages      map[PageID]Page
	activePage PageID
	focus      FocusArea
	width      int
	height     int
	showHelp   bool

	session      *serial.Session
	ports        []serial.PortInfo
	selectedPort string
	board        string
}

func New(pages map[PageID]Page, session *serial.Session, board, port string) Model {
	return Model{
		pages:        pages,
		session:      session,
		board:        board,
		selectedPort: port,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshPorts()}
	for _, p := range m.pages {
		if cmd := p.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func refreshPorts() tea.Cmd {
	return func() tea.Msg {
		ports, err := serial.ListPorts()
		if err != nil {
			return PortsRefreshedMsg{}
		}
		return PortsRefreshedMsg{Ports: ports}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := m.width - sidebarWidth
		contentHeight := m.height - 2 - 1 // status bar + device bar
		for _, p := range m.pages {
			p.SetSize(contentWidth, contentHeight)
		}
		return m, nil

	case pollTickMsg:
		return m, refreshPorts()

	case PortsRefreshedMsg:
		m.ports = msg.Ports
		m.selectedPort = serial.PreserveSelection(msg.Ports, m.selectedPort)

		cmds := []tea.Cmd{pollTick()}
		if lost, unplugged := m.session.Reconcile(msg.Ports); unplugged {
			cmds = append(cmds, func() tea.Msg { return DeviceLostMsg{Port: lost} })
		}
		cmds = append(cmds, m.broadcast(msg)...)
		return m, tea.Batch(cmds...)

	case PortSelectedMsg:
		m.selectedPort = msg.Port
		return m, tea.Batch(m.broadcast(msg)...)

	case BoardSelectedMsg:
		m.board = msg.Board
		return m, tea.Batch(m.broadcast(msg)...)

	case tea.KeyMsg:
		// When a page has an active text input, forward all keys
		// directly to the page; only ctrl+c still quits.
		if m.focus == FocusContent {
			if ic, ok := m.pages[m.activePage].(InputCapturer); ok && ic.InputCaptured() {
				if msg.String() == "ctrl+c" {
					return m, tea.Quit
				}
				page := m.pages[m.activePage]
				newPage, cmd := page.Update(msg)
				m.pages[m.activePage] = newPage
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, GlobalKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, GlobalKeys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, GlobalKeys.ToggleFocus):
			if m.focus == FocusSidebar {
				m.focus = FocusContent
				return m, nil
			}
			// When content focused, fall through to page handler
		}

		if m.focus == FocusSidebar {
			switch msg.String() {
			case "up":
				m.prevPage()
				return m, nil
			case "down":
				m.nextPage()
				return m, nil
			case "enter", "right":
				m.focus = FocusContent
				return m, nil
			}
		} else if m.focus == FocusContent {
			if msg.String() == "left" {
				m.focus = FocusSidebar
				return m, nil
			}
		}
	}

	// Key messages: only forward to active page when content is focused
	if _, isKey := msg.(tea.KeyMsg); isKey {
		if m.focus != FocusContent {
			return m, nil
		}
		page := m.pages[m.activePage]
		newPage, cmd := page.Update(msg)
		m.pages[m.activePage] = newPage
		return m, cmd
	}

	// Non-key messages (job output, serial lines, etc.): forward to all
	// pages so responses reach the page that initiated the command
	return m, tea.Batch(m.broadcast(msg)...)
}

func (m Model) broadcast(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	for id, page := range m.pages {
		newPage, cmd := page.Update(msg)
		m.pages[id] = newPage
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentWidth := m.width - sidebarWidth
	contentHeight := m.height - 2 - 1 // status bar + device bar

	page := m.pages[m.activePage]

	deviceBar := renderDeviceBar(m.selectedPort, m.board, m.session, m.width)
	sidebar := renderSidebar(PageOrder, m.activePage, m.pages, contentHeight, m.focus == FocusSidebar)
	content := renderContent(page.View(), contentWidth, contentHeight)
	statusBar := renderStatusBar(page.ShortHelp(), m.width, m.focus)

	return renderLayout(deviceBar, sidebar, content, statusBar)
}

func (m *Model) nextPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i+1)%len(PageOrder)]
			return
		}
	}
}

func (m *Model) prevPage() {
	for i, id := range PageOrder {
		if id == m.activePage {
			m.activePage = PageOrder[(i-1+len(PageOrder))%len(PageOrder)]
			return
		}
	}
}
