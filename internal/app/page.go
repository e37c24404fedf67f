package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amsamiul/femtoclaw/internal/serial"
)

// PageID identifies each page in the application.
type PageID int

const (
	FlashPage PageID = iota
	TerminalPage
	SettingsPage
	ChannelsPage
	HistoryPage
	AboutPage
)

var PageOrder = []PageID{
	FlashPage,
	TerminalPage,
	SettingsPage,
	ChannelsPage,
	HistoryPage,
	AboutPage,
}

// Page is the interface every page in the application implements.
type Page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Page, tea.Cmd)
	View() string
	Name() string
	ShortHelp() []key.Binding
	SetSize(width, height int)
}

// InputCapturer is an optional interface for pages with text inputs.
// When InputCaptured returns true, the app forwards all keys directly
// to the page instead of processing shortcuts like q, ?, left, etc.
type InputCapturer interface {
	InputCaptured() bool
}

// PortsRefreshedMsg is broadcast to all pages after each enumeration poll.
type PortsRefreshedMsg struct {
	Ports []serial.PortInfo
}

// PortSelectedMsg is broadcast when the user picks a serial port.
type PortSelectedMsg struct {
	Port string
}

// BoardSelectedMsg is broadcast when the user picks a target board.
type BoardSelectedMsg struct {
	Board string
}

// DeviceLostMsg is broadcast when the connected device disappears from the
// enumeration, i.e. a physical unplug.
type DeviceLostMsg struct {
	Port string
}
