package pages

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// AboutPage is a static info panel.
type AboutPage struct {
	width  int
	height int
}

func NewAboutPage() *AboutPage { return &AboutPage{} }

func (p *AboutPage) Name() string { return "About" }

func (p *AboutPage) Init() tea.Cmd { return nil }

func (p *AboutPage) ShortHelp() []key.Binding { return nil }

func (p *AboutPage) Update(msg tea.Msg) (app.Page, tea.Cmd) { return p, nil }

func (p *AboutPage) SetSize(width, height int) {
	p.width = width
	p.height = height
}

func (p *AboutPage) View() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		ui.TitleStyle.Render("🦞 FemtoClaw MCU Terminal"),
		ui.DimStyle.Render("v"+Version),
		"",
		"Flash and interact with FemtoClaw MCU boards.",
		"",
		"Channels:  Telegram long-poll · Discord REST polling",
		"Flashing:  esptool (ESP32) · picotool / UF2 drag-drop (Pico W)",
		"Shell:     UART CLI with chat, config, tg/dc and heartbeat",
		"",
		ui.DimStyle.Render("FemtoClaw firmware uses ~64 KB RAM and ~1 MB flash."),
		ui.DimStyle.Render("Inspired by github.com/sipeed/picoclaw (Apache-2.0);"),
		ui.DimStyle.Render("not affiliated with Sipeed."),
	)
	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, body)
}
