package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/store"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

// ConsoleLineMsg carries one decoded line from the device.
type ConsoleLineMsg struct {
	Line string
}

var bauds = []int{115200, 230400, 460800, 921600, 9600}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// completions is the firmware console vocabulary offered on tab.
var completions = []string{
	"help", "status", "connect", "wifi ", "set llm_model ",
	"set llm_api_key ", "set llm_provider ", "set wifi_ssid ",
	"show config", "chat ", "reset session", "reboot",
	"tg token ", "tg allow ", "tg enable", "tg disable",
	"dc token ", "dc channel ", "dc allow ", "dc enable", "dc disable",
}

// TerminalPage is the interactive serial console for a connected board.
type TerminalPage struct {
	session *serial.Session
	store   *store.Store
	log     *logView
	logFile *os.File
	input   textinput.Model

	history []string
	hidx    int

	selectedPort string
	baudIdx      int
	width        int
	height       int
}

func NewTerminalPage(session *serial.Session, st *store.Store) *TerminalPage {
	in := textinput.New()
	in.Placeholder = "command (tab completes, up/down for history)"
	in.CharLimit = 512
	in.Prompt = "> "

	return &TerminalPage{
		session: session,
		store:   st,
		log:     newLogView(),
		input:   in,
	}
}

func (p *TerminalPage) Name() string { return "Terminal" }

// Preselect seeds the port and baud rate from command line flags.
func (p *TerminalPage) Preselect(port string, baud int) {
	p.selectedPort = port
	for i, b := range bauds {
		if b == baud {
			p.baudIdx = i
			break
		}
	}
}

func (p *TerminalPage) Init() tea.Cmd {
	return listenLines(p.session.Lines())
}

// listenLines blocks on the session line channel and resolves to the next
// device line. Re-armed after every message.
func listenLines(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		return ConsoleLineMsg{Line: <-ch}
	}
}

func (p *TerminalPage) InputCaptured() bool { return p.input.Focused() }

func (p *TerminalPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
		key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "baud")),
		key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "input")),
		key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
	}
}

func (p *TerminalPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case ConsoleLineMsg:
		p.appendDeviceLine(msg.Line)
		return p, listenLines(p.session.Lines())

	case app.PortsRefreshedMsg:
		p.selectedPort = serial.PreserveSelection(msg.Ports, p.selectedPort)
		return p, nil

	case app.PortSelectedMsg:
		p.selectedPort = msg.Port
		return p, nil

	case app.DeviceLostMsg:
		p.log.appendStyled(fmt.Sprintf("[Device on %s unplugged]", msg.Port), ui.LogErrorStyle)
		p.closeLogFile()
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	var cmd tea.Cmd
	p.log.viewport, cmd = p.log.viewport.Update(msg)
	return p, cmd
}

func (p *TerminalPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	if p.input.Focused() {
		switch msg.String() {
		case "esc":
			p.input.Blur()
			return p, nil
		case "enter":
			p.submit()
			return p, nil
		case "up":
			p.historyUp()
			return p, nil
		case "down":
			p.historyDown()
			return p, nil
		case "tab":
			p.complete()
			return p, nil
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}

	switch msg.String() {
	case "i", "enter":
		return p, p.input.Focus()
	case "c":
		p.connect()
		return p, nil
	case "d":
		p.disconnect()
		return p, nil
	case "B":
		p.baudIdx = (p.baudIdx + 1) % len(bauds)
		return p, nil
	case "ctrl+l":
		p.log.clear()
		return p, nil
	}

	var cmd tea.Cmd
	p.log.viewport, cmd = p.log.viewport.Update(msg)
	return p, cmd
}

func (p *TerminalPage) connect() {
	if p.session.Connected() {
		return
	}
	baud := bauds[p.baudIdx]
	if err := p.session.Connect(p.selectedPort, baud); err != nil {
		p.log.appendStyled(fmt.Sprintf("[connect failed] %v", err), ui.LogErrorStyle)
		return
	}
	p.log.appendStyled(fmt.Sprintf("[Connected to %s @ %d baud]", p.selectedPort, baud), ui.LogOKStyle)
	if p.store != nil {
		logPath := p.openLogFile()
		p.store.AddSession(store.SessionRecord{
			Port:      p.selectedPort,
			BaudRate:  baud,
			Timestamp: time.Now().UTC(),
			LogFile:   logPath,
		})
	}
}

// openLogFile starts a raw capture of device output for this session.
// A capture failure is reported but never blocks the connection.
func (p *TerminalPage) openLogFile() string {
	dir, err := p.store.LogsDir()
	if err != nil {
		p.log.appendStyled(fmt.Sprintf("[log capture unavailable] %v", err), ui.LogWarnStyle)
		return ""
	}
	path := filepath.Join(dir, "session-"+time.Now().Format("20060102-150405")+".log")
	f, err := os.Create(path)
	if err != nil {
		p.log.appendStyled(fmt.Sprintf("[log capture unavailable] %v", err), ui.LogWarnStyle)
		return ""
	}
	p.logFile = f
	return path
}

func (p *TerminalPage) closeLogFile() {
	if p.logFile != nil {
		p.logFile.Close()
		p.logFile = nil
	}
}

func (p *TerminalPage) disconnect() {
	if !p.session.Connected() {
		return
	}
	p.session.Disconnect()
	p.closeLogFile()
	p.log.appendStyled("[Disconnected]", ui.LogWarnStyle)
}

func (p *TerminalPage) submit() {
	cmd := strings.TrimSpace(p.input.Value())
	if cmd == "" {
		return
	}
	if len(p.history) == 0 || p.history[len(p.history)-1] != cmd {
		p.history = append(p.history, cmd)
	}
	p.hidx = len(p.history)
	p.input.SetValue("")

	if !p.session.Connected() {
		p.log.appendStyled("[Not connected] "+cmd, ui.LogErrorStyle)
		return
	}
	p.log.appendStyled("$ "+cmd, ui.UserStyle)
	if err := p.session.SendLine(cmd); err != nil {
		p.log.appendStyled(fmt.Sprintf("[error] %v", err), ui.LogErrorStyle)
	}
}

func (p *TerminalPage) historyUp() {
	if len(p.history) > 0 && p.hidx > 0 {
		p.hidx--
		p.input.SetValue(p.history[p.hidx])
		p.input.CursorEnd()
	}
}

func (p *TerminalPage) historyDown() {
	if p.hidx < len(p.history)-1 {
		p.hidx++
		p.input.SetValue(p.history[p.hidx])
		p.input.CursorEnd()
	} else {
		p.hidx = len(p.history)
		p.input.SetValue("")
	}
}

func (p *TerminalPage) complete() {
	pre := p.input.Value()
	var matches []string
	for _, c := range completions {
		if strings.HasPrefix(c, pre) {
			matches = append(matches, c)
		}
	}
	switch {
	case len(matches) == 1:
		p.input.SetValue(matches[0])
		p.input.CursorEnd()
	case len(matches) > 1:
		p.log.appendStyled(strings.Join(matches, "  "), ui.DimStyle)
	}
}

// appendDeviceLine colours a received line by the firmware's log prefix.
func (p *TerminalPage) appendDeviceLine(raw string) {
	line := stripANSI(raw)
	if p.logFile != nil {
		fmt.Fprintln(p.logFile, line)
	}
	style := ui.LogDebugStyle
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(line, "[femtoclaw]"):
		style = ui.AgentStyle
	case strings.Contains(line, "[tool:"):
		style = ui.ToolStyle
	case strings.Contains(line, "[Telegram]"):
		style = ui.TelegramStyle
	case strings.Contains(line, "[Discord]"):
		style = ui.DiscordStyle
	case strings.Contains(line, "[WiFi]"):
		style = ui.LogInfoStyle
	case strings.Contains(line, "[heartbeat]"):
		style = ui.LogWarnStyle
	case strings.Contains(line, "[!") || strings.Contains(lower, "error"):
		style = ui.LogErrorStyle
	case strings.Contains(line, "femtoclaw>"):
		style = ui.PromptStyle
	case strings.Contains(lower, "connected") || strings.Contains(line, "✓"):
		style = ui.LogOKStyle
	}
	p.log.appendStyled(line, style)
}

func (p *TerminalPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	logHeight := height - 6
	if logHeight < 4 {
		logHeight = 4
	}
	p.log.setSize(width-4, logHeight)
	p.input.Width = width - 8
}

func (p *TerminalPage) View() string {
	state := ui.ConnBadge(p.session.Connected(), p.session.Device())
	header := fmt.Sprintf("%s   Port: %s   Baud: %d", state, orNone(p.selectedPort), bauds[p.baudIdx])

	return lipgloss.JoinVertical(lipgloss.Left,
		ui.Title("Device Terminal"),
		header,
		ui.Panel("console", p.log.viewport.View(), p.width-2, p.log.viewport.Height+2, p.input.Focused()),
		p.input.View(),
	)
}
