package pages

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/store"
	"github.com/amsamiul/femtoclaw/internal/tools"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

type flashField int

const (
	flashFieldPorts flashField = iota
	flashFieldSource
	flashFieldImage
	flashFieldCount
)

// FlashPage drives the compile and flash workflow: pick a port and board,
// compile a sketch with PlatformIO, then write the image to the device.
type FlashPage struct {
	ports     table.Model
	source    textinput.Model
	image     textinput.Model
	boardIdx  int
	focused   flashField
	log       *logView
	spin      spinner.Model
	prog      progress.Model
	progPct   int
	progText  string
	progShown bool

	sup     *tools.Supervisor
	session *serial.Session
	store   *store.Store

	selectedPort string
	jobStart     time.Time
	width        int
	height       int
	message      string
}

func NewFlashPage(sup *tools.Supervisor, session *serial.Session, st *store.Store) *FlashPage {
	src := textinput.New()
	src.Placeholder = "path to sketch (.cpp)"
	src.CharLimit = 512
	src.Prompt = ""

	img := textinput.New()
	img.Placeholder = "firmware image (.bin / .uf2)"
	img.CharLimit = 512
	img.Prompt = ""

	ports := table.New(
		table.WithColumns([]table.Column{
			{Title: "Port", Width: 18},
			{Title: "Description", Width: 34},
			{Title: "USB", Width: 5},
		}),
		table.WithFocused(true),
		table.WithHeight(5),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ui.Accent)

	return &FlashPage{
		ports:   ports,
		source:  src,
		image:   img,
		log:     newLogView(),
		spin:    sp,
		prog:    progress.New(progress.WithDefaultGradient()),
		sup:     sup,
		session: session,
		store:   st,
	}
}

func (p *FlashPage) Name() string { return "Flash" }

func (p *FlashPage) Init() tea.Cmd { return nil }

func (p *FlashPage) board() tools.Board {
	return tools.Boards()[p.boardIdx]
}

func (p *FlashPage) InputCaptured() bool {
	return p.source.Focused() || p.image.Focused()
}

func (p *FlashPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "board")),
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compile")),
		key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "flash")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel")),
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	}
}

func (p *FlashPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.PortsRefreshedMsg:
		p.setPorts(msg.Ports)
		return p, nil

	case app.DeviceLostMsg:
		p.log.appendSeverity(fmt.Sprintf("⚠ device on %s unplugged", msg.Port), tools.SeverityWarn)
		return p, nil

	case tools.LogLineMsg:
		p.log.appendSeverity(msg.Text, msg.Severity)
		return p, nil

	case tools.ProgressMsg:
		if msg.Percent == tools.ProgressHide {
			p.progShown = false
			return p, nil
		}
		p.progShown = true
		p.progPct = msg.Percent
		p.progText = msg.Status
		return p, nil

	case tools.BuildArtifactMsg:
		p.image.SetValue(msg.Path)
		p.log.appendSeverity("→ firmware path auto-filled, press f to flash", tools.SeverityOK)
		return p, nil

	case tools.JobDoneMsg:
		p.progShown = msg.Err != nil && !msg.Cancelled
		p.record(msg)
		return p, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		if p.sup.Busy() {
			return p, cmd
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	var cmd tea.Cmd
	p.log.viewport, cmd = p.log.viewport.Update(msg)
	return p, cmd
}

func (p *FlashPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	keyStr := msg.String()

	if p.InputCaptured() {
		switch keyStr {
		case "esc", "enter":
			p.source.Blur()
			p.image.Blur()
			return p, nil
		case "tab":
			p.advanceFocus(true)
			p.focusField(p.focused)
			return p, nil
		}
		var cmd tea.Cmd
		if p.source.Focused() {
			p.source, cmd = p.source.Update(msg)
		} else {
			p.image, cmd = p.image.Update(msg)
		}
		return p, cmd
	}

	switch keyStr {
	case "tab":
		p.advanceFocus(true)
		return p, nil
	case "b":
		p.boardIdx = (p.boardIdx + 1) % len(tools.Boards())
		return p, func() tea.Msg { return app.BoardSelectedMsg{Board: string(p.board())} }
	case "c":
		return p, p.startCompile()
	case "f":
		return p, p.startFlash()
	case "x":
		p.sup.Cancel(tools.JobBuild)
		p.sup.Cancel(tools.JobFlash)
		return p, nil
	case "enter":
		if p.focused == flashFieldPorts {
			if row := p.ports.SelectedRow(); len(row) > 0 {
				p.selectedPort = row[0]
				return p, func() tea.Msg { return app.PortSelectedMsg{Port: row[0]} }
			}
		} else {
			p.focusField(p.focused)
		}
		return p, nil
	}

	if p.focused == flashFieldPorts {
		var cmd tea.Cmd
		p.ports, cmd = p.ports.Update(msg)
		return p, cmd
	}
	var cmd tea.Cmd
	p.log.viewport, cmd = p.log.viewport.Update(msg)
	return p, cmd
}

func (p *FlashPage) advanceFocus(forward bool) {
	p.source.Blur()
	p.image.Blur()
	if forward {
		p.focused = (p.focused + 1) % flashFieldCount
	}
	if p.focused == flashFieldPorts {
		p.ports.Focus()
	} else {
		p.ports.Blur()
	}
}

func (p *FlashPage) focusField(f flashField) {
	switch f {
	case flashFieldSource:
		p.source.Focus()
	case flashFieldImage:
		p.image.Focus()
	}
}

func (p *FlashPage) setPorts(ports []serial.PortInfo) {
	rows := make([]table.Row, 0, len(ports))
	for _, info := range ports {
		usb := ""
		if info.Recognized() {
			usb = "✓"
		}
		rows = append(rows, table.Row{info.Device, info.Description, usb})
	}
	p.ports.SetRows(rows)
	p.selectedPort = serial.PreserveSelection(ports, p.selectedPort)
}

func (p *FlashPage) startCompile() tea.Cmd {
	if p.sup.Busy() {
		p.message = "already compiling or flashing"
		return nil
	}
	source := p.source.Value()
	if source == "" {
		p.message = "browse for the sketch first"
		return nil
	}
	p.message = ""
	p.jobStart = time.Now()
	if err := p.sup.StartBuild(p.board(), source); err != nil {
		p.log.appendSeverity(err.Error(), tools.SeverityError)
		return nil
	}
	return p.spin.Tick
}

func (p *FlashPage) startFlash() tea.Cmd {
	if p.sup.Busy() {
		p.message = "already compiling or flashing"
		return nil
	}
	image := p.image.Value()
	if image == "" {
		p.message = "compile first or point at a firmware image"
		return nil
	}
	board := p.board()
	if board.IsESP() && p.selectedPort == "" {
		p.message = "select a serial port first"
		return nil
	}

	// The flashing tool needs the port to itself.
	if p.session.Connected() {
		p.session.Disconnect()
		p.log.appendSeverity("[auto] closed serial session for flashing", tools.SeverityInfo)
	}

	p.message = ""
	p.jobStart = time.Now()
	if err := p.sup.StartFlash(board, image, p.selectedPort); err != nil {
		p.log.appendSeverity(err.Error(), tools.SeverityError)
		return nil
	}
	return p.spin.Tick
}

func (p *FlashPage) record(msg tools.JobDoneMsg) {
	if p.store == nil {
		return
	}
	switch msg.Kind {
	case tools.JobBuild:
		p.store.AddBuild(store.BuildRecord{
			Board:     string(p.board()),
			Env:       p.board().Env(),
			Source:    p.source.Value(),
			Timestamp: p.jobStart,
			Success:   msg.Err == nil && !msg.Cancelled,
			Cancelled: msg.Cancelled,
			Duration:  msg.Duration.Round(time.Millisecond).String(),
			Artifact:  p.image.Value(),
		})
	case tools.JobFlash:
		p.store.AddFlash(store.FlashRecord{
			Board:     string(p.board()),
			Port:      p.selectedPort,
			Image:     p.image.Value(),
			Timestamp: p.jobStart,
			Success:   msg.Err == nil && !msg.Cancelled,
			Cancelled: msg.Cancelled,
			Duration:  msg.Duration.Round(time.Millisecond).String(),
		})
	}
}

func (p *FlashPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	logHeight := height - 14
	if logHeight < 4 {
		logHeight = 4
	}
	p.log.setSize(width-4, logHeight)
	p.source.Width = width - 20
	p.image.Width = width - 20
}

func (p *FlashPage) View() string {
	var status string
	switch {
	case p.message != "":
		status = ui.LogWarnStyle.Render(p.message)
	case p.sup.Busy():
		status = p.spin.View() + " working…"
	}

	board := ui.AccentStyle.Render(string(p.board()))
	header := fmt.Sprintf("Board: %s   Port: %s", board, orNone(p.selectedPort))

	var progLine string
	if p.progShown {
		progLine = p.prog.ViewAs(float64(p.progPct)/100) + "  " + ui.DimStyle.Render(p.progText)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		p.ports.View(),
		"",
		"Sketch: "+p.source.View(),
		"Image:  "+p.image.View(),
	)

	parts := []string{ui.Title("Compile & Flash"), form}
	if progLine != "" {
		parts = append(parts, progLine)
	}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, ui.Panel("log", p.log.viewport.View(), p.width-2, p.log.viewport.Height+2, false))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
