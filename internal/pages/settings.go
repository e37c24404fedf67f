package pages

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/config"
	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

// sendGap paces console commands so the firmware's line parser keeps up.
const sendGap = 180 * time.Millisecond

// PushDoneMsg reports the outcome of pushing a command batch to the board.
type PushDoneMsg struct {
	Sent int
	Err  error
}

// pushCommands writes a command batch to the device off the UI loop.
func pushCommands(session *serial.Session, cmds []string) tea.Cmd {
	return func() tea.Msg {
		for i, cmd := range cmds {
			if err := session.SendLine(cmd); err != nil {
				return PushDoneMsg{Sent: i, Err: err}
			}
			time.Sleep(sendGap)
		}
		return PushDoneMsg{Sent: len(cmds)}
	}
}

type settingsField int

const (
	fieldSSID settingsField = iota
	fieldWiFiPass
	fieldAPIKey
	fieldAPIBase
	fieldModel
	fieldMaxTokens
	fieldTemperature
	settingsFieldCount
)

// SettingsPage edits the WiFi and LLM configuration and pushes it to the
// board over the serial console.
type SettingsPage struct {
	cfg     *config.Config
	cfgPath string
	session *serial.Session

	inputs  [settingsFieldCount]textinput.Model
	focused settingsField
	provIdx int
	message string
	width   int
	height  int
}

func NewSettingsPage(cfg *config.Config, cfgPath string, session *serial.Session) *SettingsPage {
	p := &SettingsPage{cfg: cfg, cfgPath: cfgPath, session: session}

	labels := [settingsFieldCount]string{
		"network name", "password", "sk-...", "https://...", "model id", "1024", "0.70",
	}
	for i := range p.inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.CharLimit = 256
		in.Prompt = ""
		p.inputs[i] = in
	}
	p.inputs[fieldWiFiPass].EchoMode = textinput.EchoPassword
	p.inputs[fieldAPIKey].EchoMode = textinput.EchoPassword

	p.loadFromConfig()
	return p
}

func (p *SettingsPage) loadFromConfig() {
	p.inputs[fieldSSID].SetValue(p.cfg.WiFiSSID)
	p.inputs[fieldWiFiPass].SetValue(p.cfg.WiFiPass)
	p.inputs[fieldAPIKey].SetValue(p.cfg.LLMAPIKey)
	p.inputs[fieldAPIBase].SetValue(p.cfg.LLMAPIBase)
	p.inputs[fieldModel].SetValue(p.cfg.LLMModel)
	p.inputs[fieldMaxTokens].SetValue(strconv.Itoa(p.cfg.MaxTokens))
	p.inputs[fieldTemperature].SetValue(fmt.Sprintf("%.2f", p.cfg.Temperature))

	for i, prov := range config.Providers() {
		if prov.Name == p.cfg.LLMProvider {
			p.provIdx = i
			break
		}
	}
}

func (p *SettingsPage) collect() {
	p.cfg.WiFiSSID = p.inputs[fieldSSID].Value()
	p.cfg.WiFiPass = p.inputs[fieldWiFiPass].Value()
	p.cfg.LLMProvider = config.Providers()[p.provIdx].Name
	p.cfg.LLMAPIKey = p.inputs[fieldAPIKey].Value()
	p.cfg.LLMAPIBase = p.inputs[fieldAPIBase].Value()
	p.cfg.LLMModel = p.inputs[fieldModel].Value()
	if n, err := strconv.Atoi(p.inputs[fieldMaxTokens].Value()); err == nil && n > 0 {
		p.cfg.MaxTokens = n
	}
	if t, err := strconv.ParseFloat(p.inputs[fieldTemperature].Value(), 64); err == nil && t >= 0 {
		p.cfg.Temperature = t
	}
}

func (p *SettingsPage) Name() string { return "LLM & WiFi" }

func (p *SettingsPage) Init() tea.Cmd { return nil }

func (p *SettingsPage) InputCaptured() bool {
	for i := range p.inputs {
		if p.inputs[i].Focused() {
			return true
		}
	}
	return false
}

func (p *SettingsPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "provider")),
		key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "model preset")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "push to board")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit field")),
	}
}

func (p *SettingsPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case PushDoneMsg:
		if msg.Err != nil {
			p.message = fmt.Sprintf("push failed after %d commands: %v", msg.Sent, msg.Err)
		} else {
			p.message = fmt.Sprintf("✓ pushed %d commands to board", msg.Sent)
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *SettingsPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	if p.InputCaptured() {
		switch msg.String() {
		case "esc", "enter":
			p.inputs[p.focused].Blur()
			return p, nil
		case "tab":
			p.inputs[p.focused].Blur()
			p.focused = (p.focused + 1) % settingsFieldCount
			return p, p.inputs[p.focused].Focus()
		}
		var cmd tea.Cmd
		p.inputs[p.focused], cmd = p.inputs[p.focused].Update(msg)
		return p, cmd
	}

	switch msg.String() {
	case "up":
		p.focused = (p.focused - 1 + settingsFieldCount) % settingsFieldCount
	case "down", "tab":
		p.focused = (p.focused + 1) % settingsFieldCount
	case "enter":
		return p, p.inputs[p.focused].Focus()
	case "p":
		p.cycleProvider()
	case "m":
		p.applyNextModelPreset()
	case "s":
		p.collect()
		if err := config.Save(*p.cfg, p.cfgPath); err != nil {
			p.message = fmt.Sprintf("save failed: %v", err)
		} else {
			p.message = "✓ saved " + p.cfgPath
		}
	case "u":
		return p, p.push()
	}
	return p, nil
}

func (p *SettingsPage) cycleProvider() {
	p.provIdx = (p.provIdx + 1) % len(config.Providers())
	prov := config.Providers()[p.provIdx]
	p.inputs[fieldAPIBase].SetValue(prov.APIBase)
	p.inputs[fieldModel].SetValue(prov.Model)
}

// applyNextModelPreset steps through the quick model presets, updating
// provider, model and API base together.
func (p *SettingsPage) applyNextModelPreset() {
	presets := config.ModelPresets()
	cur := p.inputs[fieldModel].Value()
	next := presets[0]
	for i, preset := range presets {
		if preset.Model == cur {
			next = presets[(i+1)%len(presets)]
			break
		}
	}
	p.inputs[fieldModel].SetValue(next.Model)
	p.inputs[fieldAPIBase].SetValue(next.APIBase)
	for i, prov := range config.Providers() {
		if prov.Name == next.Provider {
			p.provIdx = i
			break
		}
	}
	p.message = "preset: " + next.Label
}

func (p *SettingsPage) push() tea.Cmd {
	if !p.session.Connected() {
		p.message = "connect to the board first"
		return nil
	}
	p.collect()
	cmds := p.cfg.PushCommands()
	if len(cmds) == 0 {
		p.message = "nothing to push"
		return nil
	}
	p.message = fmt.Sprintf("pushing %d commands…", len(cmds))
	return pushCommands(p.session, cmds)
}

func (p *SettingsPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	for i := range p.inputs {
		p.inputs[i].Width = width - 24
	}
}

func (p *SettingsPage) View() string {
	labels := [settingsFieldCount]string{
		"WiFi SSID", "WiFi Pass", "API Key", "API Base", "Model", "Max Tokens", "Temperature",
	}

	var rows []string
	rows = append(rows, "Provider:    "+ui.AccentStyle.Render(config.Providers()[p.provIdx].Name))
	for i := range p.inputs {
		marker := "  "
		if settingsField(i) == p.focused {
			marker = ui.AccentStyle.Render("▸ ")
		}
		rows = append(rows, fmt.Sprintf("%s%-11s %s", marker, labels[i]+":", p.inputs[i].View()))
	}

	parts := []string{ui.Title("LLM & WiFi"), lipgloss.JoinVertical(lipgloss.Left, rows...)}
	if p.message != "" {
		parts = append(parts, "", ui.DimStyle.Render(p.message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
