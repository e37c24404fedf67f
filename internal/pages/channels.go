package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/config"
	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

type channelField int

const (
	fieldTgToken channelField = iota
	fieldTgAllow
	fieldDcToken
	fieldDcChannel
	fieldDcAllow
	channelFieldCount
)

// ChannelsPage edits the Telegram and Discord bridge settings and pushes
// them to the board.
type ChannelsPage struct {
	cfg     *config.Config
	cfgPath string
	session *serial.Session

	inputs    [channelFieldCount]textinput.Model
	focused   channelField
	tgEnabled bool
	dcEnabled bool
	message   string
	width     int
	height    int
}

func NewChannelsPage(cfg *config.Config, cfgPath string, session *serial.Session) *ChannelsPage {
	p := &ChannelsPage{cfg: cfg, cfgPath: cfgPath, session: session}

	placeholders := [channelFieldCount]string{
		"bot token from @BotFather",
		"allowed user IDs, comma separated",
		"bot token",
		"channel ID",
		"allowed user IDs, comma separated",
	}
	for i := range p.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 256
		in.Prompt = ""
		p.inputs[i] = in
	}
	p.inputs[fieldTgToken].EchoMode = textinput.EchoPassword
	p.inputs[fieldDcToken].EchoMode = textinput.EchoPassword

	p.loadFromConfig()
	return p
}

func (p *ChannelsPage) loadFromConfig() {
	ch := p.cfg.Channels
	p.tgEnabled = ch.Telegram.Enabled
	p.dcEnabled = ch.Discord.Enabled
	p.inputs[fieldTgToken].SetValue(ch.Telegram.Token)
	p.inputs[fieldTgAllow].SetValue(strings.Join(ch.Telegram.AllowFrom, ","))
	p.inputs[fieldDcToken].SetValue(ch.Discord.Token)
	p.inputs[fieldDcChannel].SetValue(ch.Discord.ChannelID)
	p.inputs[fieldDcAllow].SetValue(strings.Join(ch.Discord.AllowFrom, ","))
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (p *ChannelsPage) collect() {
	p.cfg.Channels.Telegram = config.Telegram{
		Enabled:   p.tgEnabled,
		Token:     p.inputs[fieldTgToken].Value(),
		AllowFrom: splitIDs(p.inputs[fieldTgAllow].Value()),
	}
	p.cfg.Channels.Discord = config.Discord{
		Enabled:   p.dcEnabled,
		Token:     p.inputs[fieldDcToken].Value(),
		ChannelID: p.inputs[fieldDcChannel].Value(),
		AllowFrom: splitIDs(p.inputs[fieldDcAllow].Value()),
	}
}

func (p *ChannelsPage) Name() string { return "Channels" }

func (p *ChannelsPage) Init() tea.Cmd { return nil }

func (p *ChannelsPage) InputCaptured() bool {
	for i := range p.inputs {
		if p.inputs[i].Focused() {
			return true
		}
	}
	return false
}

func (p *ChannelsPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle telegram")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "toggle discord")),
		key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "push telegram")),
		key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "push discord")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "push all")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	}
}

func (p *ChannelsPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
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

func (p *ChannelsPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	if p.InputCaptured() {
		switch msg.String() {
		case "esc", "enter":
			p.inputs[p.focused].Blur()
			return p, nil
		case "tab":
			p.inputs[p.focused].Blur()
			p.focused = (p.focused + 1) % channelFieldCount
			return p, p.inputs[p.focused].Focus()
		}
		var cmd tea.Cmd
		p.inputs[p.focused], cmd = p.inputs[p.focused].Update(msg)
		return p, cmd
	}

	switch msg.String() {
	case "up":
		p.focused = (p.focused - 1 + channelFieldCount) % channelFieldCount
	case "down", "tab":
		p.focused = (p.focused + 1) % channelFieldCount
	case "enter":
		return p, p.inputs[p.focused].Focus()
	case "t":
		p.tgEnabled = !p.tgEnabled
	case "d":
		p.dcEnabled = !p.dcEnabled
	case "T":
		p.collect()
		return p, p.push(p.cfg.Channels.TelegramCommands())
	case "D":
		p.collect()
		return p, p.push(p.cfg.Channels.DiscordCommands())
	case "a":
		p.collect()
		all := append(p.cfg.Channels.TelegramCommands(), p.cfg.Channels.DiscordCommands()...)
		return p, p.push(all)
	case "s":
		p.collect()
		if err := config.Save(*p.cfg, p.cfgPath); err != nil {
			p.message = fmt.Sprintf("save failed: %v", err)
		} else {
			p.message = "✓ saved " + p.cfgPath
		}
	}
	return p, nil
}

func (p *ChannelsPage) push(cmds []string) tea.Cmd {
	if !p.session.Connected() {
		p.message = "connect to the board first"
		return nil
	}
	p.message = fmt.Sprintf("pushing %d commands…", len(cmds))
	return pushCommands(p.session, cmds)
}

func onOff(enabled bool) string {
	if enabled {
		return ui.LogOKStyle.Render("enabled")
	}
	return ui.DimStyle.Render("disabled")
}

func (p *ChannelsPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	for i := range p.inputs {
		p.inputs[i].Width = width - 24
	}
}

func (p *ChannelsPage) View() string {
	labels := [channelFieldCount]string{
		"Token", "Allow from", "Token", "Channel ID", "Allow from",
	}

	row := func(f channelField) string {
		marker := "  "
		if f == p.focused {
			marker = ui.AccentStyle.Render("▸ ")
		}
		return fmt.Sprintf("%s%-11s %s", marker, labels[f]+":", p.inputs[f].View())
	}

	tg := lipgloss.JoinVertical(lipgloss.Left,
		ui.BoldStyle.Render("Telegram")+"  "+onOff(p.tgEnabled),
		row(fieldTgToken),
		row(fieldTgAllow),
	)
	dc := lipgloss.JoinVertical(lipgloss.Left,
		ui.BoldStyle.Render("Discord")+"  "+onOff(p.dcEnabled),
		row(fieldDcToken),
		row(fieldDcChannel),
		row(fieldDcAllow),
	)

	parts := []string{ui.Title("Chat Channels"), tg, "", dc}
	if p.message != "" {
		parts = append(parts, "", ui.DimStyle.Render(p.message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
