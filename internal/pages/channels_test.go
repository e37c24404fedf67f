package pages

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/amsamiul/femtoclaw/internal/config"
	"github.com/amsamiul/femtoclaw/internal/serial"
)

func newTestChannelsPage(t *testing.T) (*ChannelsPage, *config.Config) {
	t.Helper()
	cfg := config.Defaults()
	path := filepath.Join(t.TempDir(), "femtoclaw.json")
	p := NewChannelsPage(&cfg, path, serial.NewSession())
	p.SetSize(100, 30)
	return p, &cfg
}

func TestSplitIDs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"42", []string{"42"}},
		{"42, 43 ,44", []string{"42", "43", "44"}},
		{" , ,", nil},
	}
	for _, c := range cases {
		if got := splitIDs(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("splitIDs(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestChannelsCollect(t *testing.T) {
	p, cfg := newTestChannelsPage(t)
	p.tgEnabled = true
	p.inputs[fieldTgToken].SetValue("123:abc")
	p.inputs[fieldTgAllow].SetValue("42,43")
	p.inputs[fieldDcChannel].SetValue("777")
	p.collect()

	tg := cfg.Channels.Telegram
	if !tg.Enabled || tg.Token != "123:abc" || !reflect.DeepEqual(tg.AllowFrom, []string{"42", "43"}) {
		t.Errorf("telegram = %+v", tg)
	}
	if cfg.Channels.Discord.ChannelID != "777" || cfg.Channels.Discord.Enabled {
		t.Errorf("discord = %+v", cfg.Channels.Discord)
	}
}

func TestChannelsLoadsExistingConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Channels.Discord = config.Discord{Enabled: true, Token: "xyz", ChannelID: "1", AllowFrom: []string{"7", "8"}}
	p := NewChannelsPage(&cfg, "x.json", serial.NewSession())

	if !p.dcEnabled || p.inputs[fieldDcToken].Value() != "xyz" {
		t.Errorf("discord inputs = %q enabled=%v", p.inputs[fieldDcToken].Value(), p.dcEnabled)
	}
	if p.inputs[fieldDcAllow].Value() != "7,8" {
		t.Errorf("allow = %q", p.inputs[fieldDcAllow].Value())
	}
}

func TestChannelsToggles(t *testing.T) {
	p, _ := newTestChannelsPage(t)
	page, _ := p.handleKey(keyMsg("t"))
	p = page.(*ChannelsPage)
	if !p.tgEnabled {
		t.Error("telegram not toggled on")
	}
	page, _ = p.handleKey(keyMsg("d"))
	p = page.(*ChannelsPage)
	if !p.dcEnabled {
		t.Error("discord not toggled on")
	}
}

func TestChannelsPushRequiresConnection(t *testing.T) {
	p, _ := newTestChannelsPage(t)
	if cmd := p.push([]string{"tg enable"}); cmd != nil {
		t.Error("push returned a command while disconnected")
	}
	if !strings.Contains(p.message, "connect") {
		t.Errorf("message = %q", p.message)
	}
}
