package pages

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/amsamiul/femtoclaw/internal/config"
	"github.com/amsamiul/femtoclaw/internal/serial"
)

func newTestSettingsPage(t *testing.T) (*SettingsPage, *config.Config) {
	t.Helper()
	cfg := config.Defaults()
	path := filepath.Join(t.TempDir(), "femtoclaw.json")
	p := NewSettingsPage(&cfg, path, serial.NewSession())
	p.SetSize(100, 30)
	return p, &cfg
}

func TestSettingsLoadsConfigIntoInputs(t *testing.T) {
	cfg := config.Defaults()
	cfg.WiFiSSID = "lab"
	cfg.LLMProvider = "groq"
	p := NewSettingsPage(&cfg, "x.json", serial.NewSession())

	if p.inputs[fieldSSID].Value() != "lab" {
		t.Errorf("ssid = %q", p.inputs[fieldSSID].Value())
	}
	if got := config.Providers()[p.provIdx].Name; got != "groq" {
		t.Errorf("provider = %q", got)
	}
}

func TestSettingsCollect(t *testing.T) {
	p, cfg := newTestSettingsPage(t)
	p.inputs[fieldSSID].SetValue("home")
	p.inputs[fieldMaxTokens].SetValue("2048")
	p.inputs[fieldTemperature].SetValue("0.30")
	p.collect()

	if cfg.WiFiSSID != "home" || cfg.MaxTokens != 2048 || cfg.Temperature != 0.3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestSettingsCollectIgnoresBadNumbers(t *testing.T) {
	p, cfg := newTestSettingsPage(t)
	p.inputs[fieldMaxTokens].SetValue("lots")
	p.collect()
	if cfg.MaxTokens != config.DefaultMaxTokens {
		t.Errorf("max tokens = %d", cfg.MaxTokens)
	}
}

func TestSettingsCycleProviderAppliesPreset(t *testing.T) {
	p, _ := newTestSettingsPage(t)
	start := p.provIdx
	p.cycleProvider()
	if p.provIdx == start {
		t.Fatal("provider did not advance")
	}
	prov := config.Providers()[p.provIdx]
	if p.inputs[fieldAPIBase].Value() != prov.APIBase {
		t.Errorf("api base = %q, want %q", p.inputs[fieldAPIBase].Value(), prov.APIBase)
	}
	if p.inputs[fieldModel].Value() != prov.Model {
		t.Errorf("model = %q, want %q", p.inputs[fieldModel].Value(), prov.Model)
	}
}

func TestSettingsModelPresetCycle(t *testing.T) {
	p, _ := newTestSettingsPage(t)
	presets := config.ModelPresets()

	p.applyNextModelPreset()
	if p.inputs[fieldModel].Value() != presets[0].Model {
		t.Errorf("model = %q, want first preset", p.inputs[fieldModel].Value())
	}
	p.applyNextModelPreset()
	if p.inputs[fieldModel].Value() != presets[1].Model {
		t.Errorf("model = %q, want second preset", p.inputs[fieldModel].Value())
	}
}

func TestSettingsPushRequiresConnection(t *testing.T) {
	p, _ := newTestSettingsPage(t)
	if cmd := p.push(); cmd != nil {
		t.Error("push returned a command while disconnected")
	}
	if !strings.Contains(p.message, "connect") {
		t.Errorf("message = %q", p.message)
	}
}

func TestSettingsSaveWritesFile(t *testing.T) {
	p, _ := newTestSettingsPage(t)
	p.inputs[fieldSSID].SetValue("persisted")

	page, _ := p.handleKey(keyMsg("s"))
	p = page.(*SettingsPage)
	if !strings.Contains(p.message, "saved") {
		t.Fatalf("message = %q", p.message)
	}

	loaded, err := config.Load(p.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.WiFiSSID != "persisted" {
		t.Errorf("loaded ssid = %q", loaded.WiFiSSID)
	}
}
