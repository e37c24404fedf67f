package pages

import (
	"os"
	"strings"
	"testing"

	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/store"
)

func newTestTerminalPage(t *testing.T) *TerminalPage {
	t.Helper()
	p := NewTerminalPage(serial.NewSession(), store.New(t.TempDir()))
	p.SetSize(100, 30)
	return p
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[32m[femtoclaw]\x1b[0m ready"
	if got := stripANSI(in); got != "[femtoclaw] ready" {
		t.Errorf("got %q", got)
	}
	if got := stripANSI("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestTerminalCompletionSingleMatch(t *testing.T) {
	p := newTestTerminalPage(t)
	p.input.SetValue("rebo")
	p.complete()
	if p.input.Value() != "reboot" {
		t.Errorf("input = %q", p.input.Value())
	}
}

func TestTerminalCompletionMultipleMatches(t *testing.T) {
	p := newTestTerminalPage(t)
	p.input.SetValue("tg ")
	p.complete()
	// Ambiguous prefix stays put and the candidates land in the log.
	if p.input.Value() != "tg " {
		t.Errorf("input = %q", p.input.Value())
	}
	if len(p.log.lines) != 1 || !strings.Contains(p.log.lines[0], "tg token") {
		t.Fatalf("log = %v", p.log.lines)
	}
}

func TestTerminalHistoryNavigation(t *testing.T) {
	p := newTestTerminalPage(t)
	p.history = []string{"help", "status"}
	p.hidx = len(p.history)

	p.historyUp()
	if p.input.Value() != "status" {
		t.Errorf("after up: %q", p.input.Value())
	}
	p.historyUp()
	if p.input.Value() != "help" {
		t.Errorf("after up up: %q", p.input.Value())
	}
	p.historyDown()
	if p.input.Value() != "status" {
		t.Errorf("after down: %q", p.input.Value())
	}
	p.historyDown()
	if p.input.Value() != "" {
		t.Errorf("after down past end: %q", p.input.Value())
	}
}

func TestTerminalSubmitNotConnected(t *testing.T) {
	p := newTestTerminalPage(t)
	p.input.SetValue("status")
	p.submit()

	if len(p.history) != 1 || p.history[0] != "status" {
		t.Fatalf("history = %v", p.history)
	}
	if p.input.Value() != "" {
		t.Error("input not cleared")
	}
	if len(p.log.lines) != 1 || !strings.Contains(p.log.lines[0], "[Not connected]") {
		t.Fatalf("log = %v", p.log.lines)
	}
}

func TestTerminalSubmitDeduplicatesHistory(t *testing.T) {
	p := newTestTerminalPage(t)
	for _, cmd := range []string{"help", "help", "status"} {
		p.input.SetValue(cmd)
		p.submit()
	}
	if len(p.history) != 2 {
		t.Fatalf("history = %v", p.history)
	}
}

func TestTerminalDeviceLineTagging(t *testing.T) {
	p := newTestTerminalPage(t)

	lines := []string{
		"[femtoclaw] thinking…",
		"[tool: wifi_scan] 3 networks",
		"[Telegram] message from 42",
		"[WiFi] got IP 192.168.1.7",
		"[!] heap low",
		"femtoclaw> ",
	}
	for _, line := range lines {
		p.appendDeviceLine(line)
	}
	if len(p.log.lines) != len(lines) {
		t.Fatalf("log lines = %d, want %d", len(p.log.lines), len(lines))
	}
	for i, line := range lines {
		if !strings.Contains(p.log.lines[i], strings.TrimSpace(line)) {
			t.Errorf("line %d missing text %q: %q", i, line, p.log.lines[i])
		}
	}
}

func TestTerminalPreselect(t *testing.T) {
	p := newTestTerminalPage(t)
	p.Preselect("/dev/ttyUSB0", 921600)
	if p.selectedPort != "/dev/ttyUSB0" {
		t.Errorf("port = %q", p.selectedPort)
	}
	if bauds[p.baudIdx] != 921600 {
		t.Errorf("baud = %d", bauds[p.baudIdx])
	}

	// An unknown rate leaves the previous selection alone.
	p.Preselect("/dev/ttyUSB1", 12345)
	if bauds[p.baudIdx] != 921600 {
		t.Errorf("baud after bogus rate = %d", bauds[p.baudIdx])
	}
}

func TestTerminalSessionLogCapture(t *testing.T) {
	p := newTestTerminalPage(t)
	path := p.openLogFile()
	if path == "" {
		t.Fatal("no log file created")
	}
	p.appendDeviceLine("\x1b[32m[WiFi]\x1b[0m got IP")
	p.closeLogFile()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[WiFi] got IP\n" {
		t.Errorf("captured %q", string(data))
	}
}

func TestTerminalConnectWithoutPort(t *testing.T) {
	p := newTestTerminalPage(t)
	p.connect()
	if p.session.Connected() {
		t.Fatal("connected with no port selected")
	}
	if len(p.log.lines) != 1 || !strings.Contains(p.log.lines[0], "connect failed") {
		t.Fatalf("log = %v", p.log.lines)
	}
}
