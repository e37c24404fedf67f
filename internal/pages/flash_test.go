package pages

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amsamiul/femtoclaw/internal/app"
	"github.com/amsamiul/femtoclaw/internal/serial"
	"github.com/amsamiul/femtoclaw/internal/store"
	"github.com/amsamiul/femtoclaw/internal/tools"
)

func newTestFlashPage(t *testing.T) *FlashPage {
	t.Helper()
	sup := tools.NewSupervisor()
	session := serial.NewSession()
	st := store.New(t.TempDir())
	p := NewFlashPage(sup, session, st)
	p.SetSize(100, 40)
	return p
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFlashPagePortsRefreshed(t *testing.T) {
	p := newTestFlashPage(t)

	ports := []serial.PortInfo{
		{Device: "/dev/ttyUSB0", Description: "CP2102", IsUSB: true},
		{Device: "/dev/ttyACM0", Description: "ESP32-C3", IsUSB: true},
	}
	page, _ := p.Update(app.PortsRefreshedMsg{Ports: ports})
	p = page.(*FlashPage)

	if len(p.ports.Rows()) != 2 {
		t.Fatalf("got %d rows, want 2", len(p.ports.Rows()))
	}
	if p.selectedPort != "/dev/ttyUSB0" {
		t.Errorf("selected = %q, want first port", p.selectedPort)
	}

	// Selection survives as long as the port stays present.
	page, _ = p.Update(app.PortsRefreshedMsg{Ports: ports[:1]})
	p = page.(*FlashPage)
	if p.selectedPort != "/dev/ttyUSB0" {
		t.Errorf("selected = %q after shrink", p.selectedPort)
	}

	page, _ = p.Update(app.PortsRefreshedMsg{})
	p = page.(*FlashPage)
	if p.selectedPort != "" {
		t.Errorf("selected = %q with no ports", p.selectedPort)
	}
}

func TestFlashPageBoardCycle(t *testing.T) {
	p := newTestFlashPage(t)
	if p.board() != tools.BoardESP32 {
		t.Fatalf("initial board = %v", p.board())
	}

	page, cmd := p.Update(keyMsg("b"))
	p = page.(*FlashPage)
	if p.board() != tools.BoardESP32S3 {
		t.Errorf("board after cycle = %v", p.board())
	}
	if cmd == nil {
		t.Fatal("no broadcast command")
	}
	if msg, ok := cmd().(app.BoardSelectedMsg); !ok || msg.Board != "ESP32-S3" {
		t.Errorf("broadcast = %#v", cmd())
	}
}

func TestFlashPageLogAndProgress(t *testing.T) {
	p := newTestFlashPage(t)

	page, _ := p.Update(tools.LogLineMsg{Kind: tools.JobFlash, Text: "Connecting....", Severity: tools.SeverityInfo})
	p = page.(*FlashPage)
	if len(p.log.lines) != 1 {
		t.Fatalf("log lines = %d", len(p.log.lines))
	}

	page, _ = p.Update(tools.ProgressMsg{Kind: tools.JobFlash, Percent: 42, Status: "Flashing… 42%"})
	p = page.(*FlashPage)
	if !p.progShown || p.progPct != 42 {
		t.Errorf("progress = shown=%v pct=%d", p.progShown, p.progPct)
	}

	page, _ = p.Update(tools.ProgressMsg{Kind: tools.JobFlash, Percent: tools.ProgressHide})
	p = page.(*FlashPage)
	if p.progShown {
		t.Error("progress still shown after hide")
	}
}

func TestFlashPageArtifactAutoFill(t *testing.T) {
	p := newTestFlashPage(t)
	page, _ := p.Update(tools.BuildArtifactMsg{Path: "/p/.pio/build/esp32/firmware.bin"})
	p = page.(*FlashPage)
	if p.image.Value() != "/p/.pio/build/esp32/firmware.bin" {
		t.Errorf("image = %q", p.image.Value())
	}
}

func TestFlashPagePreconditions(t *testing.T) {
	p := newTestFlashPage(t)

	if cmd := p.startCompile(); cmd != nil {
		t.Error("compile started without a source")
	}
	if p.message == "" {
		t.Error("no message for missing source")
	}

	p.message = ""
	if cmd := p.startFlash(); cmd != nil {
		t.Error("flash started without an image")
	}
	if p.message == "" {
		t.Error("no message for missing image")
	}

	p.message = ""
	p.image.SetValue("/tmp/firmware.bin")
	if cmd := p.startFlash(); cmd != nil {
		t.Error("flash started without a port")
	}
	if !strings.Contains(p.message, "port") {
		t.Errorf("message = %q", p.message)
	}
}

func TestFlashPageRecordsJobDone(t *testing.T) {
	p := newTestFlashPage(t)
	p.selectedPort = "/dev/ttyUSB0"
	p.image.SetValue("/tmp/firmware.bin")

	page, _ := p.Update(tools.JobDoneMsg{Kind: tools.JobFlash, ExitCode: 0})
	p = page.(*FlashPage)

	flashes, err := p.store.Flashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(flashes) != 1 || !flashes[0].Success || flashes[0].Port != "/dev/ttyUSB0" {
		t.Fatalf("flashes = %+v", flashes)
	}
}
