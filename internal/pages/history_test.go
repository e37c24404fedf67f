package pages

import (
	"testing"
	"time"

	"github.com/amsamiul/femtoclaw/internal/store"
	"github.com/amsamiul/femtoclaw/internal/tools"
)

func TestHistoryReloadNewestFirst(t *testing.T) {
	st := store.New(t.TempDir())
	old := store.FlashRecord{Board: "ESP32", Port: "COM3", Timestamp: time.Now().Add(-time.Hour), Success: true, Duration: "8s"}
	recent := store.FlashRecord{Board: "Pico W", Port: "COM4", Timestamp: time.Now(), Success: false, Duration: "2s"}
	if err := st.AddFlash(old); err != nil {
		t.Fatal(err)
	}
	if err := st.AddFlash(recent); err != nil {
		t.Fatal(err)
	}

	p := NewHistoryPage(st)
	p.SetSize(100, 30)
	p.reload()

	rows := p.flashes.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][1] != "Pico W" || rows[0][3] != "failed" {
		t.Errorf("first row = %v, want newest first", rows[0])
	}
	if rows[1][3] != "ok" {
		t.Errorf("second row = %v", rows[1])
	}
}

func TestHistoryReloadsOnJobDone(t *testing.T) {
	st := store.New(t.TempDir())
	p := NewHistoryPage(st)
	p.SetSize(100, 30)
	p.reload()
	if len(p.builds.Rows()) != 0 {
		t.Fatal("expected empty history")
	}

	if err := st.AddBuild(store.BuildRecord{Board: "ESP32", Env: "esp32", Timestamp: time.Now(), Success: true, Duration: "10s"}); err != nil {
		t.Fatal(err)
	}
	page, _ := p.Update(tools.JobDoneMsg{Kind: tools.JobBuild, ExitCode: 0})
	p = page.(*HistoryPage)
	if len(p.builds.Rows()) != 1 {
		t.Fatalf("builds rows = %d after job done", len(p.builds.Rows()))
	}
}

func TestResultLabel(t *testing.T) {
	if result(true, false) != "ok" || result(false, false) != "failed" || result(false, true) != "cancelled" {
		t.Error("result labels wrong")
	}
}
