package tools

import "testing"

func TestClassifyFlashLine(t *testing.T) {
	cases := []struct {
		line string
		want Severity
	}{
		{"A fatal error occurred: Failed to connect", SeverityError},
		{"WARNING: flash size mismatch", SeverityWarn},
		{"Writing at 0x00010000... (42 %)", SeverityOK},
		{"Hash of data verified.", SeverityOK},
		{"Leaving...", SeverityOK},
		{"Connecting........_____", SeverityInfo},
		{"Chip is ESP32-D0WD-V3 (revision v3.0)", SeverityInfo},
		{"Serial port /dev/ttyUSB0", SeverityDebug},
	}
	for _, c := range cases {
		if got := ClassifyFlashLine(c.line); got != c.want {
			t.Errorf("ClassifyFlashLine(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestClassifyFlashErrorBeatsProgress(t *testing.T) {
	// A line matching both the error and the percent rule must classify
	// as an error.
	line := "Writing at 0x0000 (50 %) error: timeout"
	if got := ClassifyFlashLine(line); got != SeverityError {
		t.Fatalf("got %v, want SeverityError", got)
	}
}

func TestClassifyBuildLine(t *testing.T) {
	cases := []struct {
		line string
		want Severity
	}{
		{"src/main.cpp:10:5: error: 'foo' was not declared", SeverityError},
		{"warning: unused variable 'x'", SeverityWarn},
		{"========================= [SUCCESS] Took 12.34 seconds", SeverityOK},
		{"RAM:   [==        ]  17.9% (used 58568 bytes from 327680 bytes)", SeverityOK},
		{"Compiling .pio/build/esp32/src/main.cpp.o", SeverityInfo},
		{"Linking .pio/build/esp32/firmware.elf", SeverityInfo},
		{"Processing esp32 (platform: espressif32)", SeverityDebug},
	}
	for _, c := range cases {
		if got := ClassifyBuildLine(c.line); got != c.want {
			t.Errorf("ClassifyBuildLine(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestExtractPercent(t *testing.T) {
	cases := []struct {
		line    string
		wantPct int
		wantOK  bool
	}{
		{"Writing at 0x00010000... (42 %)", 42, true},
		{"Writing at 0x0003c000... (100 %)", 100, true},
		{"7 % done", 7, true},
		{"Writing at 0x00010000...", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		pct, ok := ExtractPercent(c.line)
		if pct != c.wantPct || ok != c.wantOK {
			t.Errorf("ExtractPercent(%q) = (%d, %v), want (%d, %v)", c.line, pct, ok, c.wantPct, c.wantOK)
		}
	}
}

func TestFlashProgress(t *testing.T) {
	cases := []struct {
		line       string
		wantPct    int
		wantStatus string
		wantOK     bool
	}{
		{"Writing at 0x00010000... (42 %)", 42, "Flashing… 42%", true},
		{"Hash of data verified.", 100, "Flash complete", true},
		{"Leaving...", 100, "Flash complete", true},
		{"Connecting....", 0, "Connecting....", true},
		{"Chip is ESP32-C3 (revision v0.4)", 0, "Chip is ESP32-C3 (revision v0.4)", true},
		{"Serial port /dev/ttyACM0", 0, "", false},
		// Matches the percent trigger but carries no number: no update, and
		// no fall-through to the later triggers.
		{"Wrote 262144 bytes", 0, "", false},
	}
	for _, c := range cases {
		pct, status, ok := FlashProgress(c.line)
		if pct != c.wantPct || status != c.wantStatus || ok != c.wantOK {
			t.Errorf("FlashProgress(%q) = (%d, %q, %v), want (%d, %q, %v)",
				c.line, pct, status, ok, c.wantPct, c.wantStatus, c.wantOK)
		}
	}
}
