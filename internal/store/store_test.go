package store

import (
	"testing"
	"time"
)

func TestAddAndLoadBuilds(t *testing.T) {
	s := New(t.TempDir())

	r1 := BuildRecord{Board: "ESP32", Env: "esp32", Source: "/p/src/main.cpp", Timestamp: time.Now().UTC(), Success: true, Duration: "12s", Artifact: "/p/.pio/build/esp32/firmware.bin"}
	r2 := BuildRecord{Board: "Pico W", Env: "picow", Timestamp: time.Now().UTC(), Success: false, Duration: "3s"}

	if err := s.AddBuild(r1); err != nil {
		t.Fatal(err)
	}
	if err := s.AddBuild(r2); err != nil {
		t.Fatal(err)
	}

	builds, err := s.Builds()
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 2 {
		t.Fatalf("got %d builds, want 2", len(builds))
	}
	if builds[0].Artifact != r1.Artifact || !builds[0].Success {
		t.Errorf("first record = %+v", builds[0])
	}
	if builds[1].Success {
		t.Errorf("second record should be a failure: %+v", builds[1])
	}
}

func TestAddAndLoadFlashes(t *testing.T) {
	s := New(t.TempDir())

	r := FlashRecord{Board: "ESP32-C3", Port: "/dev/ttyACM0", Image: "/b/firmware.bin", Timestamp: time.Now().UTC(), Success: true, Duration: "8s"}
	if err := s.AddFlash(r); err != nil {
		t.Fatal(err)
	}

	flashes, err := s.Flashes()
	if err != nil {
		t.Fatal(err)
	}
	if len(flashes) != 1 || flashes[0].Port != "/dev/ttyACM0" {
		t.Fatalf("flashes = %+v", flashes)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	s := New(t.TempDir())
	builds, err := s.Builds()
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 0 {
		t.Fatalf("got %d builds from empty store", len(builds))
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	r := SessionRecord{Port: "COM7", BaudRate: 115200, Timestamp: time.Now().UTC()}
	if err := s.AddSession(r); err != nil {
		t.Fatal(err)
	}
	sessions, err := s.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].BaudRate != 115200 {
		t.Fatalf("sessions = %+v", sessions)
	}
}

func TestLogsDirCreated(t *testing.T) {
	s := New(t.TempDir())
	dir, err := s.LogsDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir == "" {
		t.Fatal("empty logs dir")
	}
}
