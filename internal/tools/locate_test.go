package tools

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestFindToolFromPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions")
	}
	dir := t.TempDir()
	tool := filepath.Join(dir, "fakepio")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	if got := FindTool("fakepio"); got != tool {
		t.Errorf("FindTool = %q, want %q", got, tool)
	}
}

func TestFindToolPrefersEarlierName(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions")
	}
	dir := t.TempDir()
	for _, name := range []string{"toolA", "toolB"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", dir)

	if got := FindTool("toolA", "toolB"); filepath.Base(got) != "toolA" {
		t.Errorf("FindTool = %q, want toolA", got)
	}
}

func TestFindToolSkipsNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix permissions")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "noexec"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	if got := FindTool("noexec"); got != "" {
		t.Errorf("FindTool = %q, want empty", got)
	}
}

func TestFindToolMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if got := FindTool("no-such-tool-anywhere"); got != "" {
		t.Errorf("FindTool = %q, want empty", got)
	}
}

func TestToolHint(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"esptool", "pip install esptool"},
		{"picotool", "BOOTSEL"},
		{"pio", "pip install platformio"},
	}
	for _, c := range cases {
		if hint := toolHint(c.name); !strings.Contains(hint, c.want) {
			t.Errorf("toolHint(%q) = %q, want substring %q", c.name, hint, c.want)
		}
	}
}
