package tools

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool discovery mirrors where pip, pipx and the PlatformIO standalone
// installer actually put their console scripts: the directory next to the
// running executable, any active virtual environment, user-level script
// directories, and finally everything on PATH.

func scriptDirs() []string {
	var dirs []string

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	for _, env := range []string{"VIRTUAL_ENV", "CONDA_PREFIX"} {
		if root := os.Getenv(env); root != "" {
			dirs = append(dirs,
				filepath.Join(root, "Scripts"), // Windows
				filepath.Join(root, "bin"),     // macOS / Linux
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		pipxBin := "bin"
		if runtime.GOOS == "windows" {
			pipxBin = "Scripts"
		}
		dirs = append(dirs,
			filepath.Join(home, ".local", "pipx", "venvs", "platformio", pipxBin),
			filepath.Join(home, ".local", "bin"),
			// PlatformIO standalone installer default
			filepath.Join(home, ".platformio", "penv", "Scripts"),
			filepath.Join(home, ".platformio", "penv", "bin"),
		)
	}

	dirs = append(dirs, filepath.SplitList(os.Getenv("PATH"))...)

	// Deduplicate while preserving order
	seen := make(map[string]bool, len(dirs))
	result := dirs[:0]
	for _, d := range dirs {
		if d != "" && !seen[d] {
			seen[d] = true
			result = append(result, d)
		}
	}
	return result
}

func executableExts() []string {
	if runtime.GOOS == "windows" {
		return []string{"", ".exe", ".cmd", ".bat"}
	}
	return []string{""}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// FindTool searches every candidate script directory for any of the given
// tool names, in directory-priority order, falling back to a PATH lookup.
// Returns "" when nothing is found. Side-effect free and safe to call per
// invocation, which also picks up tools installed mid-session.
func FindTool(names ...string) string {
	exts := executableExts()
	for _, dir := range scriptDirs() {
		for _, name := range names {
			for _, ext := range exts {
				candidate := filepath.Join(dir, name+ext)
				if isExecutable(candidate) {
					return candidate
				}
			}
		}
	}
	for _, name := range names {
		if found, err := exec.LookPath(name); err == nil {
			return found
		}
	}
	return ""
}

// FindPio locates the PlatformIO CLI.
func FindPio() string {
	return FindTool("pio", "platformio")
}

// FindEsptool locates the Espressif flashing tool.
func FindEsptool() string {
	return FindTool("esptool.py", "esptool")
}

// FindPicotool locates picotool for Pico W UF2 loading.
func FindPicotool() string {
	found, err := exec.LookPath("picotool")
	if err != nil {
		return ""
	}
	return found
}

// toolHint maps a missing tool to install guidance for the operator.
func toolHint(name string) string {
	switch {
	case strings.Contains(name, "esptool"):
		return "esptool not found. Run: pip install esptool"
	case strings.Contains(name, "picotool"):
		return "picotool not found. Hold BOOTSEL while plugging in the Pico W, then drag the .uf2 onto the RPI-RP2 USB drive."
	default:
		return "PlatformIO not found. Run: pip install platformio"
	}
}
