package tools

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// NormalizeProject turns a selected source file into a PlatformIO project
// layout: the project root is the file's directory (or its parent when the
// file already sits in src/), and the source is copied into src/ when it
// is not there yet.
func NormalizeProject(source string) (projDir string, err error) {
	if source == "" {
		return "", ErrNoSource
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}

	fileDir := filepath.Dir(abs)
	if strings.EqualFold(filepath.Base(fileDir), "src") {
		projDir = filepath.Dir(fileDir)
	} else {
		projDir = fileDir
	}

	srcDir := filepath.Join(projDir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(srcDir, filepath.Base(abs))
	if !samePath(abs, dst) {
		if err := copyFile(abs, dst); err != nil {
			return "", fmt.Errorf("copy source into src/: %w", err)
		}
	}
	return projDir, nil
}

// samePath compares paths case-insensitively on Windows.
func samePath(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type boardProfile struct {
	platform    string
	board       string
	define      string
	uploadSpeed string
}

func profileFor(b Board) boardProfile {
	switch b {
	case BoardESP32S3:
		return boardProfile{"espressif32", "esp32-s3-devkitc-1", "-DBOARD_ESP32", "921600"}
	case BoardESP32C3:
		return boardProfile{"espressif32", "lolin_c3_mini", "-DBOARD_ESP32", "460800"}
	case BoardPicoW:
		return boardProfile{"raspberrypi", "rpipicow", "-DBOARD_PICO_W", ""}
	default:
		return boardProfile{"espressif32", "esp32dev", "-DBOARD_ESP32", "921600"}
	}
}

// WriteManifestIfMissing writes a minimal platformio.ini for the board.
// An existing manifest is never touched, so hand-tuned project settings
// survive.
func WriteManifestIfMissing(projDir string, board Board) (created bool, err error) {
	path := filepath.Join(projDir, "platformio.ini")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	p := profileFor(board)
	env := board.Env()
	srcDir := filepath.ToSlash(filepath.Join(projDir, "src"))

	var extra string
	switch board {
	case BoardPicoW:
		extra = "board_build.core = earlephilhower\nmonitor_speed = 115200\n"
	case BoardESP32C3:
		// Native USB CDC: lower upload baud, keep DTR/RTS low so the port
		// does not vanish mid-flash.
		extra = "upload_speed = " + p.uploadSpeed + "\n" +
			"monitor_speed = 115200\n" +
			"monitor_dtr = 0\n" +
			"monitor_rts = 0\n" +
			"build_type = release\n"
	default:
		extra = "upload_speed = " + p.uploadSpeed + "\nmonitor_speed = 115200\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "; Auto-generated by femtoclaw for %s\n", board)
	fmt.Fprintf(&b, "[platformio]\ndefault_envs = %s\nsrc_dir = %s\n\n", env, srcDir)
	fmt.Fprintf(&b, "[env:%s]\nplatform  = %s\nboard     = %s\nframework = arduino\n", env, p.platform, p.board)
	if board == BoardESP32C3 {
		// The C3 board JSON pins gnu++11; unflag it so gnu++17 below wins.
		b.WriteString("build_unflags = -std=gnu++11\n")
	}
	b.WriteString(extra)
	b.WriteString("build_flags =\n" +
		"    -Os\n" +
		"    -ffunction-sections\n" +
		"    -fdata-sections\n" +
		"    -Wl,--gc-sections\n" +
		"    -w\n" +
		"    " + p.define + "\n" +
		"    -DCONFIG_MBEDTLS_SSL_MAX_CONTENT_LEN=4096\n")
	if board == BoardESP32C3 {
		b.WriteString("    -DARDUINO_USB_MODE=1\n" +
			"    -DARDUINO_USB_CDC_ON_BOOT=1\n" +
			"    -std=gnu++17\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// FindBuildOutput locates the firmware image in the PlatformIO build
// directory. firmware.<ext> is preferred: on three-part ESP32 builds it is
// the application image, with bootloader.bin and partitions.bin picked up
// separately by the flash planner.
func FindBuildOutput(projDir string, board Board) string {
	buildDir := filepath.Join(projDir, ".pio", "build", board.Env())
	ext := board.ImageExt()

	for _, name := range []string{"firmware" + ext, "program" + ext} {
		p := filepath.Join(buildDir, name)
		if fileExists(p) {
			return p
		}
	}

	entries, err := os.ReadDir(buildDir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.HasSuffix(name, ext) {
			continue
		}
		if name == "bootloader.bin" || name == "partitions.bin" {
			continue
		}
		return filepath.Join(buildDir, name)
	}
	return ""
}

// ensurePlatform installs the raspberrypi platform globally before the
// first Pico W build. Installs stream through the build log under the same
// job so the UI stays in its busy state throughout.
func (s *Supervisor) ensurePlatform(token *CancelToken, pio string, board Board) bool {
	if board != BoardPicoW {
		return true
	}

	if out, err := runOutput("", pio, "pkg", "list", "--global"); err == nil &&
		strings.Contains(strings.ToLower(out), "raspberrypi") {
		s.logf(JobBuild, SeverityDebug, "[platform] raspberrypi already installed, skipping install")
		return true
	}

	s.logf(JobBuild, SeverityInfo, "[platform] raspberrypi platform not found, installing (first time only, may take a few minutes)")
	res := s.stream(JobBuild, token, buildSeverityRules, "",
		pio, "pkg", "install", "--global", "--platform", "raspberrypi")
	if res.cancelled || res.err != nil || res.exitCode != 0 {
		s.logf(JobBuild, SeverityError, "[platform] platform install failed (exit %d)", res.exitCode)
		return false
	}
	s.logf(JobBuild, SeverityOK, "[platform] ✓ raspberrypi platform installed")
	return true
}

// StartBuild launches a compile job in the background: normalize the
// project, synthesize a manifest when missing, install the Pico W platform
// on first use, then run pio with streamed output. On success the located
// firmware image is announced via BuildArtifactMsg.
func (s *Supervisor) StartBuild(board Board, source string) error {
	if source == "" {
		return ErrNoSource
	}

	pio := FindPio()
	if pio == "" {
		return fmt.Errorf("%w: pio", ErrToolMissing)
	}

	token, err := s.begin(JobBuild)
	if err != nil {
		return err
	}

	go func() {
		defer s.finish(JobBuild)

		projDir, err := NormalizeProject(source)
		if err != nil {
			s.sendFinal(JobBuild, execResult{exitCode: -1, err: err})
			return
		}
		if created, err := WriteManifestIfMissing(projDir, board); err != nil {
			s.sendFinal(JobBuild, execResult{exitCode: -1, err: fmt.Errorf("write platformio.ini: %w", err)})
			return
		} else if created {
			s.logf(JobBuild, SeverityInfo, "[auto] created platformio.ini in %s", projDir)
		} else {
			s.logf(JobBuild, SeverityDebug, "[auto] using existing platformio.ini in %s", projDir)
		}

		env := board.Env()
		s.logf(JobBuild, SeverityInfo, "──── Compiling for %s (env:%s) ────", board, env)
		s.logf(JobBuild, SeverityDebug, "$ pio run -e %s --project-dir %q", env, projDir)
		s.send(ProgressMsg{Kind: JobBuild, Percent: 0, Status: "Compiling…"})

		if !s.ensurePlatform(token, pio, board) {
			s.sendFinal(JobBuild, execResult{exitCode: -1, err: fmt.Errorf("platform install failed"), cancelled: token.Cancelled()})
			return
		}

		res := s.stream(JobBuild, token, buildSeverityRules, "",
			pio, "run", "-e", env, "--project-dir", projDir)

		if res.err == nil && !res.cancelled && res.exitCode == 0 {
			if fw := FindBuildOutput(projDir, board); fw != "" {
				s.logf(JobBuild, SeverityOK, "✓ Compile done! Output: %s", fw)
				s.send(BuildArtifactMsg{Path: fw})
			} else {
				s.logf(JobBuild, SeverityWarn, "✓ Compile done but output image not found, check .pio/build/ manually")
			}
		}
		s.sendFinal(JobBuild, res)
	}()

	return nil
}
