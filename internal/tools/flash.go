package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ESP32 flash layout offsets used by the Arduino framework.
const (
	AddrBootloader  = "0x0"
	AddrPartitions  = "0x8000"
	AddrApplication = "0x10000"
)

// FlashPart is one (address, file) pair in an esptool write_flash invocation.
type FlashPart struct {
	Addr string
	Path string
}

// FlashPlan captures everything needed to flash an ESP-family board.
type FlashPlan struct {
	Chip  string
	Baud  string
	Parts []FlashPart
}

// BuildFlashPlan inspects the selected image and decides what to write
// where. An application image with sibling bootloader.bin and
// partitions.bin (the usual PlatformIO build output layout) becomes a full
// three-part write at the standard offsets; a lone image is written to 0x0
// on the assumption it is a merged binary.
func BuildFlashPlan(image string, board Board) (FlashPlan, error) {
	if !board.IsESP() {
		return FlashPlan{}, fmt.Errorf("%w: %s is not esptool-flashed", ErrImageFormat, board)
	}
	if !strings.EqualFold(filepath.Ext(image), ".bin") {
		return FlashPlan{}, fmt.Errorf("%w: %s boards need a .bin image, got %q", ErrImageFormat, board, filepath.Base(image))
	}

	plan := FlashPlan{Chip: board.Chip(), Baud: board.FlashBaud()}

	dir := filepath.Dir(image)
	bootloader := filepath.Join(dir, "bootloader.bin")
	partitions := filepath.Join(dir, "partitions.bin")
	if fileExists(bootloader) && fileExists(partitions) {
		plan.Parts = []FlashPart{
			{AddrBootloader, bootloader},
			{AddrPartitions, partitions},
			{AddrApplication, image},
		}
	} else {
		plan.Parts = []FlashPart{{AddrBootloader, image}}
	}
	return plan, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EsptoolArgs renders a plan into the esptool argument vector.
func EsptoolArgs(plan FlashPlan, port string) []string {
	args := []string{
		"--chip", plan.Chip,
		"--port", port,
		"--baud", plan.Baud,
		"--before", "default_reset",
		"--after", "hard_reset",
		"write_flash",
		"--flash_mode", "dio",
		"--flash_freq", "80m",
		"--flash_size", "detect",
		"-z",
	}
	for _, p := range plan.Parts {
		args = append(args, p.Addr, p.Path)
	}
	return args
}

// PicotoolArgs renders the picotool load invocation for a UF2 image.
// --force-no-reboot reaches a Pico already running firmware without
// requiring the BOOTSEL button.
func PicotoolArgs(image string) []string {
	return []string{"load", image, "--force-no-reboot", "-F"}
}

// StartFlash launches a flash job in the background. The serial port must
// already be disconnected by the caller; esptool and picotool need
// exclusive access to the device.
func (s *Supervisor) StartFlash(board Board, image, port string) error {
	if image == "" {
		return ErrNoImage
	}
	if board.IsESP() && port == "" {
		return ErrNoPort
	}

	token, err := s.begin(JobFlash)
	if err != nil {
		return err
	}

	go func() {
		defer s.finish(JobFlash)

		var res execResult
		if board.IsESP() {
			plan, err := BuildFlashPlan(image, board)
			if err != nil {
				res = execResult{exitCode: -1, err: err}
			} else {
				tool := FindEsptool()
				if tool == "" {
					res = execResult{exitCode: -1, err: fmt.Errorf("%w: esptool", ErrToolMissing)}
				} else {
					s.logf(JobFlash, SeverityInfo, "$ esptool --chip %s --port %s (%d part%s)",
						plan.Chip, port, len(plan.Parts), plural(len(plan.Parts)))
					s.send(ProgressMsg{Kind: JobFlash, Percent: 0, Status: "Connecting…"})
					res = s.stream(JobFlash, token, flashSeverityRules, "", tool, EsptoolArgs(plan, port)...)
				}
			}
		} else {
			if !strings.EqualFold(filepath.Ext(image), ".uf2") {
				res = execResult{exitCode: -1, err: fmt.Errorf("%w: Pico W needs a .uf2 image, got %q", ErrImageFormat, filepath.Base(image))}
			} else {
				tool := FindPicotool()
				if tool == "" {
					s.logf(JobFlash, SeverityWarn, "picotool not found. Manual flash: hold BOOTSEL while plugging in, then copy %s onto the RPI-RP2 drive", filepath.Base(image))
					res = execResult{exitCode: -1, err: fmt.Errorf("%w: picotool", ErrToolMissing)}
				} else {
					s.logf(JobFlash, SeverityInfo, "$ picotool load %s", filepath.Base(image))
					s.send(ProgressMsg{Kind: JobFlash, Percent: 0, Status: "Loading…"})
					res = s.stream(JobFlash, token, flashSeverityRules, "", tool, PicotoolArgs(image)...)
				}
			}
		}
		s.sendFinal(JobFlash, res)
	}()

	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
