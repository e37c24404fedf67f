package serial

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo holds details about a serial port. Rebuilt on every poll cycle,
// never persisted.
type PortInfo struct {
	Device      string
	Description string
	HardwareID  string
	IsUSB       bool
}

// usbBridgeIDs are vendor/bridge-chip markers for common USB-to-serial
// adapters (Silicon Labs, WCH, FTDI, Arduino). Matching is cosmetic only:
// it highlights likely MCU boards in the device table but never gates any
// operation.
var usbBridgeIDs = []string{"10C4", "1A86", "0403", "CH340", "CP210", "FTDI", "2341"}

// Recognized reports whether the port's hardware ID matches a known
// USB-to-serial bridge chip.
func (p PortInfo) Recognized() bool {
	hwid := strings.ToUpper(p.HardwareID)
	for _, id := range usbBridgeIDs {
		if strings.Contains(hwid, id) {
			return true
		}
	}
	return false
}

// ListPorts returns available serial ports from a fresh OS enumeration.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	var result []PortInfo
	for _, d := range details {
		info := PortInfo{
			Device:      d.Name,
			Description: d.Product,
			IsUSB:       d.IsUSB,
		}
		if info.Description == "" {
			info.Description = "(unknown)"
		}
		if d.IsUSB {
			info.HardwareID = fmt.Sprintf("USB VID:PID=%s:%s", strings.ToUpper(d.VID), strings.ToUpper(d.PID))
			if d.SerialNumber != "" {
				info.HardwareID += " SER=" + d.SerialNumber
			}
		}
		result = append(result, info)
	}
	return result, nil
}

// Contains reports whether device is present in the port list.
func Contains(ports []PortInfo, device string) bool {
	for _, p := range ports {
		if p.Device == device {
			return true
		}
	}
	return false
}

// PreserveSelection returns the port that should be selected after a
// refresh: the previous selection if it still exists, otherwise the first
// available port, otherwise nothing.
func PreserveSelection(ports []PortInfo, prev string) string {
	if prev != "" && Contains(ports, prev) {
		return prev
	}
	if len(ports) > 0 {
		return ports[0].Device
	}
	return ""
}
