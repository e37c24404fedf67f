package tools

// Board identifies a supported target board.
type Board string

const (
	BoardESP32   Board = "ESP32"
	BoardESP32S3 Board = "ESP32-S3"
	BoardESP32C3 Board = "ESP32-C3"
	BoardPicoW   Board = "Pico W"
)

// Boards lists the supported boards in display order.
func Boards() []Board {
	return []Board{BoardESP32, BoardESP32S3, BoardESP32C3, BoardPicoW}
}

// IsESP reports whether the board belongs to the esptool-flashed chip
// family. Non-ESP boards use a packaged UF2 image instead.
func (b Board) IsESP() bool {
	return b != BoardPicoW
}

// Chip returns the esptool --chip identifier.
func (b Board) Chip() string {
	switch b {
	case BoardESP32S3:
		return "esp32s3"
	case BoardESP32C3:
		return "esp32c3"
	default:
		return "esp32"
	}
}

// Env returns the PlatformIO build environment name.
func (b Board) Env() string {
	switch b {
	case BoardESP32S3:
		return "esp32s3"
	case BoardESP32C3:
		return "esp32c3"
	case BoardPicoW:
		return "picow"
	default:
		return "esp32"
	}
}

// FlashBaud returns the esptool upload baud rate. ESP32-C3 uses its native
// USB CDC interface, which cannot keep up with the full rate.
func (b Board) FlashBaud() string {
	if b == BoardESP32C3 {
		return "460800"
	}
	return "921600"
}

// ImageExt returns the firmware image extension the board's flashing path
// expects.
func (b Board) ImageExt() string {
	if b == BoardPicoW {
		return ".uf2"
	}
	return ".bin"
}

// ParseBoard maps a display name back to a Board, defaulting to ESP32.
func ParseBoard(name string) Board {
	for _, b := range Boards() {
		if string(b) == name {
			return b
		}
	}
	return BoardESP32
}
