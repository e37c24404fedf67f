package serial

import "errors"

// Predefined error types for robust error handling
var (
	ErrNoPort           = errors.New("no serial port selected")
	ErrNotConnected     = errors.New("no serial session open")
	ErrAlreadyConnected = errors.New("a serial session is already open; disconnect first")
	ErrNoSerialSupport  = errors.New("serial enumeration not available on this platform")
)
