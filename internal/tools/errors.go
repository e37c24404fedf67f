package tools

import "errors"

// Sentinel errors surfaced to the UI and matched with errors.Is.
var (
	ErrToolMissing = errors.New("external tool not found")
	ErrNoPort      = errors.New("no serial port selected")
	ErrJobActive   = errors.New("a job of this kind is already running")
	ErrImageFormat = errors.New("image format does not match the selected board")
	ErrNoImage     = errors.New("no firmware image selected")
	ErrNoSource    = errors.New("no firmware source selected")
)
