package store

import "time"

// BuildRecord captures the result of a compile job.
type BuildRecord struct {
	Board     string    `json:"board"`
	Env       string    `json:"env"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Duration  string    `json:"duration"`
	Artifact  string    `json:"artifact,omitempty"`
}

// FlashRecord captures the result of a flash job.
type FlashRecord struct {
	Board     string    `json:"board"`
	Port      string    `json:"port"`
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Duration  string    `json:"duration"`
}

// SessionRecord tracks a serial console session.
type SessionRecord struct {
	Port      string    `json:"port"`
	BaudRate  int       `json:"baud_rate"`
	Timestamp time.Time `json:"timestamp"`
	LogFile   string    `json:"log_file,omitempty"`
}
