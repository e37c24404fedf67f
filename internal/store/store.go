package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Store persists build/flash history and serial session records under the
// femtoclaw state directory.
type Store struct {
	root string
	mu   sync.Mutex
}

// New creates a Store rooted at the given directory (typically
// ~/.config/femtoclaw/).
func New(root string) *Store {
	return &Store{root: root}
}

// DefaultRoot returns the default state directory.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".femtoclaw"
	}
	return filepath.Join(home, ".config", "femtoclaw")
}

func (s *Store) historyDir() string {
	return filepath.Join(s.root, "history")
}

// AddBuild appends a build record.
func (s *Store) AddBuild(r BuildRecord) error {
	return s.appendRecord("builds.json", r)
}

// AddFlash appends a flash record.
func (s *Store) AddFlash(r FlashRecord) error {
	return s.appendRecord("flashes.json", r)
}

// AddSession appends a serial session record.
func (s *Store) AddSession(r SessionRecord) error {
	return s.appendRecord("sessions.json", r)
}

// Builds returns all build records.
func (s *Store) Builds() ([]BuildRecord, error) {
	var records []BuildRecord
	err := s.loadRecords("builds.json", &records)
	return records, err
}

// Flashes returns all flash records.
func (s *Store) Flashes() ([]FlashRecord, error) {
	var records []FlashRecord
	err := s.loadRecords("flashes.json", &records)
	return records, err
}

// Sessions returns all serial session records.
func (s *Store) Sessions() ([]SessionRecord, error) {
	var records []SessionRecord
	err := s.loadRecords("sessions.json", &records)
	return records, err
}

// LogsDir returns the path to the serial log directory, creating it if
// needed.
func (s *Store) LogsDir() (string, error) {
	dir := filepath.Join(s.root, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (s *Store) appendRecord(filename string, record any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.historyDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)

	var records []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		json.Unmarshal(data, &records)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	records = append(records, raw)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) loadRecords(filename string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.historyDir(), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dest)
}
