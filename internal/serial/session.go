package serial

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.bug.st/serial"
)

const (
	readBufSize = 1024
	// readTimeout bounds each blocking read so the reader can notice the
	// stop signal between chunks.
	readTimeout = 20 * time.Millisecond
	// stopWait bounds how long Disconnect waits for the reader to exit
	// before proceeding as if it had stopped.
	stopWait = time.Second
)

// openPort is swapped out in tests.
var openPort = func(device string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(device, mode)
}

// Session owns at most one open serial connection. A background reader
// decodes incoming bytes into lines and forwards them on Lines().
type Session struct {
	mu         sync.Mutex
	port       serial.Port
	device     string
	baud       int
	connected  bool
	lines      chan string
	done       chan struct{}
	readerDone chan struct{}
}

// NewSession creates a disconnected session.
func NewSession() *Session {
	return &Session{
		lines: make(chan string, 256),
	}
}

// Connect opens the port at the given baud rate and starts the background
// reader. A session that is already connected must be disconnected first.
//
// Both DTR and RTS are de-asserted immediately after open: boards with the
// reset line wired to those signals (ESP32 dev boards in particular) would
// otherwise reboot the moment the terminal attaches.
func (s *Session) Connect(device string, baud int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return ErrAlreadyConnected
	}
	if device == "" {
		return ErrNoPort
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := openPort(device, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", device, err)
	}

	if err := port.SetDTR(false); err != nil {
		port.Close()
		return fmt.Errorf("de-assert DTR on %s: %w", device, err)
	}
	if err := port.SetRTS(false); err != nil {
		port.Close()
		return fmt.Errorf("de-assert RTS on %s: %w", device, err)
	}
	port.SetReadTimeout(readTimeout)

	s.port = port
	s.device = device
	s.baud = baud
	s.connected = true
	s.done = make(chan struct{})
	s.readerDone = make(chan struct{})

	go s.readLoop(port, s.done, s.readerDone)
	return nil
}

// Disconnect stops the reader, closes the port and resets the session to
// disconnected. Safe to call any number of times.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnectLocked()
}

func (s *Session) disconnectLocked() {
	if !s.connected {
		return
	}
	s.connected = false
	close(s.done)
	if s.port != nil {
		s.port.Close()
	}
	select {
	case <-s.readerDone:
	case <-time.After(stopWait):
		// Reader is stuck in a read; the closed port will shake it loose
		// eventually. Treat it as stopped.
	}
	s.port = nil
	s.device = ""
	s.baud = 0
}

// SendLine writes text to the device with a CRLF terminator. A write
// failure tears the session down; the caller gets the error to surface.
func (s *Session) SendLine(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if _, err := s.port.Write([]byte(text + "\r\n")); err != nil {
		s.disconnectLocked()
		return fmt.Errorf("write to %s: %w", s.device, err)
	}
	return nil
}

// Lines returns the channel carrying decoded lines from the device.
func (s *Session) Lines() <-chan string {
	return s.lines
}

// Connected returns whether a session is open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Device returns the connected port name, or "" when disconnected.
func (s *Session) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Baud returns the connected baud rate, or 0 when disconnected.
func (s *Session) Baud() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

// Reconcile checks the session against a fresh port enumeration. If the
// connected port has vanished the session is force-disconnected and the
// lost device name is returned. This is the only path that detects a
// physical unplug; the reader just sees an I/O error and exits silently.
func (s *Session) Reconcile(ports []PortInfo) (lost string, unplugged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || Contains(ports, s.device) {
		return "", false
	}
	lost = s.device
	s.disconnectLocked()
	return lost, true
}

func (s *Session) readLoop(port serial.Port, done, readerDone chan struct{}) {
	defer close(readerDone)

	splitter := &lineSplitter{}
	buf := make([]byte, readBufSize)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			// Port closed or device gone. The hot-unplug check will
			// reconcile the session state.
			return
		}
		for _, line := range splitter.Feed(buf[:n]) {
			select {
			case s.lines <- line:
			default:
				// Drop when the consumer falls behind
			}
		}
	}
}

// lineSplitter reassembles newline-delimited text from arbitrary byte
// chunks. A trailing fragment is held until its delimiter arrives, so the
// emitted lines are independent of chunk boundaries.
type lineSplitter struct {
	pending []byte
}

// Feed appends a chunk and returns every complete line it unlocked.
func (ls *lineSplitter) Feed(chunk []byte) []string {
	ls.pending = append(ls.pending, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(ls.pending, '\n')
		if i < 0 {
			return lines
		}
		lines = append(lines, decodeLine(ls.pending[:i]))
		ls.pending = append([]byte(nil), ls.pending[i+1:]...)
	}
}

func decodeLine(raw []byte) string {
	text := strings.TrimSuffix(string(raw), "\r")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return text
}
