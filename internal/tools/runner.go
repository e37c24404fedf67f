package tools

import (
	"bufio"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// JobKind distinguishes the two external-process job slots. One job of
// each kind may run at a time.
type JobKind int

const (
	JobBuild JobKind = iota
	JobFlash
)

func (k JobKind) String() string {
	if k == JobFlash {
		return "flash"
	}
	return "build"
}

// ProgressHide is the sentinel percent telling the UI to hide the
// progress indicator.
const ProgressHide = -1

// LogLineMsg is sent for each classified line of output from a running job.
type LogLineMsg struct {
	Kind     JobKind
	Text     string
	Severity Severity
}

// ProgressMsg updates the progress indicator for a job.
type ProgressMsg struct {
	Kind    JobKind
	Percent int
	Status  string
}

// JobDoneMsg is sent when a job reaches a terminal state.
type JobDoneMsg struct {
	Kind      JobKind
	ExitCode  int
	Err       error
	Cancelled bool
	Duration  time.Duration
}

// BuildArtifactMsg carries the firmware image located after a successful
// build, for auto-filling the flash image slot.
type BuildArtifactMsg struct {
	Path string
}

// CancelToken requests cooperative cancellation of a single job. The flag
// is checked once per received output line; lines already buffered before
// the flag is observed may still be emitted.
type CancelToken struct {
	flag atomic.Bool
}

// Cancel requests cancellation.
func (t *CancelToken) Cancel() { t.flag.Store(true) }

// Cancelled reports whether cancellation was requested.
func (t *CancelToken) Cancelled() bool { return t.flag.Load() }

// Supervisor launches build and flash processes off the UI loop, streams
// their merged output line-by-line as messages, and enforces the
// one-job-per-kind rule.
type Supervisor struct {
	mu     sync.Mutex
	notify func(tea.Msg)
	active map[JobKind]*CancelToken
}

// NewSupervisor creates an idle supervisor. Call SetNotify before starting
// jobs so streamed messages have somewhere to go.
func NewSupervisor() *Supervisor {
	return &Supervisor{active: make(map[JobKind]*CancelToken)}
}

// SetNotify installs the message sink, typically tea.Program.Send.
func (s *Supervisor) SetNotify(fn func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Active reports whether a job of the given kind is running.
func (s *Supervisor) Active(kind JobKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[kind] != nil
}

// Busy reports whether any job is running. Build and flash jobs are never
// run concurrently: both touch the project output directory and flashing
// needs the port free.
func (s *Supervisor) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) > 0
}

// Cancel flags the running job of the given kind for cancellation. No-op
// when nothing is running.
func (s *Supervisor) Cancel(kind JobKind) {
	s.mu.Lock()
	token := s.active[kind]
	s.mu.Unlock()
	if token != nil {
		token.Cancel()
	}
}

func (s *Supervisor) begin(kind JobKind) (*CancelToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.active) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobActive, kind)
	}
	token := &CancelToken{}
	s.active[kind] = token
	return token, nil
}

func (s *Supervisor) finish(kind JobKind) {
	s.mu.Lock()
	delete(s.active, kind)
	s.mu.Unlock()
}

func (s *Supervisor) send(msg tea.Msg) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify(msg)
	}
}

func (s *Supervisor) logf(kind JobKind, sev Severity, format string, args ...any) {
	s.send(LogLineMsg{Kind: kind, Text: fmt.Sprintf(format, args...), Severity: sev})
}

type execResult struct {
	exitCode  int
	err       error
	cancelled bool
	duration  time.Duration
}

// stream runs one command with stderr merged into stdout, emitting a
// classified LogLineMsg per line. Flash jobs additionally get progress
// extraction. The cancel token is checked once per line; when observed the
// child is killed and no further lines are processed.
func (s *Supervisor) stream(kind JobKind, token *CancelToken, rules []severityRule, dir, name string, args ...string) execResult {
	start := time.Now()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return execResult{exitCode: -1, err: err, duration: time.Since(start)}
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("%w: %s", ErrToolMissing, name)
		}
		return execResult{exitCode: -1, err: err, duration: time.Since(start)}
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if token.Cancelled() {
			cmd.Process.Kill()
			break
		}
		line := scanner.Text()
		s.send(LogLineMsg{Kind: kind, Text: line, Severity: classify(line, rules)})
		if kind == JobFlash {
			if pct, status, ok := FlashProgress(line); ok {
				s.send(ProgressMsg{Kind: kind, Percent: pct, Status: status})
			}
		}
	}

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return execResult{
		exitCode:  exitCode,
		cancelled: token.Cancelled(),
		duration:  time.Since(start),
	}
}

// sendFinal translates an execResult into the terminal message sequence.
// Every path ends with a JobDoneMsg so the UI can hide its progress
// indicator; it never sticks mid-operation.
func (s *Supervisor) sendFinal(kind JobKind, res execResult) {
	switch {
	case res.err != nil && errors.Is(res.err, ErrToolMissing):
		s.logf(kind, SeverityError, "[!] %s", toolHint(res.err.Error()))
		s.send(ProgressMsg{Kind: kind, Percent: 0, Status: "tool not found"})
		s.send(JobDoneMsg{Kind: kind, ExitCode: -1, Err: res.err, Duration: res.duration})

	case res.err != nil:
		s.logf(kind, SeverityError, "[!] %v", res.err)
		s.send(ProgressMsg{Kind: kind, Percent: 0, Status: fmt.Sprintf("%s failed", kind)})
		s.send(JobDoneMsg{Kind: kind, ExitCode: res.exitCode, Err: res.err, Duration: res.duration})

	case res.cancelled:
		s.logf(kind, SeverityWarn, "[%s cancelled]", kind)
		s.send(ProgressMsg{Kind: kind, Percent: ProgressHide})
		s.send(JobDoneMsg{Kind: kind, Cancelled: true, Duration: res.duration})

	case res.exitCode == 0:
		s.logf(kind, SeverityOK, "✓ %s done", kind)
		s.send(ProgressMsg{Kind: kind, Percent: 100, Status: "done"})
		s.send(JobDoneMsg{Kind: kind, ExitCode: 0, Duration: res.duration})

	default:
		s.logf(kind, SeverityError, "✗ %s failed (exit %d)", kind, res.exitCode)
		s.send(ProgressMsg{Kind: kind, Percent: 0, Status: fmt.Sprintf("failed (exit %d)", res.exitCode)})
		s.send(JobDoneMsg{Kind: kind, ExitCode: res.exitCode, Err: fmt.Errorf("%s exited with code %d", kind, res.exitCode), Duration: res.duration})
	}
}

// runOutput runs a short query command and returns its combined output.
func runOutput(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}
