package pages

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"

	"github.com/amsamiul/femtoclaw/internal/tools"
	"github.com/amsamiul/femtoclaw/internal/ui"
)

const maxLogLines = 2000

// logView is a bounded, severity-styled scrollback shared by the flash and
// terminal pages.
type logView struct {
	lines    []string
	viewport viewport.Model
}

func newLogView() *logView {
	return &logView{viewport: viewport.New(0, 0)}
}

func severityStyle(sev tools.Severity) lipgloss.Style {
	switch sev {
	case tools.SeverityError:
		return ui.LogErrorStyle
	case tools.SeverityWarn:
		return ui.LogWarnStyle
	case tools.SeverityOK:
		return ui.LogOKStyle
	case tools.SeverityInfo:
		return ui.LogInfoStyle
	default:
		return ui.LogDebugStyle
	}
}

func (lv *logView) appendSeverity(text string, sev tools.Severity) {
	lv.appendStyled(text, severityStyle(sev))
}

func (lv *logView) appendStyled(text string, style lipgloss.Style) {
	lv.lines = append(lv.lines, style.Render(text))
	if len(lv.lines) > maxLogLines {
		lv.lines = lv.lines[len(lv.lines)-maxLogLines:]
	}
	lv.refresh()
	lv.viewport.GotoBottom()
}

func (lv *logView) clear() {
	lv.lines = nil
	lv.refresh()
}

func (lv *logView) setSize(width, height int) {
	lv.viewport.Width = width
	lv.viewport.Height = height
	lv.refresh()
}

// refresh re-renders the scrollback into the viewport, hard-wrapping long
// lines and truncating anything that still overflows (ANSI-aware).
func (lv *logView) refresh() {
	if lv.viewport.Width <= 0 {
		lv.viewport.SetContent(strings.Join(lv.lines, "\n"))
		return
	}
	wrapped := wrap.String(strings.Join(lv.lines, "\n"), lv.viewport.Width)
	out := strings.Split(wrapped, "\n")
	for i, line := range out {
		if ansi.PrintableRuneWidth(line) > lv.viewport.Width {
			out[i] = truncate.String(line, uint(lv.viewport.Width))
		}
	}
	lv.viewport.SetContent(strings.Join(out, "\n"))
}
