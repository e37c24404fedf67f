package tools

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity classifies a single line of tool or device output.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityOK
	SeverityWarn
	SeverityError
)

// The external tools have no structured output protocol, so severity and
// progress are inferred from free-form text. The heuristics live in ordered
// (predicate, outcome) tables: first match wins, and the precedence (errors
// before warnings before success markers) matters because lines can match
// more than one pattern. The trigger strings track esptool/PlatformIO
// message text and may need adjusting when those tools change their output.

type severityRule struct {
	match    func(string) bool
	severity Severity
}

func containsAny(subs ...string) func(string) bool {
	return func(line string) bool {
		lower := strings.ToLower(line)
		for _, sub := range subs {
			if strings.Contains(lower, strings.ToLower(sub)) {
				return true
			}
		}
		return false
	}
}

var flashSeverityRules = []severityRule{
	{containsAny("error", "failed"), SeverityError},
	{containsAny("warning"), SeverityWarn},
	{containsAny("%", "wrote", "writing"), SeverityOK},
	{containsAny("hash of data", "leaving"), SeverityOK},
	{containsAny("connecting", "detecting", "chip is"), SeverityInfo},
}

var buildSeverityRules = []severityRule{
	{containsAny("error"), SeverityError},
	{containsAny("warning"), SeverityWarn},
	{containsAny("success", "bytes"), SeverityOK},
	{containsAny("compiling", "linking"), SeverityInfo},
}

func classify(line string, rules []severityRule) Severity {
	for _, r := range rules {
		if r.match(line) {
			return r.severity
		}
	}
	return SeverityDebug
}

// ClassifyFlashLine classifies one line of flashing-tool output.
func ClassifyFlashLine(line string) Severity {
	return classify(line, flashSeverityRules)
}

// ClassifyBuildLine classifies one line of build-tool output.
func ClassifyBuildLine(line string) Severity {
	return classify(line, buildSeverityRules)
}

// pctPattern matches esptool progress, e.g. "Writing at 0x00010000... (42 %)"
// or a bare "100 %" at the start of a line.
var pctPattern = regexp.MustCompile(`\((\d+)\s*%\)|^(\d+)\s*%`)

// ExtractPercent pulls a percentage out of a line when present.
func ExtractPercent(line string) (int, bool) {
	m := pctPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	pct, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return pct, true
}

type progressTrigger struct {
	match func(string) bool
	apply func(line string) (percent int, status string, ok bool)
}

var flashProgressTriggers = []progressTrigger{
	{
		match: containsAny("%", "wrote", "writing"),
		apply: func(line string) (int, string, bool) {
			pct, ok := ExtractPercent(line)
			if !ok {
				return 0, "", false
			}
			return pct, fmt.Sprintf("Flashing… %d%%", pct), true
		},
	},
	{
		// Verification and reset messages mark the end of the write.
		match: containsAny("hash of data", "leaving"),
		apply: func(string) (int, string, bool) {
			return 100, "Flash complete", true
		},
	},
	{
		match: containsAny("connecting", "detecting", "chip is"),
		apply: func(line string) (int, string, bool) {
			return 0, strings.TrimSpace(line), true
		},
	},
}

// FlashProgress evaluates the flash progress triggers against a line.
func FlashProgress(line string) (percent int, status string, ok bool) {
	for _, t := range flashProgressTriggers {
		if t.match(line) {
			// First matching trigger decides; a failed extraction does not
			// fall through to later triggers.
			return t.apply(line)
		}
	}
	return 0, "", false
}
