package subscribers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/folioscan/folio/pkg/output"
)

// DiagnosticSubscriber renders diagnostic events to stderr when verbosity
// is raised. Events above the configured level are dropped.
//
// Line format: [LEVEL] HH:MM:SS message key:value ...
type DiagnosticSubscriber struct {
	maxLevel output.OutputLevel
	writer   io.Writer
}

// NewDiagnosticSubscriber creates a subscriber showing diagnostics up to
// and including maxLevel.
func NewDiagnosticSubscriber(maxLevel output.OutputLevel, writer io.Writer) *DiagnosticSubscriber {
	return &DiagnosticSubscriber{
		maxLevel: maxLevel,
		writer:   writer,
	}
}

// Name returns the subscriber identifier.
func (s *DiagnosticSubscriber) Name() string {
	return "diagnostic-subscriber"
}

// ShouldHandle accepts diagnostic events at or below the configured level.
func (s *DiagnosticSubscriber) ShouldHandle(event output.OutputEvent) bool {
	if event.Type != output.EventDiag {
		return false
	}
	return event.Level <= s.maxLevel
}

// Handle renders one diagnostic line.
func (s *DiagnosticSubscriber) Handle(event output.OutputEvent) {
	var b strings.Builder
	b.WriteString("[" + levelTag(event.Level) + "] ")
	b.WriteString(event.Timestamp.Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(event.Message)

	// Metadata in stable order
	if len(event.Metadata) > 0 {
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s:%v", k, event.Metadata[k]))
		}
	}

	_, _ = fmt.Fprintln(s.writer, b.String())
}

func levelTag(level output.OutputLevel) string {
	switch level {
	case output.LevelVerbose:
		return "VERBOSE"
	case output.LevelDebug:
		return "DEBUG"
	case output.LevelTrace:
		return "TRACE"
	default:
		return "INFO"
	}
}
