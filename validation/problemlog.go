package validation

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// ProblemLog accumulates validation findings for one inbound message. It
// holds the original raw text for diagnostic context and a generated id for
// log correlation. Findings are append-only.
//
// A ProblemLog is not safe for concurrent use; it belongs to a single
// HandleMessage invocation.
type ProblemLog struct {
	id           string
	raw          string
	information  []string
	errors       []string
	severeErrors []string
}

// NewProblemLog creates a ProblemLog for one raw inbound message.
func NewProblemLog(raw string) *ProblemLog {
	return &ProblemLog{
		id:  uuid.NewString(),
		raw: raw,
	}
}

// ID returns the generated correlation id for this message.
func (l *ProblemLog) ID() string {
	return l.id
}

// Raw returns the original raw message text.
func (l *ProblemLog) Raw() string {
	return l.raw
}

// Information records an advisory finding. It never affects routing.
func (l *ProblemLog) Information(msg string) {
	l.information = append(l.information, msg)
}

// Error records a non-fatal validation failure. The chain keeps running but
// the message routes to error dispatch.
func (l *ProblemLog) Error(msg string) {
	l.errors = append(l.errors, msg)
}

// SevereError records a fatal validation failure. No further rule runs for
// this message once the chain observes it.
func (l *ProblemLog) SevereError(msg string) {
	l.severeErrors = append(l.severeErrors, msg)
}

// HasErrors reports whether any error or severe error was recorded.
func (l *ProblemLog) HasErrors() bool {
	return len(l.errors) > 0 || len(l.severeErrors) > 0
}

// AreSevere reports whether any severe error was recorded.
func (l *ProblemLog) AreSevere() bool {
	return len(l.severeErrors) > 0
}

// InformationEntries returns a copy of the recorded informational findings.
func (l *ProblemLog) InformationEntries() []string {
	return copyEntries(l.information)
}

// ErrorEntries returns a copy of the recorded error findings.
func (l *ProblemLog) ErrorEntries() []string {
	return copyEntries(l.errors)
}

// SevereEntries returns a copy of the recorded severe findings.
func (l *ProblemLog) SevereEntries() []string {
	return copyEntries(l.severeErrors)
}

// LogValue implements slog.LogValuer so a ProblemLog can be passed directly
// as a structured logging attribute.
func (l *ProblemLog) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("message_id", l.id),
		slog.Int("information", len(l.information)),
		slog.Int("errors", len(l.errors)),
		slog.Int("severe_errors", len(l.severeErrors)),
	)
}

// problemLogJSON is the wire shape used for dead-letter publication.
type problemLogJSON struct {
	MessageID    string   `json:"message_id"`
	Raw          string   `json:"raw"`
	Information  []string `json:"information,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	SevereErrors []string `json:"severe_errors,omitempty"`
}

// MarshalJSON serializes the ProblemLog for diagnostic publication.
func (l *ProblemLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(problemLogJSON{
		MessageID:    l.id,
		Raw:          l.raw,
		Information:  l.information,
		Errors:       l.errors,
		SevereErrors: l.severeErrors,
	})
}

func copyEntries(entries []string) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}
