package river

import (
	"log/slog"

	"github.com/c360/riverkit/message"
	"github.com/c360/riverkit/validation"
)

// LogListener is a stock PacketListener that records every outcome through
// a structured logger. Useful as a default consumer in riverd and as a
// diagnostic tap alongside real consumers.
type LogListener struct {
	logger *slog.Logger
}

// NewLogListener creates a LogListener. A nil logger falls back to
// slog.Default.
func NewLogListener(logger *slog.Logger) *LogListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogListener{logger: logger}
}

// OnPacket logs the validated payload with its read count and any warnings.
func (l *LogListener) OnPacket(_ Connection, packet message.Payload, plog *validation.ProblemLog) {
	l.logger.Info("Packet validated",
		"message_id", plog.ID(),
		"read_count", packet.ReadCount(),
		"warnings", plog.InformationEntries())
}

// OnError logs the accumulated findings of a failed message.
func (l *LogListener) OnError(_ Connection, plog *validation.ProblemLog) {
	l.logger.Warn("Packet rejected",
		"message_id", plog.ID(),
		"severe", plog.AreSevere(),
		"errors", plog.ErrorEntries(),
		"severe_errors", plog.SevereEntries())
}
