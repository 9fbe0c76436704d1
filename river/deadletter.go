package river

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/c360/riverkit/message"
	"github.com/c360/riverkit/validation"
)

// DeadLetterListener publishes the ProblemLog of every failed message to a
// bus subject so operators can inspect or replay rejected traffic. The core
// classifies failures; what happens to the dead letters is up to whoever
// consumes the subject.
type DeadLetterListener struct {
	subject string
	logger  *slog.Logger
}

// NewDeadLetterListener creates a listener that publishes failure
// diagnostics to subject.
func NewDeadLetterListener(subject string, logger *slog.Logger) *DeadLetterListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadLetterListener{
		subject: subject,
		logger:  logger,
	}
}

// OnPacket is a no-op; only failures are dead-lettered.
func (l *DeadLetterListener) OnPacket(_ Connection, _ message.Payload, _ *validation.ProblemLog) {
}

// OnError publishes the serialized ProblemLog to the dead-letter subject.
// Publish failures are logged, never propagated; dead-lettering is best
// effort.
func (l *DeadLetterListener) OnError(conn Connection, plog *validation.ProblemLog) {
	data, err := json.Marshal(plog)
	if err != nil {
		l.logger.Error("Failed to serialize problem log",
			"message_id", plog.ID(),
			"error", err)
		return
	}

	if err := conn.Publish(context.Background(), l.subject, data); err != nil {
		l.logger.Error("Failed to publish dead letter",
			"message_id", plog.ID(),
			"subject", l.subject,
			"error", err)
		return
	}

	l.logger.Debug("Dead letter published",
		"message_id", plog.ID(),
		"subject", l.subject)
}
