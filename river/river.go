package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/riverkit/errors"
	"github.com/c360/riverkit/message"
	"github.com/c360/riverkit/metric"
	"github.com/c360/riverkit/validation"
)

// River orchestrates the lifecycle of inbound messages on one bus
// connection: parse, validate, dispatch. It owns the validation chain and
// the ordered set of registered listeners.
type River struct {
	conn      Connection
	chain     *validation.Chain
	listeners []PacketListener
	logger    *slog.Logger
	registry  *metric.MetricsRegistry
	metrics   *riverMetrics
}

// Option configures a River at construction.
type Option func(*River)

// WithLogger sets the structured logger used by the river.
func WithLogger(logger *slog.Logger) Option {
	return func(r *River) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics registers river core metrics with the given registry. A nil
// registry disables metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(r *River) {
		r.registry = registry
	}
}

// New creates a River bound to one bus connection. The river lives for the
// process lifetime; construct it once at startup, configure it, then bind.
func New(conn Connection, opts ...Option) *River {
	r := &River{
		conn:   conn,
		chain:  &validation.Chain{},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.registry != nil {
		metrics, err := newRiverMetrics(r.registry)
		if err != nil {
			r.logger.Error("Failed to initialize river metrics", "error", err)
		} else {
			r.metrics = metrics
		}
	}

	return r
}

// Require appends a rule demanding that every listed key be present and
// non-empty. Returns the river for chained configuration.
func (r *River) Require(keys ...string) *River {
	r.chain.Append(validation.RequiredKeys(keys...))
	return r
}

// Forbid appends a rule demanding that every listed key be absent or empty.
// Returns the river for chained configuration.
func (r *River) Forbid(keys ...string) *River {
	r.chain.Append(validation.ForbiddenKeys(keys...))
	return r
}

// RequireValue appends a rule demanding that key hold exactly the expected
// string value. Returns the river for chained configuration.
func (r *River) RequireValue(key, value string) *River {
	r.chain.Append(validation.RequiredValue(key, value))
	return r
}

// RequireSchema appends a JSON-Schema conformance rule. Unlike the other
// configuration calls it can fail, because the schema compiles at
// configuration time.
func (r *River) RequireSchema(schemaJSON string) (*River, error) {
	rule, err := validation.Schema(schemaJSON)
	if err != nil {
		return r, errors.WrapInvalid(err, "River", "RequireSchema", "compile schema rule")
	}
	r.chain.Append(rule)
	return r, nil
}

// AddRule appends an arbitrary validation rule. Returns the river for
// chained configuration.
func (r *River) AddRule(rule validation.Rule) *River {
	r.chain.Append(rule)
	return r
}

// Register appends a listener to the notification list. Listeners are
// notified in registration order; registering the same listener twice
// notifies it twice.
func (r *River) Register(listener PacketListener) *River {
	r.listeners = append(r.listeners, listener)
	return r
}

// Rules returns the number of configured validation rules.
func (r *River) Rules() int {
	return r.chain.Len()
}

// Bind subscribes the river as the message handler for the given subjects
// on its connection. This is the transport registration hook: after Bind,
// every raw message delivered on a subject flows through HandleMessage.
func (r *River) Bind(ctx context.Context, subjects ...string) error {
	sub, ok := r.conn.(SubscribingConnection)
	if !ok {
		return errors.WrapInvalid(errors.ErrSubscriptionFailed,
			"River", "Bind", "connection does not support subscriptions")
	}

	for _, subject := range subjects {
		if err := sub.Subscribe(ctx, subject, r.HandleMessage); err != nil {
			return errors.WrapTransient(err, "River", "Bind",
				fmt.Sprintf("subscribe to %s", subject))
		}
		r.logger.Info("River bound to subject",
			"subject", subject,
			"rules", r.chain.Len(),
			"listeners", len(r.listeners))
	}

	return nil
}

// HandleMessage runs one raw message through parse, validation and
// dispatch, fully synchronously on the calling goroutine. All outcomes are
// delivered through listener callbacks; nothing propagates past this
// boundary, so one malformed message can never affect another.
func (r *River) HandleMessage(ctx context.Context, raw []byte) {
	start := time.Now()
	r.metrics.recordReceived()

	plog := validation.NewProblemLog(string(raw))

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.recordPanic()
			r.logger.Error("Panic while handling message",
				"message_id", plog.ID(),
				"panic", fmt.Sprint(rec))
		}
	}()

	payload := r.parse(raw, plog)

	// Rules expect a non-nil payload; when parsing failed the severe
	// finding already short-circuits the chain, but guard explicitly.
	if payload != nil {
		r.chain.Run(payload, plog)
	}
	r.metrics.observeValidation(time.Since(start))

	if plog.HasErrors() {
		r.metrics.recordDispatch(outcomeError, plog.AreSevere())
		r.logger.Debug("Message failed validation",
			"problems", plog,
			"severe", plog.AreSevere())

		for _, listener := range r.listeners {
			listener.OnError(r.conn, plog)
		}
		return
	}

	readCount := payload.StampReadCount()
	r.metrics.recordDispatch(outcomeSuccess, false)
	r.logger.Debug("Message validated",
		"problems", plog,
		"read_count", readCount)

	for _, listener := range r.listeners {
		listener.OnPacket(r.conn, payload, plog)
	}
}

// parse decodes the raw message, converting every failure mode into a
// severe finding: malformed text yields the fixed "invalid message format"
// finding, anything else carries the underlying description. Internal
// failures are recovered here rather than propagated.
func (r *River) parse(raw []byte, plog *validation.ProblemLog) (payload message.Payload) {
	defer func() {
		if rec := recover(); rec != nil {
			payload = nil
			plog.SevereError(fmt.Sprintf("message parsing failed: %v", rec))
		}
	}()

	parsed, err := message.Parse(raw)
	if err != nil {
		if message.IsSyntaxError(err) {
			plog.SevereError("invalid message format")
		} else {
			plog.SevereError(fmt.Sprintf("message parsing failed: %v", err))
		}
		return nil
	}

	return parsed
}
