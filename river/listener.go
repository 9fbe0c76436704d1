package river

import (
	"context"

	"github.com/c360/riverkit/message"
	"github.com/c360/riverkit/validation"
)

// Connection is the minimal outbound surface of the bus connection a river
// is bound to. Listeners receive it so they can publish replies or
// diagnostics without owning the connection.
type Connection interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// SubscribingConnection is a Connection that can also register the river as
// a message handler. busclient.Client satisfies it.
type SubscribingConnection interface {
	Connection
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
}

// PacketListener receives the outcome of one handled message: either a
// validated payload plus any non-fatal findings, or a ProblemLog describing
// failure. Implementations must not retain the payload beyond the call.
type PacketListener interface {
	// OnPacket is called after successful validation. The problem log may
	// still carry informational findings.
	OnPacket(conn Connection, packet message.Payload, plog *validation.ProblemLog)

	// OnError is called when parsing or validation failed. The problem log
	// carries error and informational findings for diagnostics.
	OnError(conn Connection, plog *validation.ProblemLog)
}
