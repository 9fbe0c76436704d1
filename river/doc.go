// Package river implements the inbound-message validation and dispatch core
// of riverkit.
//
// A River sits on one message bus connection. Every raw message it handles
// is parsed into a message.Payload, run through an ordered chain of
// validation rules that accumulate findings in a validation.ProblemLog, and
// then routed: messages with error or severe findings go to every
// registered listener's OnError entry point; clean messages get the reserved
// read-count field stamped and go to every listener's OnPacket entry point.
// Listeners are invoked synchronously, in registration order.
//
// Configuration calls (Require, Forbid, RequireValue, RequireSchema,
// Register) are expected to happen during setup, before any message is
// handled. No lock guards the rule and listener lists; configuring a river
// concurrently with live traffic is undefined behavior.
//
// Typical setup:
//
//	r := river.New(conn, river.WithLogger(logger)).
//		Require("type").
//		RequireValue("type", "drawcard").
//		Register(river.NewLogListener(logger))
//	if err := r.Bind(ctx, "game.moves"); err != nil {
//		return err
//	}
package river
