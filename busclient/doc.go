// Package busclient manages the NATS connection a river rides on.
//
// The client wraps a single NATS connection with a circuit breaker, typed
// status reporting and slog-based logging. Rivers treat it as their
// transport collaborator: Subscribe registers the river as the message
// handler for a subject, Publish moves raw bytes out (replies, dead
// letters), and ConsumeStream rides a JetStream stream for at-least-once
// delivery, which is exactly the replay scenario the reserved read-count
// payload field exists to surface.
//
// Delivery, ordering across messages and exactly-once semantics are
// transport concerns and stay here; the river core makes no such
// guarantees.
package busclient
