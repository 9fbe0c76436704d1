// Package message defines the Payload type for inbound river messages.
//
// A Payload is the parsed form of one raw message received from the bus:
// a JSON object decoded into a map of string keys to dynamically typed
// values. Validation rules inspect payloads through the accessors here and
// must treat them as read-only; the only sanctioned mutation is the reserved
// read-count field stamped by the river on successful dispatch.
//
// # Emptiness semantics
//
// Required/forbidden key checks share one definition of "absent": a key that
// is missing, JSON null, an empty string, an empty array, or an empty object
// counts as absent. Every other value counts as present, including 0 and
// false.
//
// # Reserved read-count field
//
// The field named by ReadCountKey is owned by the river, not the sender. It
// is a plain payload key with no namespacing, so it can collide with
// sender-controlled data; the exact name is kept for wire compatibility with
// existing consumers. Absent or non-integer values normalize to 0 before the
// first increment, letting downstream consumers detect at-least-once replay.
package message
