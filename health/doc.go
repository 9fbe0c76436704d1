// Package health tracks the liveness of riverd's moving parts.
//
// Each part reports a Status into a Monitor; the Monitor aggregates them
// into one system status and serves it as JSON, suitable for a /healthz
// endpoint. Error messages are sanitized before they leave the process so
// URLs, paths and credentials never appear in health output.
package health
