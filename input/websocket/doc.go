// Package websocket provides a WebSocket ingress that feeds received text
// frames to a river.
//
// The ingress runs an HTTP server with a single upgrade endpoint. Every
// frame read from a client connection is handed to the configured message
// handler (normally a river's HandleMessage) synchronously on that
// connection's read loop, so one slow client never blocks another. Outcomes
// are delivered through the river's listeners, exactly as for bus traffic;
// the ingress itself sends nothing back to the client.
package websocket
