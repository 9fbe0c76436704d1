// Package riverkit provides a validation and dispatch core for inbound
// messages on a publish/subscribe bus.
//
// # Architecture
//
// A river sits between a bus connection and the application listeners:
//
//	┌─────────────────────────────────────┐
//	│           Bus Connection            │  NATS subjects,
//	│     (busclient, input/websocket)    │  WebSocket ingress
//	└──────────────────┬──────────────────┘
//	                   ↓ raw message
//	┌─────────────────────────────────────┐
//	│              River                  │  parse → validate →
//	│   (chain of rules, problem log)     │  stamp read count
//	└──────────────────┬──────────────────┘
//	                   ↓ packet or problem log
//	┌─────────────────────────────────────┐
//	│          PacketListeners            │  OnPacket / OnError,
//	│  (application, log, dead-letter)    │  registration order
//	└─────────────────────────────────────┘
//
// Every inbound message runs through the river's validation chain. Rules
// append findings to a per-message problem log; a message with error or
// severe findings is rejected and its listeners receive the log, otherwise
// the payload's read count is stamped and the packet is dispatched. One
// malformed message never affects another: all parse and rule failures are
// converted into findings, nothing propagates past HandleMessage.
//
// # Packages
//
// Core:
//   - message: raw payload parsing and the reserved read-count field
//   - validation: problem logs, rule variants, the validation chain
//   - river: orchestration, listener dispatch, stock listeners
//
// Infrastructure:
//   - busclient: NATS connection management with a circuit breaker
//   - input/websocket: WebSocket ingress feeding a river
//   - config: YAML configuration for riverd
//   - metric: Prometheus metrics registry
//   - errors: structured error handling
//
// # Usage
//
// Configure a river once at startup, then bind it to subjects:
//
//	client, _ := busclient.NewClient("nats://localhost:4222")
//	client.Connect(ctx)
//
//	r := river.New(client, river.WithLogger(logger)).
//		Require("type", "player_id").
//		Forbid(message.ReadCountKey).
//		Register(myListener)
//
//	r.Bind(ctx, "game.table.inbound")
//
// The riverd binary (cmd/riverd) wires this up from a YAML file.
package riverkit
