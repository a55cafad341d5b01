// Package audit delivers security-relevant engine events to sinks off the
// request path.
//
// # Components
//
//   - [Sink]: event consumer. Channel, JSON writer, zap, Kafka, fan-out, no-op.
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: structured record with timestamp, type, principal, client, metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The engine decides which events
// to emit.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goSession or any sibling internal package.
package audit
