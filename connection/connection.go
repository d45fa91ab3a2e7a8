// Package connection defines the capability contract every protocol adapter
// implements, the closed error taxonomy adapters report through, and the
// per-connection event broker that fans published events out to subscribers.
package connection

import (
	"context"

	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
)

// Connection is the uniform surface over one backend chat session. All
// methods are safe for concurrent use; Disconnect may race an in-flight Send.
//
// An adapter owns one background goroutine that drives backend I/O and is
// the sole publisher of inbound events. Failures inside that loop surface as
// a StatusEvent with OpDisconnected carrying a diagnostic artifact, never as
// errors on unrelated calls.
type Connection interface {
	// ProtocolSpec returns the static protocol descriptor: the backend name
	// and the ordered auth fields a UI should prompt for. Pure and callable
	// without an active connection.
	ProtocolSpec() domain.Protocol

	// Connect validates auth against ProtocolSpec and establishes the
	// backend session. Validation failures return a KindAuthValidation error
	// before any I/O happens. Call at most once per unconnected instance.
	Connect(ctx context.Context, auth []domain.AuthField) error

	// Disconnect terminates the adapter's I/O loop and closes the event
	// stream so every subscriber observes closure. Idempotent: disconnecting
	// an already-disconnected instance succeeds.
	Disconnect(ctx context.Context) error

	// Send translates a canonical event into backend-native action. Events
	// the backend cannot express fail with KindProtocolViolation; they are
	// never silently dropped.
	Send(ctx context.Context, ev event.ConnectionEvent) error

	// Subscribe returns a fresh, private view of events published after the
	// call. Registration never blocks; subscribers never share a cursor.
	Subscribe() *Subscription
}
