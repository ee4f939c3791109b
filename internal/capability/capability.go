// Package capability defines what happens over an established
// connection.  Each Capability encapsulates one behaviour: answering
// greetings on the server side (Greet) or relaying terminal lines on
// the client side (Relay).  Both operate on a Session rather than a raw
// net.Conn, which keeps them testable over net.Pipe.
package capability

import (
	"context"

	"hellosrv/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.
type Capability interface {
	// Handle runs the capability against the given session.
	// It blocks until the connection is done or the context is
	// cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}
