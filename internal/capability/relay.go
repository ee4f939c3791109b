package capability

import (
	"context"

	"hellosrv/internal/session"
	"hellosrv/util"
)

// Relay is the client side: server lines go to the session's stdout,
// local input lines go to the server.
type Relay struct{}

// Handle shuttles bytes between the connection and the local I/O
// endpoints.  End of local input half-closes the connection; Handle
// returns once the server hangs up or the context is cancelled.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	sess.Logger.Debug("relaying to %s", sess.Peer())
	return util.BidirectionalCopy(ctx, sess.Conn, sess.Stdin, sess.Stdout)
}
