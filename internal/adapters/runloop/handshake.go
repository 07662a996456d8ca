package runloop

import "github.com/lcalzada-xor/eapolsupd/internal/core/ports"

// HandshakeNotifier is the non-embedded 4-way-handshake-complete
// notification channel (§4.5). The real kernel event comes over an
// nl80211 multicast group, which this type does not listen to: Subscribe
// ignores its arguments, never calls cb, and returns a no-op unsubscribe. The transport
// only uses the notification as an early force_renew trigger — its
// absence delays, but does not prevent, the status-driven path already
// covering the same force_renew on Authenticated.
type HandshakeNotifier struct{}

func NewHandshakeNotifier() *HandshakeNotifier { return &HandshakeNotifier{} }

func (n *HandshakeNotifier) Subscribe(ifName string, cb func()) (func(), error) {
	return func() {}, nil
}

var _ ports.HandshakeNotifier = (*HandshakeNotifier)(nil)
