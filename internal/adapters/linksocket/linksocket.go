// Package linksocket opens the non-blocking kernel raw datagram socket the
// socket source reads and writes Ethernet frames through (§4.2). The
// actual AF_PACKET plumbing is Linux-specific; see linksocket_linux.go.
package linksocket

// MaxFrameLen bounds a single Receive call (§4.4: "read one frame, up to
// 1600 bytes").
const MaxFrameLen = 1600

// Socket is the raw link-layer socket bound to a single interface.
type Socket interface {
	// Receive performs one non-blocking read of a raw Ethernet frame into
	// buf. It returns (0, nil) on EOF (silently dropped per §4.2) and
	// (0, ErrWouldBlock) when no frame is pending.
	Receive(buf []byte) (int, error)

	// Send writes one raw Ethernet frame. A short write is reported as
	// domain.ErrShortSend.
	Send(frame []byte) error

	// Fd exposes the underlying file descriptor for an FDDispatcher.
	Fd() int

	// Close releases the socket.
	Close() error
}

// Config selects which EtherTypes and multicast membership Open arranges,
// mirroring §4.2's wired/wireless distinction.
type Config struct {
	IfName   string
	Wireless bool
}
