package linksocket

import "errors"

// ErrWouldBlock is returned by Receive when no frame is currently pending
// on the non-blocking socket.
var ErrWouldBlock = errors.New("linksocket: would block")
