// Package probe implements the minimal legal handshake for each supported
// proxy dialect. A probe performs exactly one exchange over an already
// connected stream and reports whether the proxy accepted it. There are no
// retries and no probe-level timers: the stream's deadline bounds every read
// and write, and any I/O error reads as a plain "no".
package probe

import (
	"net"

	"github.com/packmad/ClosestProxy/internal/domain"
)

// Func is a single-shot handshake over an established connection.
type Func func(net.Conn) bool

// ForProtocol returns the handshake implementation for p. HTTP and HTTPS
// proxies share one probe since both answer plain HTTP to it. A value
// outside the protocol set returns nil; that is the caller's configuration
// error to reject before any I/O happens.
func ForProtocol(p domain.Protocol) Func {
	switch p {
	case domain.SOCKS4:
		return SOCKS4
	case domain.SOCKS5:
		return SOCKS5
	case domain.HTTP, domain.HTTPS:
		return HTTP
	}
	return nil
}
