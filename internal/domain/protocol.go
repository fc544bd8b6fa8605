package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Protocol identifies one of the proxy dialects the prober understands.
// It is a closed set: anything a source record declares outside of it is a
// configuration error, not a probe failure.
type Protocol uint8

const (
	SOCKS4 Protocol = iota
	SOCKS5
	HTTP
	HTTPS
)

// ErrUnsupportedProtocol is returned for protocol strings outside the
// recognized set. Callers must reject such records before probing.
var ErrUnsupportedProtocol = errors.New("unsupported proxy protocol")

// ParseProtocol normalizes a source record's protocol field. Matching is
// case-insensitive.
func ParseProtocol(value string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "socks4":
		return SOCKS4, nil
	case "socks5":
		return SOCKS5, nil
	case "http":
		return HTTP, nil
	case "https":
		return HTTPS, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, value)
}

func (p Protocol) String() string {
	switch p {
	case SOCKS4:
		return "socks4"
	case SOCKS5:
		return "socks5"
	case HTTP:
		return "http"
	case HTTPS:
		return "https"
	}
	return "unknown"
}

// Secure reports whether the proxy endpoint itself speaks TLS.
func (p Protocol) Secure() bool {
	return p == HTTPS
}
