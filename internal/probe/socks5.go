package probe

import (
	"io"
	"net"
)

// socks5Greeting offers exactly one authentication method: none.
var socks5Greeting = []byte{0x05, 0x01, 0x00}

// SOCKS5 negotiates the method greeting and succeeds only if the server
// echoes version 5 and selects "no authentication". A server demanding any
// auth method, or closing before two bytes arrive, is a refusal.
func SOCKS5(conn net.Conn) bool {
	if _, err := conn.Write(socks5Greeting); err != nil {
		return false
	}
	var reply [2]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return false
	}
	return reply[0] == 0x05 && reply[1] == 0x00
}
