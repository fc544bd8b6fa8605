package probe

import (
	"io"
	"net"
)

// socks4Request is CONNECT 1.1.1.1:80 with an empty user-id. The destination
// only needs to look routable; the reply code tells us whether the proxy
// granted the request, which is all the probe cares about.
var socks4Request = []byte{
	0x04, 0x01, // VN=4, CD=CONNECT
	0x00, 0x50, // port 80
	0x01, 0x01, 0x01, 0x01, // 1.1.1.1
	0x00, // empty USERID
}

const socks4Granted = 0x5A

// SOCKS4 sends a CONNECT request and checks the grant code in the reply.
// The reply's version byte is deliberately ignored: implementations answer
// 0x00 or 0x04 depending on vintage and both occur in the wild.
func SOCKS4(conn net.Conn) bool {
	if _, err := conn.Write(socks4Request); err != nil {
		return false
	}
	reply := make([]byte, 8)
	n, err := io.ReadAtLeast(conn, reply, 2)
	if err != nil || n < 2 {
		return false
	}
	return reply[1] == socks4Granted
}
