package probe

import (
	"bytes"
	"io"
	"net"
)

// httpRequest is the lightest request an HTTP proxy has to answer with a
// status line. OPTIONS * carries no target, so it cannot trigger an upstream
// fetch or trip abuse detection.
var httpRequest = []byte("OPTIONS * HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n")

var httpPrefix = []byte("HTTP/1.")

// HTTP sends an OPTIONS * request and checks for a valid HTTP/1.x status
// line. No status code parsing: any status line means something on the other
// end speaks HTTP.
func HTTP(conn net.Conn) bool {
	if _, err := conn.Write(httpRequest); err != nil {
		return false
	}
	reply := make([]byte, 1024)
	n, err := io.ReadAtLeast(conn, reply, len(httpPrefix))
	if err != nil || n < len(httpPrefix) {
		return false
	}
	return bytes.HasPrefix(reply[:n], httpPrefix)
}
