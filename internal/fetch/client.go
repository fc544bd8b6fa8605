// Package fetch issues HTTP(S) GET requests, optionally routed through a
// candidate proxy. It never surfaces transport errors: every failure mode is
// logged at debug level and collapses to a "no result" return, which is what
// the liveness and geolocation callers want.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/proxy"
	"h12.io/socks"

	"github.com/packmad/ClosestProxy/internal/domain"
)

// Get fetches rawURL and returns the response body. A nil via fetches
// directly; otherwise the request is routed through the candidate using the
// proxy scheme matching its protocol. The second return is false on any
// transport, TLS, DNS or non-2xx failure.
func Get(ctx context.Context, rawURL string, via *domain.Candidate, timeout time.Duration) (string, bool) {
	transport, err := transportFor(via, timeout)
	if err != nil {
		log.Debug("proxy transport unavailable", "proxy", via.URL(), "error", err)
		return "", false
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		log.Debug("building request failed", "url", rawURL, "error", err)
		return "", false
	}
	req.Header.Set("Connection", "close")

	resp, err := client.Do(req)
	if err != nil {
		log.Debug("request failed", "url", rawURL, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug("non-success status", "url", rawURL, "status", resp.StatusCode)
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug("reading body failed", "url", rawURL, "error", err)
		return "", false
	}
	return string(body), true
}

// transportFor builds a single-use transport for the given route. Keep-alives
// are off: each probe wants a fresh connection and no idle sockets afterwards.
func transportFor(via *domain.Candidate, timeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: -1,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     true,
		MaxIdleConns:          1,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if via == nil {
		return transport, nil
	}

	switch via.Protocol {
	case domain.SOCKS5:
		socksDialer, err := proxy.SOCKS5("tcp", via.HostPort(), nil, dialer)
		if err != nil {
			return nil, err
		}
		if contextDialer, ok := socksDialer.(proxy.ContextDialer); ok {
			transport.DialContext = contextDialer.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return socksDialer.Dial(network, addr)
			}
		}

	case domain.SOCKS4:
		dial := socks.Dial(via.URL() + "?timeout=" + timeout.String())
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dial(network, addr)
		}

	case domain.HTTP:
		transport.Proxy = schemeBoundProxy("http", &url.URL{Scheme: "http", Host: via.HostPort()})

	case domain.HTTPS:
		transport.Proxy = schemeBoundProxy("https", &url.URL{Scheme: "https", Host: via.HostPort()})
	}
	return transport, nil
}

// schemeBoundProxy installs proxyURL for requests of exactly one URL scheme.
// An http proxy fronts http traffic and an https proxy https traffic; the
// other class bypasses the proxy entirely. SOCKS routes have no such split.
func schemeBoundProxy(scheme string, proxyURL *url.URL) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == scheme {
			return proxyURL, nil
		}
		return nil, nil
	}
}
