package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/packmad/ClosestProxy/internal/domain"
)

const testTimeout = 5 * time.Second

func candidateFor(t *testing.T, server *httptest.Server, protocol string) domain.Candidate {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	c, err := domain.NewCandidate(u.Hostname(), port, protocol)
	if err != nil {
		t.Fatalf("build candidate: %v", err)
	}
	return c
}

func TestGetDirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello there"))
	}))
	defer server.Close()

	body, ok := Get(context.Background(), server.URL, nil, testTimeout)
	if !ok {
		t.Fatal("direct fetch failed")
	}
	if body != "hello there" {
		t.Fatalf("body = %q", body)
	}
}

func TestGetNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	if _, ok := Get(context.Background(), server.URL, nil, testTimeout); ok {
		t.Fatal("502 reported as success")
	}
}

func TestGetUnreachable(t *testing.T) {
	// Closed immediately so the port is dead by the time we dial it.
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	if _, ok := Get(context.Background(), target, nil, 500*time.Millisecond); ok {
		t.Fatal("fetch through a dead endpoint reported success")
	}
}

func TestGetThroughHTTPProxy(t *testing.T) {
	// A forward HTTP proxy sees the absolute URI in the request line. This
	// stub doesn't forward anything, it just proves the request arrived at
	// the proxy rather than the origin.
	var sawAbsoluteURI bool
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAbsoluteURI = r.URL.IsAbs()
		w.Write([]byte("proxied"))
	}))
	defer proxyServer.Close()

	via := candidateFor(t, proxyServer, "http")
	body, ok := Get(context.Background(), "http://example.invalid/resource", &via, testTimeout)
	if !ok {
		t.Fatal("fetch through http proxy failed")
	}
	if body != "proxied" {
		t.Fatalf("body = %q", body)
	}
	if !sawAbsoluteURI {
		t.Error("proxy did not receive an absolute-URI request")
	}
}

func TestHTTPSProxyNotUsedForPlainHTTP(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("straight from origin"))
	}))
	defer origin.Close()

	// Candidate claims to be an https proxy at a dead address. If it were
	// installed for http traffic the fetch would fail; instead the request
	// must go directly to the origin.
	via, err := domain.NewCandidate("192.0.2.1", 443, "https")
	if err != nil {
		t.Fatalf("build candidate: %v", err)
	}

	body, ok := Get(context.Background(), origin.URL, &via, testTimeout)
	if !ok {
		t.Fatal("plain http fetch should bypass an https-protocol proxy")
	}
	if body != "straight from origin" {
		t.Fatalf("body = %q", body)
	}
}
