// Package checker evaluates proxy candidates: it times the protocol
// handshake against each endpoint and, unless configured for handshake-only
// operation, confirms that the proxy actually forwards traffic.
package checker

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/packmad/ClosestProxy/internal/domain"
	"github.com/packmad/ClosestProxy/internal/fetch"
	"github.com/packmad/ClosestProxy/internal/probe"
)

const (
	DefaultConnectTimeout = 8 * time.Second
	DefaultRequestTimeout = 16 * time.Second

	// The liveness target has to be a stable site that does not block
	// proxies. The Tor Project fits.
	DefaultLivenessURL    = "https://www.torproject.org/"
	DefaultLivenessMarker = "Tor Project"
)

// Config bounds a prober's network behavior.
type Config struct {
	// ConnectTimeout caps the dial and the handshake I/O of one candidate.
	ConnectTimeout time.Duration
	// RequestTimeout caps the whole liveness fetch.
	RequestTimeout time.Duration
	// LivenessURL is fetched through each candidate; the response body must
	// contain LivenessMarker for the candidate to count as functional.
	LivenessURL    string
	LivenessMarker string
	// HandshakeOnly skips the liveness fetch and marks a candidate
	// functional on handshake success alone.
	HandshakeOnly bool
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.LivenessURL == "" {
		c.LivenessURL = DefaultLivenessURL
	}
	if c.LivenessMarker == "" {
		c.LivenessMarker = DefaultLivenessMarker
	}
	return c
}

// Prober evaluates candidates one connection at a time. It is safe for
// concurrent use; all state is per-call.
type Prober struct {
	cfg Config
}

func NewProber(cfg Config) *Prober {
	return &Prober{cfg: cfg.withDefaults()}
}

// Probe dials the candidate, times its handshake and, in liveness mode,
// routes a real request through it.
//
// Transport failures are not errors: they come back as the zero result
// (latency unset, not functional). The only error a caller can see is
// domain.ErrUnsupportedProtocol for a protocol outside the known set, raised
// before any network I/O.
func (p *Prober) Probe(ctx context.Context, candidate domain.Candidate) (domain.ProbeResult, error) {
	handshake := probe.ForProtocol(candidate.Protocol)
	if handshake == nil {
		return domain.ProbeResult{}, fmt.Errorf("%w: %d", domain.ErrUnsupportedProtocol, candidate.Protocol)
	}

	var result domain.ProbeResult

	dialer := &net.Dialer{Timeout: p.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", candidate.HostPort())
	if err != nil {
		log.Debug("proxy unreachable", "proxy", candidate.URL(), "error", err)
		return result, nil
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(p.cfg.ConnectTimeout))

	start := time.Now()
	if !handshake(conn) {
		log.Debug("handshake refused", "proxy", candidate.URL())
		return result, nil
	}
	result.Latency = time.Since(start)

	if p.cfg.HandshakeOnly {
		result.Functional = true
		return result, nil
	}

	// The handshake latency stays valid even when the liveness fetch fails;
	// only the functional flag degrades.
	body, ok := fetch.Get(ctx, p.cfg.LivenessURL, &candidate, p.cfg.RequestTimeout)
	result.Functional = ok && strings.Contains(body, p.cfg.LivenessMarker)
	if !result.Functional {
		log.Debug("liveness check failed", "proxy", candidate.URL())
	}
	return result, nil
}
