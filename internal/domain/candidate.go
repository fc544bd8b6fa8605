package domain

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// UnknownLocation is the sentinel used when a candidate's geolocation could
// not be determined.
const UnknownLocation = "unknown"

// Geolocation describes where a proxy endpoint is hosted. It is attached
// once, when the candidate is built, and never mutated afterwards.
type Geolocation struct {
	Country string `json:"country"`
	City    string `json:"city,omitempty"`
}

// Known reports whether the record carries a usable country code.
func (g Geolocation) Known() bool {
	return g.Country != "" && g.Country != UnknownLocation
}

// Candidate is one proxy endpoint under evaluation. Apart from the
// geolocation backfill that may run before probing, it is read-only.
type Candidate struct {
	Address     string
	Port        uint16
	Protocol    Protocol
	Anonymity   string
	Score       int
	Geolocation Geolocation
}

// NewCandidate validates the parts of a source record the prober depends on.
// An unrecognized protocol or an out-of-range port rejects the whole record.
func NewCandidate(address string, port int, protocol string) (Candidate, error) {
	proto, err := ParseProtocol(protocol)
	if err != nil {
		return Candidate{}, err
	}
	if port < 1 || port > 65535 {
		return Candidate{}, fmt.Errorf("port out of range: %d", port)
	}
	if address == "" {
		return Candidate{}, fmt.Errorf("empty proxy address")
	}
	return Candidate{
		Address:  address,
		Port:     uint16(port),
		Protocol: proto,
	}, nil
}

// HostPort returns the dialable endpoint address.
func (c Candidate) HostPort() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(int(c.Port)))
}

// URL returns the endpoint in scheme://host:port form.
func (c Candidate) URL() string {
	return c.Protocol.String() + "://" + c.HostPort()
}

// ProbeResult is the measured outcome of one evaluation pass. The zero value
// means the handshake never completed: latency unset, not functional.
type ProbeResult struct {
	Latency    time.Duration
	Functional bool
}

// HasLatency reports whether the handshake completed. Zero latency is the
// "never succeeded" sentinel.
func (r ProbeResult) HasLatency() bool {
	return r.Latency > 0
}

// Evaluation pairs a candidate with its result for the presentation layer.
type Evaluation struct {
	Candidate Candidate
	Result    ProbeResult
}
