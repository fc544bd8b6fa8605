// Package config collects everything the evaluation core consumes. The CLI
// layer fills it from flags; CLOSESTPROXY_* environment variables (usually
// via a .env file) override the flag values.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultConnectTimeout = 8 * time.Second
	DefaultRequestTimeout = 16 * time.Second
)

// SubnetMaskOff disables subnet deduplication.
const SubnetMaskOff = -1

type Settings struct {
	// Countries holds ISO-3166 two-letter codes; empty means "use the
	// machine's own geolocation".
	Countries []string
	// SubnetMask is the CIDR prefix length for subnet dedup, 0-32, or
	// SubnetMaskOff.
	SubnetMask int
	// Parallelism bounds the probe worker pool.
	Parallelism int

	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	LivenessURL    string
	LivenessMarker string
	// HandshakeOnly marks proxies working on handshake success alone,
	// without the liveness fetch.
	HandshakeOnly bool

	// GeoLitePath optionally points at a GeoLite2-Country .mmdb used to
	// backfill countries missing from the source feed.
	GeoLitePath string
}

func Default() Settings {
	return Settings{
		SubnetMask:     SubnetMaskOff,
		Parallelism:    runtime.NumCPU(),
		ConnectTimeout: DefaultConnectTimeout,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// FromEnv overlays CLOSESTPROXY_* environment variables onto s and returns
// the result. Unset or unparsable variables leave the current value alone.
func (s Settings) FromEnv() Settings {
	if v := os.Getenv("CLOSESTPROXY_COUNTRIES"); v != "" {
		s.Countries = splitCodes(v)
	}
	if v := os.Getenv("CLOSESTPROXY_SUBNET_MASK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.SubnetMask = n
		}
	}
	if v := os.Getenv("CLOSESTPROXY_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.Parallelism = n
		}
	}
	if v := os.Getenv("CLOSESTPROXY_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			s.ConnectTimeout = d
		}
	}
	if v := os.Getenv("CLOSESTPROXY_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			s.RequestTimeout = d
		}
	}
	if v := os.Getenv("CLOSESTPROXY_LIVENESS_URL"); v != "" {
		s.LivenessURL = v
	}
	if v := os.Getenv("CLOSESTPROXY_LIVENESS_MARKER"); v != "" {
		s.LivenessMarker = v
	}
	if v := os.Getenv("CLOSESTPROXY_HANDSHAKE_ONLY"); v != "" {
		s.HandshakeOnly = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("CLOSESTPROXY_GEOLITE_DB"); v != "" {
		s.GeoLitePath = v
	}
	return s
}

// Validate rejects settings the core would otherwise have to guess about.
func (s Settings) Validate() error {
	if s.SubnetMask != SubnetMaskOff && (s.SubnetMask < 0 || s.SubnetMask > 32) {
		return fmt.Errorf("subnet mask length must be between 0 and 32, got %d", s.SubnetMask)
	}
	for _, code := range s.Countries {
		if len(code) != 2 {
			return fmt.Errorf("%q is not a 2-letter country code", code)
		}
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("parallelism must be positive, got %d", s.Parallelism)
	}
	return nil
}

func splitCodes(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	})
	codes := make([]string, 0, len(fields))
	for _, f := range fields {
		codes = append(codes, strings.ToUpper(f))
	}
	return codes
}
