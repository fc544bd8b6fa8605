// Package geo resolves country codes: the machine's own, via a public IP
// info service, and the candidates', via an optional local GeoLite2 database
// for source records that arrived without one.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"
	"golang.org/x/sync/singleflight"

	"github.com/packmad/ClosestProxy/internal/domain"
	"github.com/packmad/ClosestProxy/internal/fetch"
)

var ipinfoURL = "https://ipinfo.io/json"

const (
	lookupTimeout = 5 * time.Second
	enrichWorkers = 64
)

// Country returns the two-letter country code of the machine's public
// address, or "" when the lookup service cannot be reached.
func Country(ctx context.Context) string {
	body, ok := fetch.Get(ctx, ipinfoURL, nil, lookupTimeout)
	if !ok {
		return ""
	}
	var payload struct {
		Country string `json:"country"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		log.Debug("geolocation response unreadable", "error", err)
		return ""
	}
	return payload.Country
}

// Resolver backfills candidate geolocation from a GeoLite2-Country database.
// The zero-value (or empty-path) resolver is a no-op so callers never have
// to branch on whether a database was configured.
type Resolver struct {
	db    *geoip2.Reader
	group singleflight.Group
}

// OpenResolver opens the database at path. An empty path yields a resolver
// that does nothing.
func OpenResolver(path string) (*Resolver, error) {
	if path == "" {
		return &Resolver{}, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geolite database: %w", err)
	}
	return &Resolver{db: db}, nil
}

func (r *Resolver) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Enrich fills in the country of candidates whose source record carried
// none. Lookups run concurrently and identical addresses are collapsed into
// one database read.
func (r *Resolver) Enrich(candidates []domain.Candidate) {
	if r.db == nil {
		return
	}

	sem := make(chan struct{}, enrichWorkers)
	var wg sync.WaitGroup
	for i := range candidates {
		if candidates[i].Geolocation.Known() {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(c *domain.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			value, err, _ := r.group.Do(c.Address, func() (any, error) {
				return r.lookup(c.Address)
			})
			if err != nil {
				log.Debug("geolite lookup failed", "address", c.Address, "error", err)
				return
			}
			if loc := value.(domain.Geolocation); loc.Known() {
				c.Geolocation = loc
			}
		}(&candidates[i])
	}
	wg.Wait()
}

func (r *Resolver) lookup(address string) (domain.Geolocation, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return domain.Geolocation{}, fmt.Errorf("not an IP literal: %s", address)
	}
	record, err := r.db.Country(ip)
	if err != nil {
		return domain.Geolocation{}, err
	}
	if record.Country.IsoCode == "" {
		return domain.Geolocation{Country: domain.UnknownLocation}, nil
	}
	return domain.Geolocation{Country: record.Country.IsoCode}, nil
}
