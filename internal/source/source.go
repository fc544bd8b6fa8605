// Package source loads the public proxy list the evaluation runs against.
// The raw list is cached in the system temp directory so repeat runs don't
// hammer the upstream repository.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/packmad/ClosestProxy/internal/domain"
)

var listURL = "https://raw.githubusercontent.com/proxifly/free-proxy-list/refs/heads/main/proxies/all/data.json"

const (
	cacheFileName = "closestproxy-data.json"
	fetchTimeout  = 30 * time.Second
)

// record mirrors one entry of the proxifly data.json feed.
type record struct {
	Proxy       string `json:"proxy"`
	Protocol    string `json:"protocol"`
	IP          string `json:"ip"`
	Port        int    `json:"port"`
	HTTPS       bool   `json:"https"`
	Anonymity   string `json:"anonymity"`
	Score       int    `json:"score"`
	Geolocation struct {
		Country string `json:"country"`
		City    string `json:"city"`
	} `json:"geolocation"`
}

// Load returns the candidate list, fetching the feed on first use and
// reusing the cached copy afterwards.
func Load(ctx context.Context) ([]domain.Candidate, error) {
	data, err := cachedFeed(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes feed records into candidates. Records that fail validation
// (unknown protocol, bad port) are dropped and counted, never fatal.
func Parse(data []byte) ([]domain.Candidate, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode proxy list: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(records))
	rejected := 0
	for _, rec := range records {
		candidate, err := domain.NewCandidate(rec.IP, rec.Port, rec.Protocol)
		if err != nil {
			rejected++
			log.Debug("rejecting source record", "proxy", rec.Proxy, "error", err)
			continue
		}
		candidate.Anonymity = rec.Anonymity
		candidate.Score = rec.Score
		candidate.Geolocation = domain.Geolocation{
			Country: rec.Geolocation.Country,
			City:    rec.Geolocation.City,
		}
		candidates = append(candidates, candidate)
	}
	if rejected > 0 {
		log.Warn("dropped invalid source records", "count", rejected)
	}
	return candidates, nil
}

func cachedFeed(ctx context.Context) ([]byte, error) {
	path := filepath.Join(os.TempDir(), cacheFileName)
	if data, err := os.ReadFile(path); err == nil {
		log.Debug("using cached proxy list", "path", path)
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: fetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch proxy list: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read proxy list: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn("could not cache proxy list", "path", path, "error", err)
	}
	return data, nil
}
