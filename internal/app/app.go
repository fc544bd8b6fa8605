// Package app wires flags, environment and the evaluation pipeline into the
// command-line run.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/packmad/ClosestProxy/internal/checker"
	"github.com/packmad/ClosestProxy/internal/config"
	"github.com/packmad/ClosestProxy/internal/domain"
	"github.com/packmad/ClosestProxy/internal/geo"
	"github.com/packmad/ClosestProxy/internal/rank"
	"github.com/packmad/ClosestProxy/internal/source"
	"github.com/packmad/ClosestProxy/internal/support"
)

// countryList collects repeatable -country flags; comma- or space-separated
// values in a single flag work too.
type countryList []string

func (c *countryList) String() string {
	return strings.Join(*c, ",")
}

func (c *countryList) Set(value string) error {
	for _, field := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		*c = append(*c, strings.ToUpper(field))
	}
	return nil
}

func Run() error {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using system environment")
	}

	defaults := config.Default()

	var countries countryList
	flag.Var(&countries, "country", "ISO-3166 2-letter country code, repeatable (default: own geolocation)")
	subnet := flag.Int("subnet", config.SubnetMaskOff, "CIDR mask length for subnet dedup, 0-32 (default: off)")
	handshakeOnly := flag.Bool("handshake-only", false, "mark proxies working on handshake success alone, skipping the liveness fetch")
	parallelism := flag.Int("parallelism", defaults.Parallelism, "number of concurrent probe workers")
	connectTimeout := flag.Duration("connect-timeout", defaults.ConnectTimeout, "per-proxy connect and handshake timeout")
	requestTimeout := flag.Duration("request-timeout", defaults.RequestTimeout, "liveness request timeout")
	livenessURL := flag.String("liveness-url", checker.DefaultLivenessURL, "URL fetched through each proxy to confirm forwarding")
	livenessMarker := flag.String("liveness-marker", checker.DefaultLivenessMarker, "string the liveness response body must contain")
	geolitePath := flag.String("geolite-db", "", "optional GeoLite2-Country .mmdb to backfill missing countries")
	verbose := flag.Bool("verbose", false, "log per-candidate diagnostics")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	settings := defaults
	settings.Countries = countries
	settings.SubnetMask = *subnet
	settings.HandshakeOnly = *handshakeOnly
	settings.Parallelism = *parallelism
	settings.ConnectTimeout = *connectTimeout
	settings.RequestTimeout = *requestTimeout
	settings.LivenessURL = *livenessURL
	settings.LivenessMarker = *livenessMarker
	settings.GeoLitePath = *geolitePath
	settings = settings.FromEnv()

	if err := settings.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return run(ctx, settings)
}

func run(ctx context.Context, settings config.Settings) error {
	if len(settings.Countries) == 0 {
		code := geo.Country(ctx)
		if code == "" {
			return errors.New("could not determine own country; pass -country explicitly")
		}
		settings.Countries = []string{code}
		log.Info("using own geolocation", "country", code)
	}

	candidates, err := source.Load(ctx)
	if err != nil {
		return err
	}
	log.Info("proxy list loaded", "count", len(candidates))

	resolver, err := geo.OpenResolver(settings.GeoLitePath)
	if err != nil {
		return err
	}
	defer resolver.Close()
	resolver.Enrich(candidates)

	selected := filterByCountry(candidates, settings.Countries)
	log.Info("matching proxies found",
		"count", len(selected),
		"countries", strings.Join(settings.Countries, ","))
	if len(selected) == 0 {
		return nil
	}

	prober := checker.NewProber(checker.Config{
		ConnectTimeout: settings.ConnectTimeout,
		RequestTimeout: settings.RequestTimeout,
		LivenessURL:    settings.LivenessURL,
		LivenessMarker: settings.LivenessMarker,
		HandshakeOnly:  settings.HandshakeOnly,
	})

	bar := progressbar.Default(int64(len(selected)), "probing")
	evaluations := prober.ProbeAll(ctx, selected, settings.Parallelism, func(done, total int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()

	ranked := rank.Rank(evaluations, true, settings.SubnetMask)
	log.Info("working proxies found", "count", len(ranked))

	fmt.Print(support.RenderTable(ranked))
	return nil
}

func filterByCountry(candidates []domain.Candidate, codes []string) []domain.Candidate {
	want := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		want[strings.ToUpper(code)] = struct{}{}
	}
	selected := make([]domain.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := want[strings.ToUpper(candidate.Geolocation.Country)]; ok {
			selected = append(selected, candidate)
		}
	}
	return selected
}
