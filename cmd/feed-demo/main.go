// Command feed-demo drives the feed boundary from the command line.
//
//	FEED_BATCH_SIZE=4 FEED_TICKS=10 feed-demo roster.yaml
//
// Set FEED_SEED to a 64-digit hex seed (as printed in the header) to replay a run.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/foxxorcat/wazero-feed/common/random"
	"github.com/foxxorcat/wazero-feed/feed"
	manager_feed "github.com/foxxorcat/wazero-feed/manager/feed"

	"github.com/caarlos0/env/v11"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

type config struct {
	BatchSize int    `env:"FEED_BATCH_SIZE" envDefault:"6"`
	Ticks     int    `env:"FEED_TICKS" envDefault:"5"`
	Seed      string `env:"FEED_SEED"`
	Debug     bool   `env:"FEED_DEBUG"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: feed-demo <roster.yaml>")
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Stdout); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "feed-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(rosterPath string, out io.Writer) error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	people, err := loadRoster(rosterPath)
	if err != nil {
		return err
	}
	rng, err := sourceFor(cfg.Seed)
	if err != nil {
		return err
	}

	m := manager_feed.NewManager(logger, rng)
	body, err := json.Marshal(feed.Config{People: people, BatchSize: cfg.BatchSize})
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	handle, err := m.Create(body)
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	defer m.Destroy(handle)

	seed, err := m.Seed()
	if err != nil {
		return err
	}
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(out, "seed:")
	fmt.Fprintln(out, seed)

	preload, err := m.PreloadAll(handle)
	if err != nil {
		return err
	}
	var avatars []string
	err = json.Unmarshal(preload, &avatars)
	m.Release(preload)
	if err != nil {
		return fmt.Errorf("decode preload: %w", err)
	}
	header.Fprintf(out, "preload %d avatars\n", len(avatars))

	for i := range cfg.Ticks {
		b, err := m.Advance(handle)
		if err != nil {
			return err
		}
		var tick manager_feed.TickResponse
		err = json.Unmarshal(b, &tick)
		m.Release(b)
		if err != nil {
			return fmt.Errorf("decode tick: %w", err)
		}

		names := make([]string, len(tick.Current))
		for j, p := range tick.Current {
			names[j] = displayName(p)
		}
		header.Fprintf(out, "tick %d: ", i+1)
		fmt.Fprintf(out, "%s (+%d preload)\n", strings.Join(names, ", "), len(tick.PreloadImages))
	}
	return nil
}

func displayName(p *feed.Profile) string {
	if p.StudentName != nil {
		return *p.StudentName
	}
	if p.StudentID != nil {
		return *p.StudentID
	}
	return p.Avatar
}

func sourceFor(seedHex string) (*random.Source, error) {
	if seedHex == "" {
		return nil, nil
	}
	seed, err := random.ParseSeed(seedHex)
	if err != nil {
		return nil, fmt.Errorf("FEED_SEED: %w", err)
	}
	return random.NewSource(seed), nil
}

func newLogger(debug bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
