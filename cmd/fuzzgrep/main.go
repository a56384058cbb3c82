package main

import (
	"encoding/json"
	"fmt"
	stdlog "log"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/fuzzgrep/internal/config"
	"github.com/seanblong/fuzzgrep/internal/search"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("fuzzgrep", pflag.ExitOnError)

	cfg, err := config.Load("", fs)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	log.Logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	args := fs.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: fuzzgrep [flags] <pattern> [fuzzy-query]")
		cfg.Usage()
		os.Exit(2)
	}
	grepPattern := args[0]
	// A single argument serves as both the grep pattern and the fuzzy query.
	fuzzyQuery := grepPattern
	if len(args) > 1 {
		fuzzyQuery = args[1]
	}

	svc, err := search.NewService(cfg.Root)
	if err != nil {
		stdlog.Fatalf("Failed to open search root: %v", err)
	}

	res, err := svc.FuzzyGrepSearch(grepPattern, fuzzyQuery, cfg.MaxResults, cfg.Threads)
	if err != nil {
		stdlog.Fatalf("Search failed: %v", err)
	}

	log.Info().Int("matched", res.TotalMatched).Int("grepped", res.TotalGrepped).Msg("search done")

	if cfg.Output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			stdlog.Fatalf("Failed to encode results: %v", err)
		}
		return
	}

	for i, item := range res.Items {
		fmt.Printf("%s:%d: %s\n", item.RelativePath, item.LineNumber, item.LineContent)
		if level <= zerolog.DebugLevel {
			s := res.Scores[i]
			fmt.Printf("  score=%d base=%d line=%d file=%d pos=%d exact=%v\n",
				s.Total, s.BaseScore, s.LineMatchBonus, s.FileTypeBonus, s.PositionBonus, s.ExactMatch)
		}
	}
}
