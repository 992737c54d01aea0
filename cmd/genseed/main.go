// Package main writes a synthetic price file for the local engine.
//
// Usage:
//
//	go run ./cmd/genseed --out data/prices.parquet --days 120 --per-day 24
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"crypto-dash/internal/engine/local"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "genseed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts local.SeedOptions
	flags := pflag.NewFlagSet("genseed", pflag.ContinueOnError)
	flags.StringVar(&opts.Path, "out", "prices.parquet", "output file (.parquet or .csv)")
	flags.IntVar(&opts.Days, "days", 120, "days of history ending today")
	flags.IntVar(&opts.PerDay, "per-day", 24, "samples per day, must divide 1440")
	flags.Float64Var(&opts.Seed, "seed", 0.42, "random seed in [-1, 1]")
	flags.Float64Var(&opts.BasePrice, "base-price", 40000, "mean price in USD")
	flags.Float64Var(&opts.BaseVolume, "base-volume", 1e9, "mean daily volume in USD")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := local.GenerateSeed(context.Background(), opts); err != nil {
		return err
	}
	logger.Info("seed written", "path", opts.Path, "days", opts.Days, "per_day", opts.PerDay)
	return nil
}
