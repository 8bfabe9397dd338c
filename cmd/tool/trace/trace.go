package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/danl5/gotransition/internal/trace"
	"github.com/danl5/gotransition/pkg/config"
	"github.com/danl5/gotransition/pkg/log"
)

var (
	script     = flag.String("script", "show,flush,hide,flush,notify", "comma separated steps: show, hide, advance, notify, flush, wait:<duration>")
	initial    = flag.Bool("initial", false, "initial desired state")
	configPath = flag.String("config", "", "JSON config file")
	format     = flag.String("format", "json", "output format, json or msgpack")
	outputPath = flag.String("o", "", "output path, stdout when empty")
	verbose    = flag.Bool("v", false, "log phase transitions to stderr")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	steps, err := trace.Parse(*script)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return err
		}
		if cfg, err = trace.DecodeConfig(data); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := log.NewLogger(os.Stderr, level)

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.OpenFile(*outputPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	records := make(chan trace.Record)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return trace.Replay(ctx, *initial, cfg, steps, logger, records)
	})
	g.Go(func() error {
		return trace.Encode(out, *format, records)
	})
	return g.Wait()
}
