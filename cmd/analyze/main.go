package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizmetrics/internal/config"
	"bizmetrics/internal/engine"
	"bizmetrics/internal/logging"
	"bizmetrics/internal/sample"
	"bizmetrics/internal/source"

	"github.com/docopt/docopt.go"
	"go.uber.org/zap"
)

const usage = `Business metrics analyzer.

Usage:
  analyze report <file> [--segment=<col>...] [--top=<n>] [--period=<p>] [--json]
  analyze charts <file> [--out=<dir>] [--segment=<col>]
  analyze generate [--out=<dir>] [--records=<n>] [--customers=<n>] [--seed=<n>] [--arrow]
  analyze (-h | --help)
  analyze --version

Options:
  -h --help          Show this screen.
  --version          Show version.
  --segment=<col>    Segment column to break revenue down by (repeatable).
  --top=<n>          Number of top transactions to list.
  --period=<p>       Growth period: ME, QE or YE.
  --json             Print the dashboard as JSON instead of tables.
  --out=<dir>        Output directory (default OUTPUT_DIR, or data/sample for generate).
  --records=<n>      Sales rows to generate [default: 500].
  --customers=<n>    Customers to generate [default: 200].
  --seed=<n>         Random seed [default: 42].
  --arrow            Also write Arrow IPC copies.
`

func main() {
	arguments, err := docopt.ParseArgs(usage, os.Args[1:], "analyze 1.0.0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, arguments, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, arguments docopt.Opts, cfg *config.Config, logger *zap.Logger) error {
	switch {
	case flag(arguments, "generate"):
		return generate(arguments, logger)
	case flag(arguments, "report"):
		table, err := load(ctx, arguments, cfg, logger)
		if err != nil {
			return err
		}
		opts, err := reportOptions(arguments, cfg)
		if err != nil {
			return err
		}
		if flag(arguments, "--json") {
			return printJSON(os.Stdout, engine.BuildDashboard(engine.NewAnalyzer(table), opts))
		}
		return printReport(os.Stdout, engine.NewAnalyzer(table), opts)
	case flag(arguments, "charts"):
		table, err := load(ctx, arguments, cfg, logger)
		if err != nil {
			return err
		}
		out := cfg.OutputDir
		if v, _ := arguments.String("--out"); v != "" {
			out = v
		}
		segment := "product_category"
		if segs := stringsOf(arguments, "--segment"); len(segs) > 0 {
			segment = segs[0]
		}
		paths, err := renderCharts(ctx, table, out, segment, logger)
		for _, p := range paths {
			fmt.Println(p)
		}
		return err
	}
	return errors.New("no command given")
}

func load(ctx context.Context, arguments docopt.Opts, cfg *config.Config, logger *zap.Logger) (*engine.Table, error) {
	path, err := arguments.String("<file>")
	if err != nil {
		return nil, err
	}
	loader := source.NewLoader(cfg.GCSCredentialsFile, source.WithLogger(logger))
	return loader.Load(ctx, path)
}

func reportOptions(arguments docopt.Opts, cfg *config.Config) (engine.DashboardOptions, error) {
	opts := cfg.DashboardOptions()
	if segs := stringsOf(arguments, "--segment"); len(segs) > 0 {
		opts.SegmentColumns = segs
	}
	if v, _ := arguments.String("--top"); v != "" {
		n, err := arguments.Int("--top")
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid --top %q: must be a non-negative integer", v)
		}
		opts.TopN = n
	}
	if v, _ := arguments.String("--period"); v != "" {
		p, err := engine.ParsePeriod(v)
		if err != nil {
			return opts, err
		}
		opts.Period = p
	}
	return opts, nil
}

func generate(arguments docopt.Opts, logger *zap.Logger) error {
	opts := sample.DefaultOptions()
	var err error
	if opts.Records, err = arguments.Int("--records"); err != nil || opts.Records <= 0 {
		return errors.New("invalid --records: must be a positive integer")
	}
	if opts.Customers, err = arguments.Int("--customers"); err != nil || opts.Customers <= 0 {
		return errors.New("invalid --customers: must be a positive integer")
	}
	seed, err := arguments.Int("--seed")
	if err != nil {
		return errors.New("invalid --seed: must be an integer")
	}
	opts.Seed = int64(seed)

	out := "data/sample"
	if v, _ := arguments.String("--out"); v != "" {
		out = v
	}

	t0 := time.Now()
	paths, err := sample.Save(out, opts, flag(arguments, "--arrow"))
	if err != nil {
		return err
	}
	logger.Info("sample data generated",
		zap.String("dir", out),
		zap.Int("records", opts.Records),
		zap.Int("customers", opts.Customers),
		zap.Int64("seed", opts.Seed),
		zap.Duration("elapsed", time.Since(t0)))
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func flag(arguments docopt.Opts, name string) bool {
	v, _ := arguments.Bool(name)
	return v
}

// stringsOf reads an option that docopt may store as a string or, when
// repeatable, as a list.
func stringsOf(arguments docopt.Opts, name string) []string {
	switch v := arguments[name].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}
