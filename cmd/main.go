package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/l33tquant/ta-statistics/internal/analytics"
	"github.com/l33tquant/ta-statistics/internal/feed"
	"github.com/l33tquant/ta-statistics/internal/metrics"
)

const (
	defaultWindowSize = 50
	defaultThreshold  = 2.0
	redisRetries      = 5
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rollstat: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	input          string
	redisAddr      string
	redisPassword  string
	redisDB        int
	redisKey       string
	windowSize     int
	threshold      float64
	ddof           bool
	recomputeEvery int
	textfile       string
	logLevel       string
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "rollstat"
	app.Usage = "replay a sample stream through rolling window statistics"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "input, i",
			Usage:  "file with one JSON sample or number per line, - for stdin",
			Value:  "-",
			EnvVar: "ROLLSTAT_INPUT",
		},
		cli.StringFlag{
			Name:   "redis-addr",
			Usage:  "replay the Redis sample list at this address instead of the input",
			EnvVar: "REDIS_ADDR",
		},
		cli.StringFlag{
			Name:   "redis-password",
			EnvVar: "REDIS_PASSWORD",
		},
		cli.IntFlag{
			Name:   "redis-db",
			EnvVar: "REDIS_DB",
		},
		cli.StringFlag{
			Name:   "redis-key",
			Value:  feed.DefaultKey,
			EnvVar: "REDIS_KEY",
		},
		cli.IntFlag{
			Name:   "window, w",
			Usage:  "rolling window size in samples",
			Value:  defaultWindowSize,
			EnvVar: "ANALYTICS_WINDOW",
		},
		cli.Float64Flag{
			Name:   "threshold, t",
			Usage:  "absolute z-score at which a sample is an anomaly",
			Value:  defaultThreshold,
			EnvVar: "ANALYTICS_THRESHOLD",
		},
		cli.BoolFlag{
			Name:   "ddof",
			Usage:  "use sample (n-1) instead of population statistics",
			EnvVar: "ANALYTICS_DDOF",
		},
		cli.IntFlag{
			Name:   "recompute-every",
			Usage:  "rebuild running sums every n samples, 0 to disable",
			EnvVar: "ANALYTICS_RECOMPUTE_EVERY",
		},
		cli.StringFlag{
			Name:   "textfile",
			Usage:  "write Prometheus metrics to this file when done",
			EnvVar: "TEXTFILE_PATH",
		},
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
		},
	}
	app.Writer = stdout
	app.Action = func(c *cli.Context) error {
		cfg, err := readConfig(c)
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.logLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		src, err := openFeed(ctx, cfg, stdin)
		if err != nil {
			return err
		}
		defer func() {
			if err := src.Close(); err != nil {
				logger.Warn("close feed", zap.Error(err))
			}
		}()

		return run(ctx, cfg, src, stdout, logger)
	}
	return app
}

func readConfig(c *cli.Context) (config, error) {
	cfg := config{
		input:          c.String("input"),
		redisAddr:      c.String("redis-addr"),
		redisPassword:  c.String("redis-password"),
		redisDB:        c.Int("redis-db"),
		redisKey:       c.String("redis-key"),
		windowSize:     c.Int("window"),
		threshold:      c.Float64("threshold"),
		ddof:           c.Bool("ddof"),
		recomputeEvery: c.Int("recompute-every"),
		textfile:       c.String("textfile"),
		logLevel:       c.String("log-level"),
	}
	if cfg.windowSize <= 0 {
		return cfg, fmt.Errorf("window must be positive, got %d", cfg.windowSize)
	}
	if cfg.recomputeEvery < 0 {
		return cfg, fmt.Errorf("recompute-every must not be negative, got %d", cfg.recomputeEvery)
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

func openFeed(ctx context.Context, cfg config, stdin io.Reader) (feed.Feed, error) {
	if cfg.redisAddr != "" {
		src := feed.NewRedisFeed(cfg.redisAddr, cfg.redisPassword, cfg.redisDB, cfg.redisKey)
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := src.Check(checkCtx, redisRetries); err != nil {
			_ = src.Close()
			return nil, err
		}
		return src, nil
	}

	if cfg.input == "-" {
		// Hide Close so the feed does not close the process stdin.
		return feed.NewLineFeed(struct{ io.Reader }{stdin}), nil
	}
	f, err := os.Open(cfg.input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return feed.NewLineFeed(f), nil
}

// run replays src through a fresh analyzer until the feed is drained or ctx
// is cancelled, then prints the last snapshot.
func run(ctx context.Context, cfg config, src feed.Feed, out io.Writer, logger *zap.Logger) error {
	engine := analytics.NewAnalyzer(cfg.windowSize, cfg.threshold, logger)
	engine.SetDDOF(cfg.ddof)
	engine.SetRecomputeEvery(cfg.recomputeEvery)
	exporter := metrics.NewExporter()

	processed := 0
	for {
		sample, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, context.Canceled) {
			logger.Info("replay interrupted", zap.Int("samples", processed))
			break
		}
		if err != nil {
			return fmt.Errorf("read sample %d: %w", processed+1, err)
		}
		exporter.Observe(engine.Process(sample))
		processed++
	}
	logger.Info("replay finished",
		zap.Int("samples", processed),
		zap.Int("window", cfg.windowSize),
		zap.Bool("ddof", cfg.ddof),
	)

	if cfg.textfile != "" {
		if err := exporter.WriteTextfile(cfg.textfile); err != nil {
			return err
		}
	}
	return respondJSON(out, engine.Latest())
}

func respondJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
