// Command bench runs a synthetic zipf workload against the color-bucket cache
// and exposes optional pprof and Prometheus endpoints.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/colorcache/cache"
	"github.com/IvanBrykalov/colorcache/internal/util"
	pmet "github.com/IvanBrykalov/colorcache/metrics/prom"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML workload file; explicit flags override its values",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "log level: debug | info | warn | error",
		Value: "info",
	}

	capacityFlag = &cli.IntFlag{Name: "cap", Usage: "cache capacity (entries)", Value: 100_000}
	colorsFlag   = &cli.IntFlag{Name: "colors", Usage: "color buckets per shard", Value: 16}
	blockFlag    = &cli.IntFlag{Name: "block", Usage: "placeholder slots per color", Value: 4}
	shardsFlag   = &cli.IntFlag{Name: "shards", Usage: "number of shards (0 = 2*GOMAXPROCS)"}

	workersFlag  = &cli.IntFlag{Name: "workers", Usage: "worker goroutines (0 = 2*GOMAXPROCS)"}
	durationFlag = &cli.DurationFlag{Name: "duration", Usage: "benchmark duration", Value: 10 * time.Second}
	readsFlag    = &cli.IntFlag{Name: "reads", Usage: "read percentage [0..100]", Value: 80}
	keysFlag     = &cli.IntFlag{Name: "keys", Usage: "keyspace size", Value: 1_000_000}
	zipfSFlag    = &cli.Float64Flag{Name: "zipf-s", Usage: "Zipf s > 1 (skew)", Value: 1.1}
	zipfVFlag    = &cli.Float64Flag{Name: "zipf-v", Usage: "Zipf v >= 1", Value: 1.0}
	seedFlag     = &cli.Int64Flag{Name: "seed", Usage: "random seed (0 = time-based)"}
	preloadFlag  = &cli.IntFlag{Name: "preload", Usage: "preload entries (0 = cap/2)"}

	pprofFlag = &cli.StringFlag{Name: "pprof", Usage: "serve pprof at addr (e.g. :6060); empty = disabled"}
	httpFlag  = &cli.StringFlag{Name: "http", Usage: "serve Prometheus metrics at addr; empty = disabled", Value: ":8080"}
)

func main() {
	app := &cli.App{
		Name:  "bench",
		Usage: "synthetic workload for the color-bucket LRU cache",
		Flags: []cli.Flag{
			configFlag, verbosityFlag,
			capacityFlag, colorsFlag, blockFlag, shardsFlag,
			workersFlag, durationFlag, readsFlag, keysFlag, zipfSFlag, zipfVFlag, seedFlag, preloadFlag,
			pprofFlag, httpFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(ctx.String(verbosityFlag.Name))); err != nil {
		return fmt.Errorf("invalid --%s: %w", verbosityFlag.Name, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := defaultConfig()
	if file := ctx.String(configFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return err
		}
	}
	applyFlags(ctx, &cfg)
	if err := cfg.validate(); err != nil {
		return err
	}
	fillDefaults(&cfg)

	serve(logger, cfg.Server)

	var metrics cache.Metrics = cache.NoopMetrics{}
	if cfg.Server.MetricsAddr != "" {
		metrics = pmet.New(nil, "colorcache", "bench", nil)
	}

	c, err := cache.New(cache.Options[string, string]{
		Capacity:  cfg.Cache.Capacity,
		Colors:    cfg.Cache.Colors,
		BlockSize: cfg.Cache.BlockSize,
		Shards:    cfg.Cache.Shards,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	for i := 0; i < cfg.Workload.Preload; i++ {
		c.Set("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	res := runWorkload(ctx.Context, c, cfg.Workload)
	report(os.Stdout, cfg, res, c.Stats())
	return nil
}

// fillDefaults resolves the "0 = derived" settings.
func fillDefaults(cfg *benchConfig) {
	if cfg.Cache.Shards <= 0 {
		cfg.Cache.Shards = util.ReasonableShardCount()
	}
	if cfg.Workload.Workers <= 0 {
		cfg.Workload.Workers = 2 * runtime.GOMAXPROCS(0)
	}
	if cfg.Workload.Seed == 0 {
		cfg.Workload.Seed = time.Now().UnixNano()
	}
	if cfg.Workload.Preload == 0 {
		cfg.Workload.Preload = cfg.Cache.Capacity / 2
	}
}

// serve starts pprof and /metrics listeners on DefaultServeMux.
func serve(logger *slog.Logger, s serverConfig) {
	if s.MetricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
	}
	addrs := []string{s.MetricsAddr}
	if s.PprofAddr != s.MetricsAddr {
		addrs = append(addrs, s.PprofAddr)
	}
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		go func() {
			logger.Info("serving http", "addr", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Error("http server stopped", "addr", addr, "err", err)
			}
		}()
	}
}

type result struct {
	elapsed                            time.Duration
	total, reads, writes, hits, misses uint64
}

// runWorkload drives cfg.Workers goroutines until cfg.Duration elapses.
func runWorkload(parent context.Context, c cache.Cache[string, string], cfg workloadConfig) result {
	ctx, cancel := context.WithTimeout(parent, cfg.Duration.Duration)
	defer cancel()

	var reads, writes, hits, misses, total atomic.Uint64
	keysMax := uint64(cfg.Keys - 1)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			// rand.Rand is not goroutine-safe: one source per worker.
			r := rand.New(rand.NewSource(cfg.Seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, keysMax)
			key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

			for ctx.Err() == nil {
				total.Add(1)
				if int(r.Int31n(100)) < cfg.ReadPct {
					reads.Add(1)
					if _, ok := c.Get(key()); ok {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
					continue
				}
				writes.Add(1)
				c.Set(key(), "v"+strconv.Itoa(r.Int()))
			}
			return nil
		})
	}
	_ = g.Wait()

	return result{
		elapsed: time.Since(start),
		total:   total.Load(),
		reads:   reads.Load(),
		writes:  writes.Load(),
		hits:    hits.Load(),
		misses:  misses.Load(),
	}
}

func report(out io.Writer, cfg benchConfig, r result, st cache.Stats) {
	hitRate := 0.0
	if r.reads > 0 {
		hitRate = float64(r.hits) / float64(r.reads) * 100
	}
	fmt.Fprintf(out, "cap=%d colors=%d block=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		cfg.Cache.Capacity, cfg.Cache.Colors, cfg.Cache.BlockSize, cfg.Cache.Shards,
		cfg.Workload.Workers, cfg.Workload.Keys, r.elapsed, cfg.Workload.Seed)
	fmt.Fprintf(out, "ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		r.total, float64(r.total)/r.elapsed.Seconds(), r.reads, r.writes)
	fmt.Fprintf(out, "hits=%d  misses=%d  hit-rate=%.2f%%  evictions=%d\n",
		r.hits, r.misses, hitRate, st.Evictions)
	fmt.Fprintf(out, "Len()=%d\n", st.Entries)
}
