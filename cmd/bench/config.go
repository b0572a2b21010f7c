package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

// benchConfig is the full workload description. It can be loaded from a
// TOML file (--config) and is then overridden by explicitly set flags.
type benchConfig struct {
	Cache    cacheConfig
	Workload workloadConfig
	Server   serverConfig
}

type cacheConfig struct {
	Capacity  int
	Colors    int
	BlockSize int
	Shards    int // 0 = derived from GOMAXPROCS
}

type workloadConfig struct {
	Workers  int
	Duration textDuration
	ReadPct  int
	Keys     int
	ZipfS    float64
	ZipfV    float64
	Seed     int64
	Preload  int // 0 = capacity/2
}

type serverConfig struct {
	PprofAddr   string
	MetricsAddr string
}

// textDuration reads durations such as "30s" from TOML strings.
type textDuration struct{ time.Duration }

func (d *textDuration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d textDuration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func defaultConfig() benchConfig {
	return benchConfig{
		Cache: cacheConfig{Capacity: 100_000, Colors: 16, BlockSize: 4},
		Workload: workloadConfig{
			Duration: textDuration{10 * time.Second},
			ReadPct:  80,
			Keys:     1_000_000,
			ZipfS:    1.1,
			ZipfV:    1.0,
		},
		Server: serverConfig{MetricsAddr: ":8080"},
	}
}

// Field names are used verbatim as TOML keys; unknown keys are errors.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfig(file string, cfg *benchConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	var lineErr *toml.LineError
	if errors.As(err, &lineErr) {
		err = fmt.Errorf("%s, %w", file, err)
	}
	return err
}

// applyFlags copies every explicitly set flag over cfg.
func applyFlags(ctx *cli.Context, cfg *benchConfig) {
	if ctx.IsSet(capacityFlag.Name) {
		cfg.Cache.Capacity = ctx.Int(capacityFlag.Name)
	}
	if ctx.IsSet(colorsFlag.Name) {
		cfg.Cache.Colors = ctx.Int(colorsFlag.Name)
	}
	if ctx.IsSet(blockFlag.Name) {
		cfg.Cache.BlockSize = ctx.Int(blockFlag.Name)
	}
	if ctx.IsSet(shardsFlag.Name) {
		cfg.Cache.Shards = ctx.Int(shardsFlag.Name)
	}
	if ctx.IsSet(workersFlag.Name) {
		cfg.Workload.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.IsSet(durationFlag.Name) {
		cfg.Workload.Duration = textDuration{ctx.Duration(durationFlag.Name)}
	}
	if ctx.IsSet(readsFlag.Name) {
		cfg.Workload.ReadPct = ctx.Int(readsFlag.Name)
	}
	if ctx.IsSet(keysFlag.Name) {
		cfg.Workload.Keys = ctx.Int(keysFlag.Name)
	}
	if ctx.IsSet(zipfSFlag.Name) {
		cfg.Workload.ZipfS = ctx.Float64(zipfSFlag.Name)
	}
	if ctx.IsSet(zipfVFlag.Name) {
		cfg.Workload.ZipfV = ctx.Float64(zipfVFlag.Name)
	}
	if ctx.IsSet(seedFlag.Name) {
		cfg.Workload.Seed = ctx.Int64(seedFlag.Name)
	}
	if ctx.IsSet(preloadFlag.Name) {
		cfg.Workload.Preload = ctx.Int(preloadFlag.Name)
	}
	if ctx.IsSet(pprofFlag.Name) {
		cfg.Server.PprofAddr = ctx.String(pprofFlag.Name)
	}
	if ctx.IsSet(httpFlag.Name) {
		cfg.Server.MetricsAddr = ctx.String(httpFlag.Name)
	}
}

// validate rejects workloads the generator cannot run.
func (c *benchConfig) validate() error {
	w := c.Workload
	switch {
	case c.Cache.Capacity <= 0:
		return errors.New("capacity must be > 0")
	case w.ReadPct < 0 || w.ReadPct > 100:
		return fmt.Errorf("reads must be in [0,100], got %d", w.ReadPct)
	case w.Keys < 1:
		return fmt.Errorf("keys must be >= 1, got %d", w.Keys)
	case w.ZipfS <= 1:
		return fmt.Errorf("zipf-s must be > 1, got %v", w.ZipfS)
	case w.ZipfV < 1:
		return fmt.Errorf("zipf-v must be >= 1, got %v", w.ZipfV)
	case w.Duration.Duration <= 0:
		return fmt.Errorf("duration must be > 0, got %v", w.Duration)
	}
	return nil
}
