package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfig(t *testing.T) {
	p := writeFile(t, `
[Cache]
Capacity = 5000
Colors = 8

[Workload]
Duration = "3s"
ReadPct = 95
`)
	cfg := defaultConfig()
	require.NoError(t, loadConfig(p, &cfg))

	assert.Equal(t, 5000, cfg.Cache.Capacity)
	assert.Equal(t, 8, cfg.Cache.Colors)
	assert.Equal(t, 4, cfg.Cache.BlockSize, "unset keys keep defaults")
	assert.Equal(t, 3*time.Second, cfg.Workload.Duration.Duration)
	assert.Equal(t, 95, cfg.Workload.ReadPct)
	assert.NoError(t, cfg.validate())
}

func TestLoadConfig_UnknownField(t *testing.T) {
	p := writeFile(t, "[Cache]\nCapacty = 1\n")
	cfg := defaultConfig()
	err := loadConfig(p, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Capacty")
}

// Flags that were set explicitly win over file values.
func TestApplyFlags(t *testing.T) {
	set := flag.NewFlagSet("bench", flag.ContinueOnError)
	for _, f := range []cli.Flag{capacityFlag, colorsFlag, readsFlag, durationFlag} {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse([]string{"--colors", "32", "--duration", "1m"}))
	ctx := cli.NewContext(cli.NewApp(), set, nil)

	cfg := defaultConfig()
	cfg.Cache.Capacity = 777
	applyFlags(ctx, &cfg)

	assert.Equal(t, 777, cfg.Cache.Capacity)
	assert.Equal(t, 32, cfg.Cache.Colors)
	assert.Equal(t, time.Minute, cfg.Workload.Duration.Duration)
	assert.Equal(t, 80, cfg.Workload.ReadPct)
}

func TestValidate(t *testing.T) {
	bad := []func(*benchConfig){
		func(c *benchConfig) { c.Cache.Capacity = 0 },
		func(c *benchConfig) { c.Workload.ReadPct = 101 },
		func(c *benchConfig) { c.Workload.Keys = 0 },
		func(c *benchConfig) { c.Workload.ZipfS = 1 },
		func(c *benchConfig) { c.Workload.Duration = textDuration{} },
	}
	for i, mutate := range bad {
		cfg := defaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.validate(), "case %d", i)
	}
}

func TestFillDefaults(t *testing.T) {
	cfg := defaultConfig()
	fillDefaults(&cfg)
	assert.Positive(t, cfg.Cache.Shards)
	assert.Positive(t, cfg.Workload.Workers)
	assert.NotZero(t, cfg.Workload.Seed)
	assert.Equal(t, cfg.Cache.Capacity/2, cfg.Workload.Preload)
}
