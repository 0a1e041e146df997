package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int32(2), cfg.Market.PriceScale)
	assert.Equal(t, 50, cfg.Market.DefaultDepth)
	assert.False(t, cfg.Journal.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "trades", cfg.Kafka.Topic)
	assert.True(t, cfg.Feed.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  host: 127.0.0.1
  port: 9000
log:
  level: debug
market:
  price_scale: 4
journal:
  enabled: true
  path: /tmp/j.jsonl
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
  topic: executions
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int32(4), cfg.Market.PriceScale)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "/tmp/j.jsonl", cfg.Journal.Path)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "executions", cfg.Kafka.Topic)
	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.Market.DefaultDepth)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: 0\n"},
		{"bad price scale", "market:\n  price_scale: 13\n"},
		{"bad depth", "market:\n  default_depth: -1\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n  brokers: []\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}
