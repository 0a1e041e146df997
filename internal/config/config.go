package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full engine configuration, loaded from YAML with
// MATCHING_-prefixed environment overrides.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Market  MarketConfig  `mapstructure:"market"`
	Journal JournalConfig `mapstructure:"journal"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Feed    FeedConfig    `mapstructure:"feed"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MarketConfig fixes the price representation. Prices travel as decimals
// at the API boundary and as int64 minor units inside the engine;
// PriceScale is the number of decimal places one tick represents.
type MarketConfig struct {
	PriceScale   int32 `mapstructure:"price_scale"`
	DefaultDepth int   `mapstructure:"default_depth"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	QueueSize    int           `mapstructure:"queue_size"`
}

type FeedConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	SendBuffer     int  `mapstructure:"send_buffer"`
	BroadcastQueue int  `mapstructure:"broadcast_queue"`
}

// Load reads configuration from the given file (optional) plus the
// environment, applying defaults first.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MATCHING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("market.price_scale", 2)
	v.SetDefault("market.default_depth", 50)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "data/trades.jsonl")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "trades")
	v.SetDefault("kafka.batch_timeout", 10*time.Millisecond)
	v.SetDefault("kafka.write_timeout", time.Second)
	v.SetDefault("kafka.queue_size", 4096)

	v.SetDefault("feed.enabled", true)
	v.SetDefault("feed.send_buffer", 64)
	v.SetDefault("feed.broadcast_queue", 1024)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Market.PriceScale < 0 || c.Market.PriceScale > 12 {
		return fmt.Errorf("invalid price scale %d", c.Market.PriceScale)
	}
	if c.Market.DefaultDepth <= 0 {
		return fmt.Errorf("invalid default depth %d", c.Market.DefaultDepth)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled with no brokers")
	}
	return nil
}
