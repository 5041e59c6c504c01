package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"HemoPulse/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Logging     struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Demand struct {
		HistoryDays int     `yaml:"history_days" default:"31"`
		Lookback    int     `yaml:"lookback" default:"7"`
		Horizon     int     `yaml:"horizon" default:"7"`
		Baseline    float64 `yaml:"baseline" default:"100"`
		SeasonalAmp float64 `yaml:"seasonal_amplitude" default:"20"`
		TrendSlope  float64 `yaml:"trend_slope" default:"0.5"`
		NoiseAmp    float64 `yaml:"noise_amplitude" default:"5"`
		Seed        int64   `yaml:"seed"` // 0 seeds from the clock
	} `yaml:"demand"`
	Training struct {
		Epochs       int     `yaml:"epochs" default:"100"`
		LearningRate float64 `yaml:"learning_rate" default:"0.1"`
	} `yaml:"training"`
	Publisher struct {
		Type       string        `yaml:"type" default:"none"` // none, kafka, webhook
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
	} `yaml:"publisher"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"` // requires cache.redis
		Workers    int           `yaml:"workers" default:"1"`
		RetryLimit int           `yaml:"retry_limit" default:"2"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	RateLimit struct {
		RefreshCapacity float64 `yaml:"refresh_capacity" default:"3"`
		RefreshRefill   float64 `yaml:"refresh_refill_per_sec" default:"0.2"`
	} `yaml:"rate_limit"`
	LogShipping struct {
		Enabled        bool          `yaml:"enabled"`
		Topic          string        `yaml:"topic"`
		FlushInterval  time.Duration `yaml:"flush_interval"`
		CountThreshold int           `yaml:"count_threshold"`
	} `yaml:"log_shipping"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Fill zero-value fields before validating
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PUBLISHER"); v != "" {
		c.Publisher.Type = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Publisher.WebhookURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("DEMAND_SEED"); v != "" {
		c.Demand.Seed = util.ParseInt64Default(v, c.Demand.Seed)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Publisher.Type {
	case "none", "kafka", "webhook":
	default:
		return fmt.Errorf("publisher.type must be 'none', 'kafka' or 'webhook', got '%s'", c.Publisher.Type)
	}
	if c.Publisher.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with the kafka publisher")
	}
	if c.Publisher.Type == "kafka" && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required with the kafka publisher")
	}
	if c.Publisher.Type == "webhook" && c.Publisher.WebhookURL == "" {
		return fmt.Errorf("publisher.webhook_url is required with the webhook publisher")
	}
	if c.Demand.Lookback < 1 {
		return fmt.Errorf("demand.lookback must be at least 1, got %d", c.Demand.Lookback)
	}
	if c.Demand.HistoryDays <= c.Demand.Lookback {
		return fmt.Errorf("demand.history_days must exceed demand.lookback (%d <= %d)",
			c.Demand.HistoryDays, c.Demand.Lookback)
	}
	if c.Demand.Horizon < 1 {
		return fmt.Errorf("demand.horizon must be at least 1, got %d", c.Demand.Horizon)
	}
	if c.Training.Epochs <= 0 {
		return fmt.Errorf("training.epochs must be positive, got %d", c.Training.Epochs)
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("training.learning_rate must be positive, got %g", c.Training.LearningRate)
	}
	if c.Queue.Enabled && !c.Cache.Redis.Enabled {
		return fmt.Errorf("queue requires cache.redis to be enabled")
	}
	if c.LogShipping.Enabled && c.LogShipping.Topic == "" {
		return fmt.Errorf("log_shipping.topic is required when log shipping is enabled")
	}
	return nil
}
