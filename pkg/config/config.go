package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// City is one tracked location for the market universe.
type City struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Aliases  []string `yaml:"aliases"`
	Lat      float64  `yaml:"lat"`
	Lon      float64  `yaml:"lon"`
	Timezone string   `yaml:"timezone"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
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
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	GEFS struct {
		BaseURL        string        `yaml:"base_url"`
		LookbackDays   int           `yaml:"lookback_days"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"gefs"`
	Polymarket struct {
		GammaBaseURL   string        `yaml:"gamma_base_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		AssetIDs       []string      `yaml:"asset_ids"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"polymarket"`
	Kalshi struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"kalshi"`
	Universe struct {
		Cities        []City   `yaml:"cities"`
		MinVolumeUSD  float64  `yaml:"min_volume_usd"`
		WindowDaysMin int      `yaml:"window_days_min"`
		WindowDaysMax int      `yaml:"window_days_max"`
		MaxMarkets    int      `yaml:"max_markets"`
		EventTypes    []string `yaml:"event_types"`
		YesLabel      string   `yaml:"yes_label"`
	} `yaml:"universe"`
	Risk struct {
		MaxFractionPerContract float64 `yaml:"max_fraction_per_contract"`
		KellyScale             float64 `yaml:"kelly_scale"`
		MinFractionIfTrade     float64 `yaml:"min_fraction_if_trade"`
		MinEdge                float64 `yaml:"min_edge"`
		Bankroll               float64 `yaml:"bankroll"`
	} `yaml:"risk"`
	Paper struct {
		LedgerPath string `yaml:"ledger_path"`
	} `yaml:"paper"`
	Cache struct {
		QuoteTTL time.Duration `yaml:"quote_ttl"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
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

	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("BANKROLL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Risk.Bankroll = f
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Universe.Cities) == 0 {
		return fmt.Errorf("universe.cities cannot be empty")
	}
	for i, city := range c.Universe.Cities {
		if city.Name == "" {
			return fmt.Errorf("universe.cities[%d].name is required", i)
		}
		if city.Timezone == "" {
			return fmt.Errorf("universe.cities[%d].timezone is required", i)
		}
	}
	if c.Risk.Bankroll < 0 {
		return fmt.Errorf("risk.bankroll cannot be negative")
	}
	return nil
}
