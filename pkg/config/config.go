package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"SignalDesk/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
	BackendRedis      = "redis"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level   string `yaml:"level" default:"info"`
		Format  string `yaml:"format" default:"console"`
		Output  string `yaml:"output" default:"stdout"`
		Collect struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"signaldesk.logs"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100"`
			Warnings  bool          `yaml:"warnings"`
		} `yaml:"collect"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"1s"`
	} `yaml:"metrics"`
	Store struct {
		Backend   string `yaml:"backend" default:"memory"`
		Capacity  int    `yaml:"capacity" default:"100"`
		ListLimit int    `yaml:"list_limit" default:"100"`
	} `yaml:"store"`
	Postgres struct {
		DSN             string        `yaml:"dsn"`
		MaxConns        int32         `yaml:"max_conns" default:"10"`
		MinConns        int32         `yaml:"min_conns" default:"1"`
		MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" default:"30m"`
		ConnectTimeout  time.Duration `yaml:"connect_timeout" default:"5s"`
	} `yaml:"postgres"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"signaldesk"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		Compress         bool          `yaml:"compress"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"signaldesk"`
		// PingTimeout bounds the startup connectivity check.
		PingTimeout time.Duration `yaml:"ping_timeout" default:"5s"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Topics       struct {
			Ingest  string `yaml:"ingest" default:"signals.ingest"`
			Created string `yaml:"created" default:"signals.created"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"signaldesk"`
			StartOffset string        `yaml:"start_offset" default:"latest"`
			Workers     int           `yaml:"workers" default:"4"`
			BufferSize  int           `yaml:"buffer_size" default:"256"`
			RetryMax    int           `yaml:"retry_max" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic    string        `yaml:"dlq_topic" default:"signals.ingest.dlq"`
			MinBytes    int           `yaml:"min_bytes" default:"1"`
			MaxBytes    int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		SendBuffer   int           `yaml:"send_buffer" default:"64"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"stream"`
	Jupiter struct {
		BaseURL   string        `yaml:"base_url" default:"https://quote-api.jup.ag/v6"`
		Timeout   time.Duration `yaml:"timeout" default:"10s"`
		RateLimit float64       `yaml:"rate_limit" default:"10"`
		Burst     int           `yaml:"burst" default:"10"`
		QuoteTTL  time.Duration `yaml:"quote_ttl" default:"2s"`
		// QuoteCache is "memory", "redis" or "none".
		QuoteCache string `yaml:"quote_cache" default:"memory"`
	} `yaml:"jupiter"`
	Solana struct {
		RPCURL         string        `yaml:"rpc_url" default:"https://api.mainnet-beta.solana.com"`
		Commitment     string        `yaml:"commitment" default:"confirmed"`
		ConfirmTimeout time.Duration `yaml:"confirm_timeout" default:"60s"`
		PollInterval   time.Duration `yaml:"poll_interval" default:"500ms"`
		SubmitEnabled  bool          `yaml:"submit_enabled" default:"true"`
	} `yaml:"solana"`
	RateLimit struct {
		PerSecond float64       `yaml:"per_second" default:"5"`
		Burst     int           `yaml:"burst" default:"10"`
		Idle      time.Duration `yaml:"idle" default:"10m"`
	} `yaml:"rate_limit"`
	Feed struct {
		URL      string        `yaml:"url" default:"http://localhost:8080"`
		Interval time.Duration `yaml:"interval" default:"3s"`
		Timeout  time.Duration `yaml:"timeout" default:"10s"`
		Stream   bool          `yaml:"stream"`
		MaxShown int           `yaml:"max_shown" default:"20"`
	} `yaml:"feed"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Parse applies defaults and then overlays the YAML document, so keys absent from b keep their
// default.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads envFile into the process environment when it exists, reads the YAML at
// path and applies environment overrides.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides selected fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("JUPITER_BASE_URL"); v != "" {
		c.Jupiter.BaseURL = v
	}
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		c.Solana.RPCURL = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendClickHouse:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for store.backend 'postgres'")
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, postgres, clickhouse, redis, got '%s'", c.Store.Backend)
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be positive")
	}
	if c.Store.ListLimit <= 0 {
		return fmt.Errorf("store.list_limit must be positive")
	}
	if c.Store.ListLimit < c.Store.Capacity {
		return fmt.Errorf("store.list_limit (%d) must be at least store.capacity (%d)", c.Store.ListLimit, c.Store.Capacity)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Collect.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collect requires kafka")
	}
	switch c.Jupiter.QuoteCache {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("jupiter.quote_cache must be memory, redis or none, got '%s'", c.Jupiter.QuoteCache)
	}
	if c.Jupiter.BaseURL == "" {
		return fmt.Errorf("jupiter.base_url is required")
	}
	switch c.Solana.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("solana.commitment must be processed, confirmed or finalized, got '%s'", c.Solana.Commitment)
	}
	return nil
}
