package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP status server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// TelegramConfig holds gateway connection and chat feed configuration
type TelegramConfig struct {
	GatewayURL     string  `yaml:"gateway_url"`
	GatewayToken   string  `yaml:"gateway_token"`
	APIID          int     `yaml:"api_id"`
	APIHash        string  `yaml:"api_hash"`
	Phone          string  `yaml:"phone"`
	ChatIDs        []int64 `yaml:"chat_ids"`
	FetchLimit     int     `yaml:"fetch_limit"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c TelegramConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// OpenAIConfig holds OpenAI API configuration for promotion extraction
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds PostgreSQL connection parameters. URL wins when set;
// otherwise the discrete fields are composed into a DSN.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the connection string for database/sql.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// configured reports whether enough fields are present to build a DSN.
func (c DatabaseConfig) configured() bool {
	if c.URL != "" {
		return true
	}
	return c.Host != "" && c.User != "" && c.Name != ""
}

// RedisConfig holds optional Redis settings for the cross-process run lock.
// When Addr is empty the run lock falls back to a Postgres advisory lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MonitorConfig holds pipeline cadence and batching configuration
type MonitorConfig struct {
	PollIntervalMinutes int    `yaml:"poll_interval_minutes"`
	BatchSize           int    `yaml:"batch_size"`
	StateFile           string `yaml:"state_file"`
	RunLockTTLMinutes   int    `yaml:"run_lock_ttl_minutes"`
}

// Interval returns the polling cadence as a duration
func (c MonitorConfig) Interval() time.Duration {
	return time.Duration(c.PollIntervalMinutes) * time.Minute
}

// RunLockTTL returns the run lock TTL as a duration
func (c MonitorConfig) RunLockTTL() time.Duration {
	return time.Duration(c.RunLockTTLMinutes) * time.Minute
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8085
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Telegram.FetchLimit == 0 {
		cfg.Telegram.FetchLimit = 50
	}
	if cfg.Telegram.TimeoutSeconds == 0 {
		cfg.Telegram.TimeoutSeconds = 30
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 60
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "require"
	}
	if cfg.Monitor.PollIntervalMinutes == 0 {
		cfg.Monitor.PollIntervalMinutes = 30
	}
	if cfg.Monitor.BatchSize == 0 {
		cfg.Monitor.BatchSize = 10
	}
	if cfg.Monitor.StateFile == "" {
		cfg.Monitor.StateFile = "last_processed_ids.json"
	}
	if cfg.Monitor.RunLockTTLMinutes == 0 {
		cfg.Monitor.RunLockTTLMinutes = 15
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
// A missing config file is not an error: the full surface is expressible
// through the environment alone.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		cfg = &Config{}
		cfg.applyDefaults()
	} else if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("TELEGRAM_GATEWAY_URL"); v != "" {
		cfg.Telegram.GatewayURL = v
	}
	if v := os.Getenv("TELEGRAM_GATEWAY_TOKEN"); v != "" {
		cfg.Telegram.GatewayToken = v
	}
	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_API_ID %q is not a number: %w", v, err)
		}
		cfg.Telegram.APIID = id
	}
	if v := os.Getenv("TELEGRAM_API_HASH"); v != "" {
		cfg.Telegram.APIHash = v
	}
	if v := os.Getenv("TELEGRAM_PHONE"); v != "" {
		cfg.Telegram.Phone = v
	}
	if v := os.Getenv("CHAT_IDS"); v != "" {
		ids, err := parseChatIDs(v)
		if err != nil {
			return nil, err
		}
		cfg.Telegram.ChatIDs = ids
	}
	if v := os.Getenv("MESSAGES_FETCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Telegram.FetchLimit = n
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL_NAME"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OpenAI.TimeoutSeconds = n
		}
	}

	// Database override (critical for deployments where config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = n
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("POLL_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Monitor.PollIntervalMinutes = n
		}
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Monitor.BatchSize = n
		}
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.Monitor.StateFile = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

// Validate checks that everything required to run the pipeline is present.
// It is called once at startup; any error here is fatal.
func (cfg *Config) Validate() error {
	if cfg.Telegram.GatewayURL == "" {
		return fmt.Errorf("telegram gateway_url is required (TELEGRAM_GATEWAY_URL)")
	}
	if cfg.Telegram.APIID == 0 {
		return fmt.Errorf("telegram api_id is required (TELEGRAM_API_ID)")
	}
	if cfg.Telegram.APIHash == "" {
		return fmt.Errorf("telegram api_hash is required (TELEGRAM_API_HASH)")
	}
	if cfg.Telegram.Phone == "" {
		return fmt.Errorf("telegram phone is required (TELEGRAM_PHONE)")
	}
	if len(cfg.Telegram.ChatIDs) == 0 {
		return fmt.Errorf("at least one chat id is required (CHAT_IDS)")
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api_key is required (OPENAI_API_KEY)")
	}
	if !cfg.Database.configured() {
		return fmt.Errorf("database connection is not configured (DATABASE_URL or DB_HOST/DB_USER/DB_NAME)")
	}
	if cfg.Monitor.BatchSize < 1 {
		return fmt.Errorf("monitor batch_size must be >= 1")
	}
	return nil
}

// parseChatIDs splits a comma-separated id list ("-100123,-100456").
func parseChatIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CHAT_IDS entry %q is not a number: %w", p, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("CHAT_IDS is set but contains no ids")
	}
	return ids, nil
}
