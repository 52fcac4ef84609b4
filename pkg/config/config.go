package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain
	RPCURL              string
	PrivateKey          string
	FactoryAddress      string
	TokenAddress        string
	ConfirmPollInterval time.Duration
	ConfirmTimeout      time.Duration

	// Quotes
	QuoteMaxAge time.Duration

	// Metadata bridge
	MetadataURL string

	// Oracle
	OracleURL          string
	OracleWSURL        string
	OracleDecimals     uint8
	EpochLengthSeconds uint64

	// Feed stream
	WSDialTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Metastore database
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Chain defaults
		RPCURL:              getEnvOrDefault("RPC_URL", "https://coston2-api.flare.network/ext/C/rpc"),
		PrivateKey:          os.Getenv("PRIVATE_KEY"),
		FactoryAddress:      os.Getenv("FACTORY_ADDRESS"),
		TokenAddress:        os.Getenv("TOKEN_ADDRESS"),
		ConfirmPollInterval: getDurationOrDefault("CONFIRM_POLL_INTERVAL", 2*time.Second),
		ConfirmTimeout:      getDurationOrDefault("CONFIRM_TIMEOUT", 2*time.Minute),

		// Quote defaults
		QuoteMaxAge: getDurationOrDefault("QUOTE_MAX_AGE", 30*time.Second),

		// Metadata bridge defaults
		MetadataURL: getEnvOrDefault("METADATA_URL", "http://localhost:8080"),

		// Oracle defaults
		OracleURL:          getEnvOrDefault("ORACLE_URL", "https://ftso-api.flare.network"),
		OracleWSURL:        getEnvOrDefault("ORACLE_WS_URL", "wss://ftso-api.flare.network/stream"),
		OracleDecimals:     uint8(getIntOrDefault("ORACLE_DECIMALS", 5)),
		EpochLengthSeconds: uint64(getIntOrDefault("EPOCH_LENGTH_SECONDS", 90)),

		// Feed stream defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 30*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 256),

		// Metastore defaults
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "kleos"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "kleos123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "kleos_metadata"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid. Chain
// credentials are checked separately by RequireSigner because read-only
// commands run without them.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL cannot be empty")
	}

	if c.EpochLengthSeconds == 0 {
		return fmt.Errorf("EPOCH_LENGTH_SECONDS must be positive")
	}

	if c.OracleDecimals > 18 {
		return fmt.Errorf("ORACLE_DECIMALS must be at most 18, got %d", c.OracleDecimals)
	}

	if c.ConfirmTimeout < c.ConfirmPollInterval {
		return fmt.Errorf("CONFIRM_TIMEOUT must be at least CONFIRM_POLL_INTERVAL")
	}

	return nil
}

// RequireSigner checks the settings every transaction-submitting
// command needs.
func (c *Config) RequireSigner() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY cannot be empty")
	}
	if c.FactoryAddress == "" {
		return fmt.Errorf("FACTORY_ADDRESS cannot be empty")
	}
	if c.TokenAddress == "" {
		return fmt.Errorf("TOKEN_ADDRESS cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
