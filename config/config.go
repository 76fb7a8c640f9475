package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"betledger/database"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Staking policies
const (
	StakingUntilFinalized = "until_finalized"
	StakingUntilStart     = "until_start"
)

// Attestation modes
const (
	AttestationMerkle    = "merkle"
	AttestationSignature = "signature"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL    string
	DatabaseName   string
	StorageBackend string // "memory" or "postgres"

	// HTTP API configuration
	HTTPAddr  string
	JWTSecret string

	// Identities allowed to create events, fund accounts and override results
	OperatorIDs []string

	// Ledger behavior
	StakingPolicy string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Kafka configuration
	KafkaBrokers []string
	KafkaTopic   string

	// Redis writer lease, disabled when RedisAddr is empty
	RedisAddr      string
	WriterLeaseTTL time.Duration

	// Discord webhook for finalized match announcements
	DiscordWebhookID    string
	DiscordWebhookToken string

	// Attestation verification
	AttestationMode      string
	AttestationSigners   []string
	AttestationRootsFile string

	MetricsEnabled bool

	// Logging
	LogLevel  string
	LogFormat string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsOperator checks if identity is allowed to run privileged operations
func (c *Config) IsOperator(identity string) bool {
	if identity == "" {
		return false
	}
	for _, id := range c.OperatorIDs {
		if id == identity {
			return true
		}
	}
	return false
}

// load loads configuration from environment variables, reading .env first when present
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseName:   os.Getenv("DATABASE_NAME"),
		StorageBackend: getEnvWithDefault("STORAGE_BACKEND", StoragePostgres),

		HTTPAddr:  getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		OperatorIDs: splitList(os.Getenv("OPERATOR_IDS")),

		StakingPolicy: getEnvWithDefault("STAKING_POLICY", StakingUntilFinalized),

		NATSServers: os.Getenv("NATS_SERVERS"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnvWithDefault("KAFKA_TOPIC", "ledger-events"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		WriterLeaseTTL: 15 * time.Second,

		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),

		AttestationMode:      getEnvWithDefault("ATTESTATION_MODE", AttestationSignature),
		AttestationSigners:   splitList(os.Getenv("ATTESTATION_SIGNERS")),
		AttestationRootsFile: os.Getenv("ATTESTATION_ROOTS_FILE"),

		MetricsEnabled: true,

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if ttl := os.Getenv("WRITER_LEASE_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid WRITER_LEASE_TTL: %w", err)
		}
		config.WriterLeaseTTL = parsed
	}
	if enabled := os.Getenv("METRICS_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			config.MetricsEnabled = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND: %s", c.StorageBackend)
	}
	switch c.StakingPolicy {
	case StakingUntilFinalized, StakingUntilStart:
	default:
		return fmt.Errorf("unknown STAKING_POLICY: %s", c.StakingPolicy)
	}
	switch c.AttestationMode {
	case AttestationMerkle, AttestationSignature:
	default:
		return fmt.Errorf("unknown ATTESTATION_MODE: %s", c.AttestationMode)
	}

	if c.Environment == "test" {
		return nil
	}
	if c.StorageBackend == StoragePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AttestationMode == AttestationMerkle && c.AttestationRootsFile == "" {
		return fmt.Errorf("ATTESTATION_ROOTS_FILE is required in merkle mode")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:     "test",
		StorageBackend:  StorageMemory,
		HTTPAddr:        ":0",
		JWTSecret:       "test-secret",
		OperatorIDs:     []string{"operator-1", "operator-2"},
		StakingPolicy:   StakingUntilFinalized,
		AttestationMode: AttestationSignature,
		WriterLeaseTTL:  15 * time.Second,
		LogLevel:        "debug",
		LogFormat:       "text",
	}
}
