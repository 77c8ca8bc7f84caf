package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultSerializer   = "org.apache.kafka.common.serialization.StringSerializer"
	DefaultBatchSize    = "16384"
	DefaultFlushTimeout = 10 * time.Second
)

// Config holds all configuration for the application
type Config struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
	Run   RunConfig   `mapstructure:"run"`
	Redis RedisConfig `mapstructure:"redis"`
	MSSQL MSSQLConfig `mapstructure:"mssql"`
	API   APIConfig   `mapstructure:"api"`
	Log   LogConfig   `mapstructure:"log"`
}

// KafkaConfig holds the producer settings exactly as supplied by the operator.
// Values are not validated here; they are handed to the client library as-is.
type KafkaConfig struct {
	Brokers         string `mapstructure:"brokers"`
	BatchSize       string `mapstructure:"batch_size"`
	ClientID        string `mapstructure:"client_id"`
	KeySerializer   string `mapstructure:"key_serializer"`
	ValueSerializer string `mapstructure:"value_serializer"`

	SSLEnabled            bool   `mapstructure:"ssl_enabled"`
	SSLKeystore           string `mapstructure:"ssl_keystore"`
	SSLKeystorePassword   string `mapstructure:"ssl_keystore_password"`
	SSLTruststore         string `mapstructure:"ssl_truststore"`
	SSLTruststorePassword string `mapstructure:"ssl_truststore_password"`

	ExtraConfigs []ExtraConfig `mapstructure:"extra_configs"`

	Topic        string        `mapstructure:"topic"`
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

// ExtraConfig is a free-form producer property override
type ExtraConfig struct {
	Key   string `mapstructure:"key"`
	Value string `mapstructure:"value"`
}

// RunConfig describes the load to generate
type RunConfig struct {
	Workers    int    `mapstructure:"workers"`
	Iterations int    `mapstructure:"iterations"`
	Message    string `mapstructure:"message"`
}

// RedisConfig holds Redis configuration for the failed-sample store
type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	FailureKey string `mapstructure:"failure_key"`
}

// MSSQLConfig holds MS SQL configuration for the run summary store
type MSSQLConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// APIConfig holds status API configuration
type APIConfig struct {
	Port string `mapstructure:"port"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	sslEnabled, err := getBool("KAFKA_SSL_ENABLED", false)
	if err != nil {
		return nil, err
	}

	extras, err := ParseExtraConfigs(getEnv("KAFKA_EXTRA_CONFIGS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid KAFKA_EXTRA_CONFIGS: %w", err)
	}

	flushTimeout, err := getDuration("KAFKA_FLUSH_TIMEOUT", DefaultFlushTimeout)
	if err != nil {
		return nil, err
	}

	workers, err := getInt("RUN_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	iterations, err := getInt("RUN_ITERATIONS", 100)
	if err != nil {
		return nil, err
	}

	redisEnabled, err := getBool("REDIS_ENABLED", false)
	if err != nil {
		return nil, err
	}

	redisPort, err := getInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	mssqlEnabled, err := getBool("MSSQL_ENABLED", false)
	if err != nil {
		return nil, err
	}

	mssqlPort, err := getInt("MSSQL_PORT", 1433)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Kafka: KafkaConfig{
			Brokers:               getEnv("KAFKA_BROKERS", "localhost:9092"),
			BatchSize:             getEnv("KAFKA_BATCH_SIZE", DefaultBatchSize),
			ClientID:              getEnv("KAFKA_CLIENT_ID", "kafkameter"),
			KeySerializer:         getEnv("KAFKA_KEY_SERIALIZER", DefaultSerializer),
			ValueSerializer:       getEnv("KAFKA_VALUE_SERIALIZER", DefaultSerializer),
			SSLEnabled:            sslEnabled,
			SSLKeystore:           getEnv("KAFKA_SSL_KEYSTORE", ""),
			SSLKeystorePassword:   getEnv("KAFKA_SSL_KEYSTORE_PASSWORD", ""),
			SSLTruststore:         getEnv("KAFKA_SSL_TRUSTSTORE", ""),
			SSLTruststorePassword: getEnv("KAFKA_SSL_TRUSTSTORE_PASSWORD", ""),
			ExtraConfigs:          extras,
			Topic:                 getEnv("KAFKA_TOPIC", "kafkameter"),
			FlushTimeout:          flushTimeout,
		},
		Run: RunConfig{
			Workers:    workers,
			Iterations: iterations,
			Message:    getEnv("RUN_MESSAGE", "hello from kafkameter"),
		},
		Redis: RedisConfig{
			Enabled:    redisEnabled,
			Host:       getEnv("REDIS_HOST", "localhost"),
			Port:       redisPort,
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         redisDB,
			FailureKey: getEnv("REDIS_FAILURE_KEY", "kafkameter:failures"),
		},
		MSSQL: MSSQLConfig{
			Enabled:  mssqlEnabled,
			Server:   getEnv("MSSQL_SERVER", "localhost"),
			Port:     mssqlPort,
			User:     getEnv("MSSQL_USER", "sa"),
			Password: getEnv("MSSQL_PASSWORD", ""),
			Database: getEnv("MSSQL_DATABASE", "kafkameter"),
		},
		API: APIConfig{
			Port: getEnv("API_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a YAML, JSON or TOML file.
// Keys missing from the file fall back to the same defaults as Load.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.batch_size", DefaultBatchSize)
	v.SetDefault("kafka.client_id", "kafkameter")
	v.SetDefault("kafka.key_serializer", DefaultSerializer)
	v.SetDefault("kafka.value_serializer", DefaultSerializer)
	v.SetDefault("kafka.topic", "kafkameter")
	v.SetDefault("kafka.flush_timeout", DefaultFlushTimeout)

	v.SetDefault("run.workers", 4)
	v.SetDefault("run.iterations", 100)
	v.SetDefault("run.message", "hello from kafkameter")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.failure_key", "kafkameter:failures")

	v.SetDefault("mssql.server", "localhost")
	v.SetDefault("mssql.port", 1433)
	v.SetDefault("mssql.user", "sa")
	v.SetDefault("mssql.database", "kafkameter")

	v.SetDefault("api.port", "8080")
	v.SetDefault("log.level", "info")
}

// validate checks harness-level settings only. Producer settings are passed
// through to the client library untouched.
func (c *Config) validate() error {
	if c.Run.Workers < 1 {
		return fmt.Errorf("run workers must be >= 1, got %d", c.Run.Workers)
	}
	if c.Run.Iterations < 0 {
		return fmt.Errorf("run iterations must be >= 0, got %d", c.Run.Iterations)
	}
	if c.Kafka.FlushTimeout <= 0 {
		return fmt.Errorf("kafka flush timeout must be positive, got %s", c.Kafka.FlushTimeout)
	}
	return nil
}

// ParseExtraConfigs parses "key=value" pairs separated by ';' or newlines,
// preserving their order. Values may themselves contain '='.
func ParseExtraConfigs(raw string) ([]ExtraConfig, error) {
	var extras []ExtraConfig
	for _, entry := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '\n' }) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed entry %q, want key=value", entry)
		}
		extras = append(extras, ExtraConfig{Key: key, Value: strings.TrimSpace(value)})
	}
	return extras, nil
}

// GetConnectionString returns MS SQL connection string
func (c *MSSQLConfig) GetConnectionString() string {
	return fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s;encrypt=disable",
		c.Server, c.Port, c.User, c.Password, c.Database)
}

// GetRedisAddr returns Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
