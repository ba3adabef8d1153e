package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Login    LoginLimitConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Storage  StorageConfig
	Site     SiteConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	GRPCHealthPort  string // empty disables the gRPC health endpoint
	AllowedOrigins  []string
	TrustedProxies  []string // empty means X-Forwarded-For is ignored
	ShutdownTimeout time.Duration
	RunMigrations   bool
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type LoginLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
	MaxTracked  int
}

type RedisConfig struct {
	Addr     string // empty disables caching and the shared limiter
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers   []string // empty disables lead events
	LeadTopic string
	GroupID   string
}

type ElasticsearchConfig struct {
	Addresses []string // empty disables the search index
	Username  string
	Password  string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
	MaxUploadMB   int
}

type SiteConfig struct {
	BaseURL string
}

const devJWTSecret = "dev-secret-change-me"

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "development"),
			HTTPPort:        getEnv("HTTP_PORT", ":8080"),
			GRPCHealthPort:  getEnv("GRPC_HEALTH_PORT", ""),
			AllowedOrigins:  getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			TrustedProxies:  getEnvSlice("TRUSTED_PROXIES", nil),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			RunMigrations:   getEnvBool("RUN_MIGRATIONS", true),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "catalog"),
			Password:        getEnv("POSTGRES_PASSWORD", "catalog"),
			DBName:          getEnv("POSTGRES_DB", "catalog"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", devJWTSecret),
			TTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Login: LoginLimitConfig{
			MaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
			Window:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
			MaxTracked:  getEnvInt("LOGIN_MAX_TRACKED_IPS", 10000),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:   getEnvSlice("KAFKA_BROKERS", nil),
			LeadTopic: getEnv("KAFKA_TOPIC_LEADS", "leads.events"),
			GroupID:   getEnv("KAFKA_GROUP_ID", "catalog-lead-notifier"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", nil),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:        getEnv("STORAGE_BUCKET", "catalog"),
			Region:        getEnv("STORAGE_REGION", ""),
			UseSSL:        getEnvBool("STORAGE_USE_SSL", false),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			MaxUploadMB:   getEnvInt("STORAGE_MAX_UPLOAD_MB", 10),
		},
		Site: SiteConfig{
			BaseURL: strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development"
}

// Validate rejects settings that are only acceptable on a developer machine.
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.JWT.SecretKey == "" || c.JWT.SecretKey == devJWTSecret {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if len(c.JWT.SecretKey) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
