package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings of the lead intake service
type Config struct {
	Environment string
	Server      ServerConfig
	CORS        CORSConfig
	Telegram    TelegramConfig
	RateLimit   RateLimitConfig
	Validation  ValidationConfig
	Delivery    DeliveryConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64

	EnableTLS   bool
	TLSPort     int
	AutoCert    bool
	Domain      string
	CertFile    string
	KeyFile     string
	AutoCertDir string
	Email       string
}

type CORSConfig struct {
	AllowedOrigins []string
	DevOrigins     []string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string
	Timeout  time.Duration
}

type RateLimitConfig struct {
	Backend        string
	Window         time.Duration
	MaxRequests    int
	SweepInterval  time.Duration
	MaxIdentifiers int
}

type ValidationConfig struct {
	PhonePrefix      string
	PhoneDigits      int
	NameMinLength    int
	NameMaxLength    int
	MessageMinLength int
	MessageMaxLength int
}

type DeliveryConfig struct {
	Backend string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"

	DeliveryBackendTelegram = "telegram"
	DeliveryBackendKafka    = "kafka"
)

var (
	current *Config
	mu      sync.RWMutex
)

// LoadConfig reads .env (if present) and the process environment
func LoadConfig() *Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// real environment variables take precedence over the file
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not load %s: %v", envFile, err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 3001),
			ReadTimeout:  getEnvDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
			MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 10*1024)),
			EnableTLS:    getEnvBool("ENABLE_TLS", false),
			TLSPort:      getEnvInt("TLS_PORT", 3443),
			AutoCert:     getEnvBool("AUTO_CERT", false),
			Domain:       getEnv("DOMAIN", "localhost"),
			CertFile:     getEnv("CERT_FILE", ""),
			KeyFile:      getEnv("KEY_FILE", ""),
			AutoCertDir:  getEnv("AUTO_CERT_DIR", "./certs"),
			Email:        getEnv("ACME_EMAIL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("ALLOWED_ORIGIN", nil),
			DevOrigins:     getEnvList("DEV_ORIGINS", []string{"http://localhost:5173", "http://localhost:4173"}),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			APIURL:   strings.TrimRight(getEnv("TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
			Timeout:  getEnvDuration("TELEGRAM_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			Backend:        strings.ToLower(getEnv("RATE_LIMIT_BACKEND", RateLimitBackendMemory)),
			Window:         getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			MaxRequests:    getEnvInt("RATE_LIMIT_MAX", 3),
			SweepInterval:  getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
			MaxIdentifiers: getEnvInt("RATE_LIMIT_MAX_IDENTIFIERS", 100000),
		},
		Validation: ValidationConfig{
			PhonePrefix:      getEnv("PHONE_PREFIX", "+998"),
			PhoneDigits:      getEnvInt("PHONE_DIGITS", 9),
			NameMinLength:    getEnvInt("NAME_MIN_LENGTH", 2),
			NameMaxLength:    getEnvInt("NAME_MAX_LENGTH", 100),
			MessageMinLength: getEnvInt("MESSAGE_MIN_LENGTH", 5),
			MessageMaxLength: getEnvInt("MESSAGE_MAX_LENGTH", 1000),
		},
		Delivery: DeliveryConfig{
			Backend: strings.ToLower(getEnv("DELIVERY_BACKEND", DeliveryBackendTelegram)),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 20),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "leads"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}

	mu.Lock()
	current = cfg
	mu.Unlock()

	return cfg
}

// Get returns the most recently loaded configuration
func Get() *Config {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg == nil {
		return LoadConfig()
	}
	return cfg
}

// Origins returns the full CORS allow-list: local dev origins plus configured ones
func (c *Config) Origins() []string {
	seen := make(map[string]struct{})
	var origins []string
	for _, o := range append(append([]string{}, c.CORS.DevOrigins...), c.CORS.AllowedOrigins...) {
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		origins = append(origins, o)
	}
	return origins
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		log.Printf("config: invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: invalid boolean for %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("config: invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
