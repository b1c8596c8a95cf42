package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Booking  BookingConfig
	Payment  PaymentConfig
	Queue    QueueConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// BookingConfig 預約流程相關設定
type BookingConfig struct {
	Currency               string
	Timezone               string
	LimitedThreshold       int           // 剩餘名額 <= 此值時顯示 limited
	UnpaidHoldTTL          time.Duration // 付款失敗的預約保留多久才釋放
	AvailabilityCacheTTL   time.Duration
	AvailabilityWindowDays int           // 開啟 wizard 時預先拉取的天數
	SessionTTL             time.Duration // wizard 閒置多久後回收
}

type PaymentConfig struct {
	GatewayURL string
	APIKey     string
	Timeout    time.Duration
}

type QueueConfig struct {
	Driver       string // memory | redis
	ConsumerID   string
	BufferSize   int
	ClaimMinIdle time.Duration
	MaxRetry     int
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Booking:  GetBookingConfig(),
		Payment:  GetPaymentConfig(),
		Queue:    GetQueueConfig(),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Server: ServerConfig{
			Port:           "8081",
			GinMode:        "test",
			AllowedOrigins: []string{"*"},
		},
		Database: *testConfig,
		Redis:    testRedisConfig,
		Booking: BookingConfig{
			Currency:               "KES",
			Timezone:               "Africa/Nairobi",
			LimitedThreshold:       5,
			UnpaidHoldTTL:          time.Minute,
			AvailabilityCacheTTL:   time.Minute,
			AvailabilityWindowDays: 90,
			SessionTTL:             time.Minute,
		},
		Payment: PaymentConfig{
			GatewayURL: "http://localhost:9090",
			Timeout:    2 * time.Second,
		},
		Queue: QueueConfig{
			Driver:       "memory",
			ConsumerID:   "test",
			BufferSize:   16,
			ClaimMinIdle: 100 * time.Millisecond,
			MaxRetry:     3,
		},
		LogLevel: "error",
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func GetBookingConfig() BookingConfig {
	return BookingConfig{
		Currency:               getEnv("BOOKING_CURRENCY", "KES"),
		Timezone:               getEnv("BOOKING_TIMEZONE", "Africa/Nairobi"),
		LimitedThreshold:       getEnvInt("BOOKING_LIMITED_THRESHOLD", 5),
		UnpaidHoldTTL:          getEnvDuration("BOOKING_UNPAID_HOLD_TTL", 30*time.Minute),
		AvailabilityCacheTTL:   getEnvDuration("BOOKING_AVAILABILITY_CACHE_TTL", 5*time.Minute),
		AvailabilityWindowDays: getEnvInt("BOOKING_AVAILABILITY_WINDOW_DAYS", 180),
		SessionTTL:             getEnvDuration("BOOKING_SESSION_TTL", 30*time.Minute),
	}
}

func GetPaymentConfig() PaymentConfig {
	return PaymentConfig{
		GatewayURL: getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
		APIKey:     getEnv("PAYMENT_GATEWAY_API_KEY", ""),
		Timeout:    getEnvDuration("PAYMENT_GATEWAY_TIMEOUT", 30*time.Second),
	}
}

func GetQueueConfig() QueueConfig {
	return QueueConfig{
		Driver:       getEnv("QUEUE_DRIVER", "redis"),
		ConsumerID:   getEnv("QUEUE_CONSUMER_ID", ""),
		BufferSize:   getEnvInt("QUEUE_BUFFER_SIZE", 1024),
		ClaimMinIdle: getEnvDuration("QUEUE_CLAIM_MIN_IDLE", time.Minute),
		MaxRetry:     getEnvInt("QUEUE_MAX_RETRY", 100),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		panic(err)
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		panic(err)
	}
	return value
}
