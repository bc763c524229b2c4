package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (tenant live-monitoring feed)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Payment provider configuration
	PaymentProvider        string
	PaymentWebhookHMACKey  string
	PaymentIntentTTL       time.Duration
	PaymentEventsChannel   string
	PaymentSubscribeKey    string
	PaymentSubscribeSecret string
	PaymentSubscribeUUID   string

	// Checkout configuration
	DefaultAccountCap int
	ReservationTTL    time.Duration

	// Rate limiting
	ScanRateLimit     int
	CheckoutRateLimit int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Payments
		PaymentProvider:        getEnv("PAYMENT_PROVIDER", "devpay"),
		PaymentWebhookHMACKey:  getEnv("PAYMENT_WEBHOOK_HMAC_KEY", ""),
		PaymentIntentTTL:       getEnvAsDuration("PAYMENT_INTENT_TTL", "15m"),
		PaymentEventsChannel:   getEnv("PAYMENT_EVENTS_CHANNEL", "payment-events"),
		PaymentSubscribeKey:    getEnv("PAYMENT_SUBSCRIBE_KEY", ""),
		PaymentSubscribeSecret: getEnv("PAYMENT_SUBSCRIBE_SECRET", ""),
		PaymentSubscribeUUID:   getEnv("PAYMENT_SUBSCRIBE_UUID", "tickethub-server"),

		// Checkout
		DefaultAccountCap: getEnvAsInt("DEFAULT_ACCOUNT_CAP", 10),
		ReservationTTL:    getEnvAsDuration("RESERVATION_TTL", "24h"),

		// Rate limiting (requests per minute)
		ScanRateLimit:     getEnvAsInt("SCAN_RATE_LIMIT", 120),
		CheckoutRateLimit: getEnvAsInt("CHECKOUT_RATE_LIMIT", 30),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
