package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort string

	// StoreBackend selects the persistence adapter: redis, mongo,
	// file or memory.
	StoreBackend string
	StorageKey   string
	RedisAddr    string
	RedisPass    string
	MongoURI     string
	MongoDBName  string
	StoreDir     string

	// CommerceBaseURL empty means local-only operation.
	CommerceBaseURL string
	CommerceTimeout time.Duration
	CustomerID      string
	Authenticated   bool
	DebounceMS      int

	KafkaBrokers       []string
	KafkaCheckoutTopic string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		StorageKey:   getEnv("STORAGE_KEY", "cart-state"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:  getEnv("MONGO_DB_NAME", "cartsync"),
		StoreDir:     getEnv("STORE_DIR", "./data"),

		CommerceBaseURL: getEnv("COMMERCE_BASE_URL", ""),
		CommerceTimeout: time.Duration(getEnvInt("COMMERCE_TIMEOUT_MS", 10000)) * time.Millisecond,
		CustomerID:      getEnv("CUSTOMER_ID", ""),
		Authenticated:   getEnvBool("AUTHENTICATED", false),
		DebounceMS:      getEnvInt("DEBOUNCE_MS", 800),

		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		KafkaCheckoutTopic: getEnv("KAFKA_CHECKOUT_TOPIC", "checkout-outbox"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
