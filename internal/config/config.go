package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"

	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type Config struct {
	Addr string

	StoreDriver          string
	DatabaseURL          string
	FirestoreProjectID   string
	FirestoreCredentials string

	AuthMode  string
	JWTSecret string
	TokenTTL  time.Duration

	ShippingFee  decimal.Decimal
	DeliveryDays int

	CartSyncAttempts int
	CartSyncBackoff  time.Duration
	// CartIdleTimeout is how long an unused cart stays in memory; 0 keeps
	// carts until shutdown.
	CartIdleTimeout time.Duration

	AllowSeed bool
}

// Load reads .env when present and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] WARN: .env not loaded: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a getenv function so tests can pass a map.
func FromEnv(getenv func(string) string) Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Addr:                 get("ADDR", ":8080"),
		StoreDriver:          strings.ToLower(get("STORE_DRIVER", DriverMemory)),
		DatabaseURL:          get("DATABASE_URL", ""),
		FirestoreProjectID:   get("FIRESTORE_PROJECT_ID", ""),
		FirestoreCredentials: get("FIRESTORE_CREDENTIALS_FILE", ""),
		AuthMode:             strings.ToLower(get("AUTH_MODE", AuthJWT)),
		JWTSecret:            get("JWT_SECRET", ""),
		TokenTTL:             parseDuration(get("TOKEN_TTL", ""), 72*time.Hour),
		ShippingFee:          decimal.NewFromInt(30000),
		DeliveryDays:         parseInt(get("DELIVERY_DAYS", ""), 7),
		CartSyncAttempts:     parseInt(get("CART_SYNC_ATTEMPTS", ""), 3),
		CartSyncBackoff:      parseDuration(get("CART_SYNC_BACKOFF", ""), 200*time.Millisecond),
		CartIdleTimeout:      parseDuration(get("CART_IDLE_TIMEOUT", ""), 30*time.Minute),
		AllowSeed:            get("ALLOW_SEED", "") == "1",
	}
	if v := get("SHIPPING_FEE", ""); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			cfg.ShippingFee = d
		} else {
			log.Printf("[config] WARN: ignoring SHIPPING_FEE=%q", v)
		}
	}
	if cfg.CartSyncAttempts < 1 {
		cfg.CartSyncAttempts = 1
	}
	return cfg
}

func parseInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] WARN: ignoring non-numeric value %q", v)
		return def
	}
	return n
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] WARN: ignoring bad duration %q", v)
		return def
	}
	return d
}
