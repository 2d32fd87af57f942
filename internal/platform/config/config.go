// Package config loads runtime configuration from defaults, an optional .env
// file, and environment variables, in increasing order of precedence.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile              = ".env"
	defaultPort                 = "8080"
	defaultReadTimeout          = 15 * time.Second
	defaultWriteTimeout         = 30 * time.Second
	defaultIdleTimeout          = 120 * time.Second
	defaultCurrency             = "XOF"
	defaultCouponCode           = "SANTE10"
	defaultShippingStandard     = int64(3999)
	defaultShippingExpress      = int64(7999)
	defaultShippingPickup       = int64(4999)
	defaultShippingStandardDays = 5
	defaultShippingExpressDays  = 2
	defaultShippingPickupDays   = 1
	defaultCarrier              = "Colis Santé Express"
	defaultCarrierIntl          = "Chronopost International"
	defaultTrackingURLBase      = "https://suivi.sante-plus.example/t/"
	defaultMobileCodeDelay      = 2 * time.Second
	defaultOrderEventsTopic     = "order-events"
	defaultIdempotencyHeader    = "Idempotency-Key"
	defaultIdempotencyTTL       = 24 * time.Hour
	defaultIdempotencyInterval  = time.Hour
	defaultIdempotencyBatchSize = 200
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Firestore   FirestoreConfig
	PubSub      PubSubConfig
	Checkout    CheckoutConfig
	Payments    PaymentConfig
	Idempotency IdempotencyConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters. When UseMemory is set the
// service runs entirely on in-process storage, which is the local dev mode.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	UseMemory    bool
}

// PubSubConfig configures order event publishing. Publishing is disabled when
// the topic is empty.
type PubSubConfig struct {
	ProjectID string
	Topic     string
}

// CheckoutConfig holds the pricing knobs: per-tier shipping cost and delivery
// delay, plus the single promotional coupon honoured at checkout.
type CheckoutConfig struct {
	Currency             string
	CouponCode           string
	ShippingStandard     int64
	ShippingExpress      int64
	ShippingPickup       int64
	ShippingStandardDays int
	ShippingExpressDays  int
	ShippingPickupDays   int
	Carrier              string
	CarrierIntl          string
	TrackingURLBase      string
}

// PaymentConfig controls payment behaviour.
type PaymentConfig struct {
	Require3DS      bool
	MobileCodeDelay time.Duration
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header           string
	TTL              time.Duration
	CleanupInterval  time.Duration
	CleanupBatchSize int
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env
// overrides, and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
			UseMemory:    boolWithDefault(lookup, "API_STORAGE_USE_MEMORY", false),
		},
		PubSub: PubSubConfig{
			ProjectID: stringWithDefault(lookup, "API_PUBSUB_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "API_PUBSUB_ORDER_TOPIC", defaultOrderEventsTopic),
		},
		Checkout: CheckoutConfig{
			Currency:             strings.ToUpper(stringWithDefault(lookup, "API_CHECKOUT_CURRENCY", defaultCurrency)),
			CouponCode:           stringWithDefault(lookup, "API_CHECKOUT_COUPON_CODE", defaultCouponCode),
			ShippingStandard:     int64WithDefault(lookup, "API_CHECKOUT_SHIPPING_STANDARD", defaultShippingStandard),
			ShippingExpress:      int64WithDefault(lookup, "API_CHECKOUT_SHIPPING_EXPRESS", defaultShippingExpress),
			ShippingPickup:       int64WithDefault(lookup, "API_CHECKOUT_SHIPPING_PICKUP", defaultShippingPickup),
			ShippingStandardDays: intWithDefault(lookup, "API_CHECKOUT_SHIPPING_STANDARD_DAYS", defaultShippingStandardDays),
			ShippingExpressDays:  intWithDefault(lookup, "API_CHECKOUT_SHIPPING_EXPRESS_DAYS", defaultShippingExpressDays),
			ShippingPickupDays:   intWithDefault(lookup, "API_CHECKOUT_SHIPPING_PICKUP_DAYS", defaultShippingPickupDays),
			Carrier:              stringWithDefault(lookup, "API_CHECKOUT_CARRIER", defaultCarrier),
			CarrierIntl:          stringWithDefault(lookup, "API_CHECKOUT_CARRIER_INTL", defaultCarrierIntl),
			TrackingURLBase:      stringWithDefault(lookup, "API_CHECKOUT_TRACKING_URL_BASE", defaultTrackingURLBase),
		},
		Payments: PaymentConfig{
			Require3DS:      boolWithDefault(lookup, "API_PAYMENTS_REQUIRE_3DS", true),
			MobileCodeDelay: durationWithDefault(lookup, "API_PAYMENTS_MOBILE_CODE_DELAY", defaultMobileCodeDelay),
		},
		Idempotency: IdempotencyConfig{
			Header:           stringWithDefault(lookup, "API_IDEMPOTENCY_HEADER", defaultIdempotencyHeader),
			TTL:              durationWithDefault(lookup, "API_IDEMPOTENCY_TTL", defaultIdempotencyTTL),
			CleanupInterval:  durationWithDefault(lookup, "API_IDEMPOTENCY_CLEANUP_INTERVAL", defaultIdempotencyInterval),
			CleanupBatchSize: intWithDefault(lookup, "API_IDEMPOTENCY_CLEANUP_BATCH", defaultIdempotencyBatchSize),
		},
	}

	// Events default to the storage project when no dedicated one is set.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if !cfg.Firestore.UseMemory && cfg.Firestore.ProjectID == "" {
		missing = append(missing, "Firestore.ProjectID")
	}
	if cfg.Checkout.Currency == "" {
		missing = append(missing, "Checkout.Currency")
	}
	if cfg.Checkout.ShippingStandard < 0 || cfg.Checkout.ShippingExpress < 0 || cfg.Checkout.ShippingPickup < 0 {
		missing = append(missing, "Checkout.Shipping")
	}
	if cfg.Checkout.ShippingStandardDays <= 0 || cfg.Checkout.ShippingExpressDays <= 0 || cfg.Checkout.ShippingPickupDays <= 0 {
		missing = append(missing, "Checkout.ShippingDays")
	}
	if strings.TrimSpace(cfg.Idempotency.Header) == "" {
		missing = append(missing, "Idempotency.Header")
	}
	if cfg.Idempotency.TTL <= 0 {
		missing = append(missing, "Idempotency.TTL")
	}
	if cfg.Idempotency.CleanupInterval <= 0 {
		missing = append(missing, "Idempotency.CleanupInterval")
	}
	if cfg.Idempotency.CleanupBatchSize <= 0 {
		missing = append(missing, "Idempotency.CleanupBatchSize")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func int64WithDefault(lookup func(string) (string, bool), key string, fallback int64) int64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
