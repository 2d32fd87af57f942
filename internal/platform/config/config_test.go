package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "sante-dev",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.PubSub.ProjectID != "sante-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.Topic != defaultOrderEventsTopic {
		t.Errorf("unexpected default topic: %s", cfg.PubSub.Topic)
	}
	if cfg.Checkout.Currency != "XOF" {
		t.Errorf("expected default currency XOF, got %s", cfg.Checkout.Currency)
	}
	if cfg.Checkout.CouponCode != "SANTE10" {
		t.Errorf("unexpected default coupon code: %s", cfg.Checkout.CouponCode)
	}
	if cfg.Checkout.ShippingStandard != 3999 || cfg.Checkout.ShippingExpress != 7999 || cfg.Checkout.ShippingPickup != 4999 {
		t.Errorf("unexpected default shipping costs: %d/%d/%d",
			cfg.Checkout.ShippingStandard, cfg.Checkout.ShippingExpress, cfg.Checkout.ShippingPickup)
	}
	if cfg.Checkout.ShippingStandardDays != 5 || cfg.Checkout.ShippingExpressDays != 2 || cfg.Checkout.ShippingPickupDays != 1 {
		t.Errorf("unexpected default delivery days: %d/%d/%d",
			cfg.Checkout.ShippingStandardDays, cfg.Checkout.ShippingExpressDays, cfg.Checkout.ShippingPickupDays)
	}
	if !cfg.Payments.Require3DS {
		t.Error("expected 3DS enabled by default")
	}
	if cfg.Payments.MobileCodeDelay != defaultMobileCodeDelay {
		t.Errorf("unexpected mobile code delay: %s", cfg.Payments.MobileCodeDelay)
	}
	if cfg.Idempotency.Header != defaultIdempotencyHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != defaultIdempotencyTTL {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.Idempotency.TTL)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                     "9090",
		"API_SERVER_READ_TIMEOUT":             "20s",
		"API_SERVER_IDLE_TIMEOUT":             "2m",
		"API_FIRESTORE_PROJECT_ID":            "sante-prod",
		"API_FIRESTORE_EMULATOR_HOST":         "localhost:8200",
		"API_PUBSUB_PROJECT_ID":               "sante-events",
		"API_PUBSUB_ORDER_TOPIC":              "orders-prod",
		"API_CHECKOUT_CURRENCY":               "eur",
		"API_CHECKOUT_COUPON_CODE":            "BIENVENUE",
		"API_CHECKOUT_SHIPPING_STANDARD":      "2500",
		"API_CHECKOUT_SHIPPING_STANDARD_DAYS": "4",
		"API_PAYMENTS_REQUIRE_3DS":            "false",
		"API_PAYMENTS_MOBILE_CODE_DELAY":      "500ms",
		"API_IDEMPOTENCY_HEADER":              "X-Idem-Key",
		"API_IDEMPOTENCY_TTL":                 "48h",
		"API_IDEMPOTENCY_CLEANUP_INTERVAL":    "30m",
		"API_IDEMPOTENCY_CLEANUP_BATCH":       "500",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Errorf("unexpected emulator host: %s", cfg.Firestore.EmulatorHost)
	}
	if cfg.PubSub.ProjectID != "sante-events" || cfg.PubSub.Topic != "orders-prod" {
		t.Errorf("unexpected pubsub config: %s/%s", cfg.PubSub.ProjectID, cfg.PubSub.Topic)
	}
	if cfg.Checkout.Currency != "EUR" {
		t.Errorf("expected currency upper-cased to EUR, got %s", cfg.Checkout.Currency)
	}
	if cfg.Checkout.CouponCode != "BIENVENUE" {
		t.Errorf("unexpected coupon code: %s", cfg.Checkout.CouponCode)
	}
	if cfg.Checkout.ShippingStandard != 2500 {
		t.Errorf("unexpected standard shipping cost: %d", cfg.Checkout.ShippingStandard)
	}
	if cfg.Checkout.ShippingStandardDays != 4 {
		t.Errorf("unexpected standard delivery days: %d", cfg.Checkout.ShippingStandardDays)
	}
	if cfg.Payments.Require3DS {
		t.Error("expected 3DS disabled")
	}
	if cfg.Payments.MobileCodeDelay != 500*time.Millisecond {
		t.Errorf("unexpected mobile code delay: %s", cfg.Payments.MobileCodeDelay)
	}
	if cfg.Idempotency.Header != "X-Idem-Key" || cfg.Idempotency.TTL != 48*time.Hour {
		t.Errorf("unexpected idempotency config: %s/%s", cfg.Idempotency.Header, cfg.Idempotency.TTL)
	}
	if cfg.Idempotency.CleanupInterval != 30*time.Minute || cfg.Idempotency.CleanupBatchSize != 500 {
		t.Errorf("unexpected cleanup config: %s/%d", cfg.Idempotency.CleanupInterval, cfg.Idempotency.CleanupBatchSize)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "API_SERVER_PORT=7070\nAPI_FIRESTORE_PROJECT_ID=sante-dot\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "sante-dot" {
		t.Errorf("expected firestore project from dotenv, got %s", cfg.Firestore.ProjectID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadMemoryStorageSkipsProjectValidation(t *testing.T) {
	env := map[string]string{
		"API_STORAGE_USE_MEMORY": "true",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Firestore.UseMemory {
		t.Fatal("expected memory storage enabled")
	}
}
