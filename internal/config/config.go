// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	ShopID     string

	// Shop-specific configuration (loaded from secrets)
	Shop ShopConfig

	// Engine tuning
	Engine EngineConfig
}

// ShopConfig contains the Shopify shop's settings and credentials.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type ShopConfig struct {
	StoreURL    string `json:"store_url"`
	StoreDomain string `json:"store_domain"` // Derived from StoreURL if not set

	// Admin API access token for customer metafield reads/writes.
	AdminToken string `json:"admin_token"`

	// Admin API version, e.g. "2025-07".
	APIVersion string `json:"api_version,omitempty"`

	// Metafield namespace/key holding the quantity snapshot document.
	SnapshotNamespace string `json:"snapshot_namespace,omitempty"`
	SnapshotKey       string `json:"snapshot_key,omitempty"`
}

// EngineConfig tunes the per-session sync engine.
type EngineConfig struct {
	// DebounceMillis is the quantity-edit debounce window.
	DebounceMillis int `json:"debounce_millis,omitempty"`

	// SweepMillis is the removal fallback sweep interval.
	SweepMillis int `json:"sweep_millis,omitempty"`

	// SessionTTLMinutes is how long an idle session survives.
	SessionTTLMinutes int `json:"session_ttl_minutes,omitempty"`
}

// DebounceWindow returns the edit debounce window (zero means default).
func (e EngineConfig) DebounceWindow() time.Duration {
	return time.Duration(e.DebounceMillis) * time.Millisecond
}

// SweepInterval returns the removal sweep interval (zero means default).
func (e EngineConfig) SweepInterval() time.Duration {
	return time.Duration(e.SweepMillis) * time.Millisecond
}

// SessionTTL returns the idle session TTL (zero means default).
func (e EngineConfig) SessionTTL() time.Duration {
	return time.Duration(e.SessionTTLMinutes) * time.Minute
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		ShopID:      os.Getenv("SHOP_ID"),
	}

	// ShopID required in all environments
	if cfg.ShopID == "" {
		return nil, fmt.Errorf("SHOP_ID environment variable required")
	}

	// Load shop config based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading shop config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string       `json:"port"`
		Environment string       `json:"environment"`
		LogLevel    string       `json:"log_level"`
		ShopID      string       `json:"shop_id"`
		Shop        ShopConfig   `json:"shop"`
		Engine      EngineConfig `json:"engine"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		ShopID:      fileConfig.ShopID,
		Shop:        fileConfig.Shop,
		Engine:      fileConfig.Engine,
	}

	if cfg.ShopID == "" {
		return nil, fmt.Errorf("shop_id is required")
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches shop config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{shop_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.ShopID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Shop); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads shop config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Shop = ShopConfig{
		StoreURL:          os.Getenv("SHOP_STORE_URL"),
		StoreDomain:       os.Getenv("SHOP_STORE_DOMAIN"),
		AdminToken:        os.Getenv("SHOP_ADMIN_TOKEN"),
		APIVersion:        os.Getenv("SHOP_API_VERSION"),
		SnapshotNamespace: os.Getenv("SHOP_SNAPSHOT_NAMESPACE"),
		SnapshotKey:       os.Getenv("SHOP_SNAPSHOT_KEY"),
	}

	if engineJSON := os.Getenv("ENGINE_CONFIG"); engineJSON != "" {
		if err := json.Unmarshal([]byte(engineJSON), &c.Engine); err != nil {
			return fmt.Errorf("parsing ENGINE_CONFIG JSON: %w", err)
		}
	}

	return nil
}

// applyDefaults fills derived and defaulted fields.
func (c *Config) applyDefaults() {
	if c.Shop.StoreDomain == "" && c.Shop.StoreURL != "" {
		c.Shop.StoreDomain = extractDomain(c.Shop.StoreURL)
	}
	if c.Shop.APIVersion == "" {
		c.Shop.APIVersion = "2025-07"
	}
	if c.Shop.SnapshotNamespace == "" {
		c.Shop.SnapshotNamespace = "quick_order"
	}
	if c.Shop.SnapshotKey == "" {
		c.Shop.SnapshotKey = "saved_quantities"
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Shop.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if _, err := url.Parse(c.Shop.StoreURL); err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}
	if c.Shop.AdminToken == "" {
		return fmt.Errorf("admin_token is required")
	}
	return nil
}

// extractDomain parses the domain from a URL string.
func extractDomain(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(storeURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
