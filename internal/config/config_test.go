package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	// Save and restore environment
	envVars := []string{
		"SHOP_ID", "SHOP_STORE_URL", "SHOP_STORE_DOMAIN", "SHOP_ADMIN_TOKEN",
		"SHOP_API_VERSION", "SHOP_SNAPSHOT_NAMESPACE", "SHOP_SNAPSHOT_KEY",
		"ENVIRONMENT", "PORT", "LOG_LEVEL", "ENGINE_CONFIG", "CONFIG_FILE",
	}
	saved := make(map[string]string)
	for _, k := range envVars {
		saved[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	// Set test environment
	os.Unsetenv("CONFIG_FILE")
	os.Setenv("ENVIRONMENT", "development")
	os.Setenv("SHOP_ID", "test-shop")
	os.Setenv("SHOP_STORE_URL", "https://shop.example.com")
	os.Setenv("SHOP_ADMIN_TOKEN", "shpat_test123")
	os.Setenv("PORT", "9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("ENGINE_CONFIG", `{"debounce_millis":120,"session_ttl_minutes":15}`)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Verify server settings
	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.ShopID != "test-shop" {
		t.Errorf("ShopID = %s, want test-shop", cfg.ShopID)
	}

	// Verify shop config
	if cfg.Shop.StoreURL != "https://shop.example.com" {
		t.Errorf("StoreURL = %s, want https://shop.example.com", cfg.Shop.StoreURL)
	}
	if cfg.Shop.AdminToken != "shpat_test123" {
		t.Errorf("AdminToken = %s, want shpat_test123", cfg.Shop.AdminToken)
	}

	// Verify derived domain and snapshot defaults
	if cfg.Shop.StoreDomain != "shop.example.com" {
		t.Errorf("StoreDomain = %s, want shop.example.com", cfg.Shop.StoreDomain)
	}
	if cfg.Shop.SnapshotNamespace != "quick_order" {
		t.Errorf("SnapshotNamespace = %s, want quick_order", cfg.Shop.SnapshotNamespace)
	}
	if cfg.Shop.SnapshotKey != "saved_quantities" {
		t.Errorf("SnapshotKey = %s, want saved_quantities", cfg.Shop.SnapshotKey)
	}

	// Verify engine tuning
	if cfg.Engine.DebounceWindow() != 120*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 120ms", cfg.Engine.DebounceWindow())
	}
	if cfg.Engine.SessionTTL() != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want 15m", cfg.Engine.SessionTTL())
	}
	if cfg.Engine.SweepInterval() != 0 {
		t.Errorf("SweepInterval = %v, want 0 (engine default)", cfg.Engine.SweepInterval())
	}
}

func TestLoadMissingShopID(t *testing.T) {
	os.Unsetenv("CONFIG_FILE")
	os.Unsetenv("SHOP_ID")

	_, err := Load(context.Background())
	if err == nil {
		t.Error("Expected error for missing SHOP_ID")
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		wantErr string
	}{
		{
			name: "missing store_url",
			setup: func() {
				os.Setenv("SHOP_ID", "test")
				os.Setenv("SHOP_ADMIN_TOKEN", "token")
				os.Unsetenv("SHOP_STORE_URL")
			},
			wantErr: "store_url is required",
		},
		{
			name: "missing admin_token",
			setup: func() {
				os.Setenv("SHOP_ID", "test")
				os.Setenv("SHOP_STORE_URL", "https://shop.example.com")
				os.Unsetenv("SHOP_ADMIN_TOKEN")
			},
			wantErr: "admin_token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Unsetenv("CONFIG_FILE")
			os.Setenv("ENVIRONMENT", "development")
			os.Unsetenv("SHOP_ID")
			os.Unsetenv("SHOP_STORE_URL")
			os.Unsetenv("SHOP_ADMIN_TOKEN")

			tt.setup()

			_, err := Load(context.Background())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "7070",
		"shop_id": "file-shop",
		"shop": {
			"store_url": "https://file.example.com/",
			"admin_token": "shpat_file",
			"api_version": "2024-10"
		},
		"engine": {"sweep_millis": 2000}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	saved := os.Getenv("CONFIG_FILE")
	defer os.Setenv("CONFIG_FILE", saved)
	os.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Port = %s, want 7070", cfg.Port)
	}
	if cfg.ShopID != "file-shop" {
		t.Errorf("ShopID = %s, want file-shop", cfg.ShopID)
	}
	if cfg.Shop.StoreDomain != "file.example.com" {
		t.Errorf("StoreDomain = %s, want file.example.com", cfg.Shop.StoreDomain)
	}
	if cfg.Shop.APIVersion != "2024-10" {
		t.Errorf("APIVersion = %s, want 2024-10", cfg.Shop.APIVersion)
	}
	if cfg.Engine.SweepInterval() != 2*time.Second {
		t.Errorf("SweepInterval = %v, want 2s", cfg.Engine.SweepInterval())
	}
}

func TestLoadFromFileMissingShopID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"shop": {"store_url": "https://x.example.com", "admin_token": "t"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	saved := os.Getenv("CONFIG_FILE")
	defer os.Setenv("CONFIG_FILE", saved)
	os.Setenv("CONFIG_FILE", path)

	_, err := Load(context.Background())
	if err == nil {
		t.Error("Expected error for missing shop_id")
	}
}
