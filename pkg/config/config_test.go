package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Persistence.Backend != "file" {
		t.Errorf("expected default backend file, got %s", cfg.Persistence.Backend)
	}
	if len(cfg.Channels) != 8 {
		t.Errorf("expected 8 default channels, got %d", len(cfg.Channels))
	}
	if !cfg.Moon.Enabled {
		t.Error("expected moon simulation enabled by default")
	}
	if cfg.Temperature.RecoveryC >= cfg.Temperature.EmergencyC {
		t.Errorf("expected recovery_c < emergency_c, got recovery=%v emergency=%v",
			cfg.Temperature.RecoveryC, cfg.Temperature.EmergencyC)
	}
	if cfg.TickIntervalMs <= 0 {
		t.Error("expected a positive tick interval")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Channels) != len(DefaultConfig().Channels) {
		t.Errorf("expected defaults for missing config file, got %d channels", len(cfg.Channels))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	original := DefaultConfig()
	original.Observer.Latitude = 37.7749
	original.Observer.Longitude = -122.4194
	original.Persistence.Backend = "postgres"
	original.Persistence.Postgres.Host = "db.internal"

	path := filepath.Join(t.TempDir(), "ledcore.json")
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Observer.Latitude != original.Observer.Latitude {
		t.Error("latitude not preserved in round trip")
	}
	if loaded.Observer.Longitude != original.Observer.Longitude {
		t.Error("longitude not preserved in round trip")
	}
	if loaded.Persistence.Backend != "postgres" {
		t.Error("persistence backend not preserved in round trip")
	}
	if loaded.Persistence.Postgres.Host != "db.internal" {
		t.Error("postgres host not preserved in round trip")
	}
	if len(loaded.Channels) != len(original.Channels) {
		t.Error("channels not preserved in round trip")
	}
}

func TestEnvironmentOverridesSecrets(t *testing.T) {
	t.Setenv("LEDCORE_DB_PASSWORD", "s3cret")
	t.Setenv("LEDCORE_DOCUMENT_PATH", "/tmp/custom-document.json")

	path := filepath.Join(t.TempDir(), "ledcore.json")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Persistence.Postgres.Password != "s3cret" {
		t.Errorf("expected env override to set postgres password, got %q", cfg.Persistence.Postgres.Password)
	}
	if cfg.Persistence.FilePath != "/tmp/custom-document.json" {
		t.Errorf("expected env override to set file path, got %q", cfg.Persistence.FilePath)
	}
}

func TestSaveCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledcore.json")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to exist at %s: %v", path, err)
	}
}
