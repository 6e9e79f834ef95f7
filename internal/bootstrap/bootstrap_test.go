package bootstrap

import (
	"context"
	"testing"

	"github.com/aquareef/ledcore/pkg/config"
)

func TestInitialStateSeedsChannelsAndClampsMaxCurrent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Channels = append(cfg.Channels, config.ChannelConfig{Name: "Overdriven", MaxCurrent: 9})

	state := InitialState(cfg)

	if len(state.Channels) != len(cfg.Channels) {
		t.Fatalf("expected %d channels, got %d", len(cfg.Channels), len(state.Channels))
	}
	last := state.Channels[len(state.Channels)-1]
	if last.MaxCurrent != 2.0 {
		t.Errorf("expected max_current clamped to 2.0, got %v", last.MaxCurrent)
	}
	if len(state.Schedule) == 0 {
		t.Error("expected a default schedule preset to be seeded")
	}
	if !state.Enabled {
		t.Error("expected a fresh state to start enabled")
	}
}

func TestBackendFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Persistence.Backend = "file"
	cfg.Persistence.FilePath = t.TempDir() + "/doc.json"

	backend, err := Backend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Backend: %v", err)
	}
	if backend == nil {
		t.Fatal("expected a non-nil backend")
	}
}

func TestBackendUnknown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Persistence.Backend = "carrier-pigeon"

	if _, err := Backend(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown persistence backend")
	}
}
