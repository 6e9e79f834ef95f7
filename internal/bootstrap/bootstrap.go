// Package bootstrap turns a pkg/config.Config into the in-memory
// persistence.State a fresh internal/control.Loop seeds itself with, and
// selects the drivers.PersistenceBackend the config names. It is the one
// place process configuration and tank state meet.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/aquareef/ledcore/internal/drivers"
	"github.com/aquareef/ledcore/internal/persistence"
	"github.com/aquareef/ledcore/internal/persistence/file"
	"github.com/aquareef/ledcore/internal/persistence/postgres"
	"github.com/aquareef/ledcore/pkg/astro"
	"github.com/aquareef/ledcore/pkg/config"
	"github.com/aquareef/ledcore/pkg/schedule"
	"github.com/aquareef/ledcore/pkg/thermal"
)

// InitialState builds the seed persistence.State a fresh document defaults
// to; a real document loaded from the backend overwrites these fields
// field-by-field in persistence.Import's order.
func InitialState(cfg *config.Config) persistence.State {
	channels := make([]schedule.ChannelConfig, len(cfg.Channels))
	for i, c := range cfg.Channels {
		channels[i] = schedule.ChannelConfig{Name: c.Name, RGBHex: c.RGBHex, MaxCurrent: c.MaxCurrent}
		channels[i].ClampMaxCurrent()
	}

	return persistence.State{
		Channels: channels,
		Schedule: schedule.Preset(schedule.PresetDefault, len(channels)),
		Moon: schedule.MoonSimulation{
			Enabled:             cfg.Moon.Enabled,
			PhaseScalingPWM:     cfg.Moon.PhaseScalingPWM,
			PhaseScalingCurrent: cfg.Moon.PhaseScalingCurrent,
			BaseIntensityPWM:    append([]float64(nil), cfg.Moon.BaseIntensityPWM...),
			BaseCurrent:         append([]float64(nil), cfg.Moon.BaseCurrent...),
			MinCurrentThreshold: cfg.Moon.MinCurrentThreshold,
		},
		Temp: thermal.Config{
			TargetC:             cfg.Temperature.TargetC,
			KP:                  cfg.Temperature.KP,
			KI:                  cfg.Temperature.KI,
			KD:                  cfg.Temperature.KD,
			MinFanPWM:           cfg.Temperature.MinFanPWM,
			MaxFanPWM:           cfg.Temperature.MaxFanPWM,
			FanUpdateIntervalMs: cfg.Temperature.FanUpdateIntervalMs,
			EmergencyC:          cfg.Temperature.EmergencyC,
			RecoveryC:           cfg.Temperature.RecoveryC,
			EmergencyDelayMs:    cfg.Temperature.EmergencyDelayMs,
			SensorTimeoutMs:     cfg.Temperature.SensorTimeoutMs,
			TempFilterAlpha:     cfg.Temperature.TempFilterAlpha,
		},
		Timezone:        cfg.Observer.Timezone,
		TimezoneOffsetH: cfg.Observer.TimezoneOffsetH,
		Location:        astro.Location{Latitude: cfg.Observer.Latitude, Longitude: cfg.Observer.Longitude},
		Projection: astro.Projection{
			Enabled:      cfg.Projection.Enabled,
			ShiftHours:   cfg.Projection.ShiftHours,
			ShiftMinutes: cfg.Projection.ShiftMinutes,
		},
		Enabled: true,
	}
}

// Backend constructs the drivers.PersistenceBackend named by
// cfg.Persistence.Backend ("file" or "postgres").
func Backend(ctx context.Context, cfg *config.Config) (drivers.PersistenceBackend, error) {
	switch cfg.Persistence.Backend {
	case "", "file":
		return file.New(cfg.Persistence.FilePath), nil
	case "postgres":
		pg := cfg.Persistence.Postgres
		return postgres.Connect(ctx, postgres.Config{
			Host:         pg.Host,
			Port:         pg.Port,
			Database:     pg.Database,
			Username:     pg.Username,
			Password:     pg.Password,
			SSLMode:      pg.SSLMode,
			MaxOpenConns: pg.MaxOpenConns,
			MaxIdleConns: pg.MaxIdleConns,
		})
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
	}
}
