// Package config loads the controller's process configuration: which
// persistence backend to boot against, the observer location, the tank's
// channel layout, and the ambient tuning defaults used to seed a fresh
// PersistedDocument. This is distinct from internal/persistence.Document,
// which is the tank's own tunable state — config is what the process needs
// to know before it can even load that document.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the complete process configuration, loaded from a JSON file
// with sensible defaults when the file doesn't exist yet.
type Config struct {
	Persistence PersistenceConfig `json:"persistence"`
	Observer    ObserverConfig    `json:"observer"`
	Projection  ProjectionConfig  `json:"projection"`
	Channels    []ChannelConfig   `json:"channels"`
	Moon        MoonConfig        `json:"moon"`
	Temperature TemperatureConfig `json:"temperature"`
	Sensors     []string          `json:"sensors"`

	TickIntervalMs int `json:"tick_interval_ms"`
}

// PersistenceConfig selects and configures the drivers.PersistenceBackend
// the control loop saves its document to.
type PersistenceConfig struct {
	// Backend is "file" (default) or "postgres".
	Backend string `json:"backend"`

	// FilePath is used when Backend is "file".
	FilePath string `json:"file_path"`

	// Postgres is used when Backend is "postgres".
	Postgres PostgresConfig `json:"postgres"`
}

// PostgresConfig mirrors internal/persistence/postgres.Config; kept
// separate so pkg/config has no import on a specific backend package.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`

	// Password is never marshaled: it only ever comes from
	// LEDCORE_DB_PASSWORD, so a Save after Load can't leak it back to
	// disk in plaintext.
	Password string `json:"-"`

	SSLMode      string `json:"ssl_mode"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

// ObserverConfig is the tank's geographic location and clock basis, the
// seed for PersistedDocument's astronomy fields.
type ObserverConfig struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Timezone        string  `json:"timezone"`
	TimezoneOffsetH float64 `json:"timezone_offset_hours"`
}

// ProjectionConfig seeds the astronomical projection mode (spec.md §3,
// Projection).
type ProjectionConfig struct {
	Enabled      bool `json:"enabled"`
	ShiftHours   int  `json:"shift_hours"`
	ShiftMinutes int  `json:"shift_minutes"`
}

// ChannelConfig seeds one LED channel's display name, color hint, and
// current ceiling.
type ChannelConfig struct {
	Name       string  `json:"name"`
	RGBHex     string  `json:"rgb_hex"`
	MaxCurrent float64 `json:"max_current"`
}

// MoonConfig seeds the moonlight simulation overlay.
type MoonConfig struct {
	Enabled              bool      `json:"enabled"`
	PhaseScalingPWM      bool      `json:"phase_scaling_pwm"`
	PhaseScalingCurrent  bool      `json:"phase_scaling_current"`
	BaseIntensityPWM     []float64 `json:"base_intensity_pwm"`
	BaseCurrent          []float64 `json:"base_current"`
	MinCurrentThreshold  float64   `json:"min_current_threshold"`
}

// TemperatureConfig seeds the PID fan loop and thermal emergency
// thresholds (spec.md §3, TemperatureControlConfig).
type TemperatureConfig struct {
	TargetC             float64 `json:"target_c"`
	KP                  float64 `json:"kp"`
	KI                  float64 `json:"ki"`
	KD                  float64 `json:"kd"`
	MinFanPWM           float64 `json:"min_fan_pwm"`
	MaxFanPWM           float64 `json:"max_fan_pwm"`
	FanUpdateIntervalMs int64   `json:"fan_update_interval_ms"`
	EmergencyC          float64 `json:"emergency_c"`
	RecoveryC           float64 `json:"recovery_c"`
	EmergencyDelayMs    int64   `json:"emergency_delay_ms"`
	SensorTimeoutMs     int64   `json:"sensor_timeout_ms"`
	TempFilterAlpha     float64 `json:"temp_filter_alpha"`
}

// Load reads configuration from a JSON file. If the file doesn't exist,
// returns DefaultConfig rather than erroring, so a fresh install can boot
// with no config file present.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()
	return &cfg, nil
}

// Save writes the configuration to a JSON file, creating its directory if
// needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns an 8-channel reef tank configuration with
// conservative thermal limits and the dynamic sunrise/sunset moon-enabled
// defaults a fresh controller ships with.
func DefaultConfig() *Config {
	return &Config{
		Persistence: PersistenceConfig{
			Backend:  "file",
			FilePath: "/var/lib/ledcore/document.json",
		},
		Observer: ObserverConfig{
			Latitude:        0,
			Longitude:       0,
			Timezone:        "UTC",
			TimezoneOffsetH: 0,
		},
		Channels: []ChannelConfig{
			{Name: "Royal Blue", RGBHex: "#0033CC", MaxCurrent: 1.5},
			{Name: "Royal Blue 2", RGBHex: "#0033CC", MaxCurrent: 1.5},
			{Name: "Cool White", RGBHex: "#FFFFFF", MaxCurrent: 1.2},
			{Name: "UV Violet", RGBHex: "#6600CC", MaxCurrent: 0.8},
			{Name: "Red", RGBHex: "#CC0000", MaxCurrent: 1.0},
			{Name: "Green", RGBHex: "#00CC33", MaxCurrent: 1.0},
			{Name: "Actinic Blue", RGBHex: "#3366FF", MaxCurrent: 1.5},
			{Name: "Warm White", RGBHex: "#FFCC66", MaxCurrent: 1.0},
		},
		Moon: MoonConfig{
			Enabled:             true,
			PhaseScalingPWM:     true,
			PhaseScalingCurrent: false,
			BaseIntensityPWM:    []float64{2, 2, 1, 0, 0, 0, 1, 0},
			BaseCurrent:         []float64{0.05, 0.05, 0.03, 0, 0, 0, 0.03, 0},
			MinCurrentThreshold: 0.02,
		},
		Temperature: TemperatureConfig{
			TargetC:             25,
			KP:                  8,
			KI:                  0.5,
			KD:                  1.5,
			MinFanPWM:           0,
			MaxFanPWM:           100,
			FanUpdateIntervalMs: 2000,
			EmergencyC:          31,
			RecoveryC:           28.5,
			EmergencyDelayMs:    10000,
			SensorTimeoutMs:     30000,
			TempFilterAlpha:     0.3,
		},
		Sensors:        []string{"main", "sump"},
		TickIntervalMs: 1000,
	}
}

// applyEnvironmentOverrides keeps secrets out of the config file on disk,
// the same role the teacher's applyEnvironmentOverrides played for its
// database password.
func (c *Config) applyEnvironmentOverrides() {
	if pw := os.Getenv("LEDCORE_DB_PASSWORD"); pw != "" {
		c.Persistence.Postgres.Password = pw
	}
	if path := os.Getenv("LEDCORE_DOCUMENT_PATH"); path != "" {
		c.Persistence.FilePath = path
	}
}
