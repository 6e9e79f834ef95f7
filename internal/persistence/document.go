// Package persistence implements the canonical JSON document that is the
// single source of truth for all user-tunable controller state, its
// export/import round trip, and the atomic, capacity-bounded, boot-gated
// save path on top of a drivers.PersistenceBackend.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/aquareef/ledcore/pkg/astro"
	"github.com/aquareef/ledcore/pkg/schedule"
	"github.com/aquareef/ledcore/pkg/thermal"
)

// SupportedVersion is the only schema version Load accepts. An older or
// newer document is logged and ignored in favor of defaults.
const SupportedVersion = 2

// MaxDocumentBytes bounds the serialized document; Save truncates (by
// refusing to write) and logs rather than streaming an oversized payload.
// 8 KiB comfortably fits 16 channels and a few dozen schedule points.
const MaxDocumentBytes = 8 * 1024

// Document is the wire schema persisted to non-volatile storage. Field
// names and JSON tags are the external contract; do not rename without
// bumping SupportedVersion.
type Document struct {
	Version int `json:"version"`

	NumChannels    int                 `json:"num_channels"`
	ChannelConfigs []ChannelConfigJSON `json:"channel_configs"`
	SchedulePoints []SchedulePointJSON `json:"schedule_points"`

	AstronomicalTimes AstronomicalTimesJSON `json:"astronomical_times"`
	MoonSimulation    MoonSimulationJSON    `json:"moon_simulation"`
	TemperatureControl TemperatureControlJSON `json:"temperature_control"`

	Timezone              string  `json:"timezone"`
	TimezoneOffsetHours    float64 `json:"timezone_offset_hours"`
	Latitude               float64 `json:"latitude"`
	Longitude              float64 `json:"longitude"`
	AstronomicalProjection bool    `json:"astronomical_projection"`
	TimeShiftHours         int     `json:"time_shift_hours"`
	TimeShiftMinutes       int     `json:"time_shift_minutes"`
	Enabled                bool    `json:"enabled"`
	CurrentTimeMinutes     int     `json:"current_time_minutes"`
}

// ChannelConfigJSON mirrors the wire schema's channel_configs entries.
type ChannelConfigJSON struct {
	Name       string  `json:"name"`
	RGBHex     string  `json:"rgb_hex"`
	MaxCurrent float64 `json:"max_current"`
}

// SchedulePointJSON mirrors the wire schema's schedule_points entries.
// TimeFormatted is advisory, recomputed on export, and ignored on import.
type SchedulePointJSON struct {
	TimeType      string    `json:"time_type"`
	OffsetMinutes int       `json:"offset_minutes"`
	TimeMinutes   int       `json:"time_minutes"`
	TimeFormatted string    `json:"time_formatted"`
	PWMValues     []float64 `json:"pwm_values"`
	CurrentValues []float64 `json:"current_values"`
}

// AstronomicalTimesJSON is the read-only snapshot emitted on export; it is
// not applied on import (AstroEngine recomputes it from the clock).
type AstronomicalTimesJSON struct {
	SunriseMinutes      int `json:"sunrise_minutes"`
	SunsetMinutes       int `json:"sunset_minutes"`
	CivilDawnMinutes    int `json:"civil_dawn_minutes"`
	CivilDuskMinutes    int `json:"civil_dusk_minutes"`
	NauticalDawnMinutes int `json:"nautical_dawn_minutes"`
	NauticalDuskMinutes int `json:"nautical_dusk_minutes"`
	SolarNoonMinutes    int `json:"solar_noon_minutes"`
}

// MoonSimulationJSON mirrors the wire schema's moon_simulation object.
type MoonSimulationJSON struct {
	Enabled              bool      `json:"enabled"`
	PhaseScalingPWM      bool      `json:"phase_scaling_pwm"`
	PhaseScalingCurrent  bool      `json:"phase_scaling_current"`
	BaseIntensity        []float64 `json:"base_intensity"`
	BaseCurrent          []float64 `json:"base_current"`
	MinCurrentThreshold  float64   `json:"min_current_threshold"`
}

// TemperatureControlJSON mirrors the wire schema's temperature_control object.
type TemperatureControlJSON struct {
	TargetTempC         float64 `json:"target_temp_c"`
	KP                  float64 `json:"kp"`
	KI                  float64 `json:"ki"`
	KD                  float64 `json:"kd"`
	MinFanPWM           float64 `json:"min_fan_pwm"`
	MaxFanPWM           float64 `json:"max_fan_pwm"`
	FanUpdateIntervalMs int64   `json:"fan_update_interval_ms"`
	EmergencyTempC      float64 `json:"emergency_temp_c"`
	RecoveryTempC       float64 `json:"recovery_temp_c"`
	EmergencyDelayMs    int64   `json:"emergency_delay_ms"`
	SensorTimeoutMs     int64   `json:"sensor_timeout_ms"`
	TempFilterAlpha     float64 `json:"temp_filter_alpha"`
}

func timeTypeToString(t schedule.TimeType) string { return t.String() }

func timeTypeFromString(s string) schedule.TimeType {
	switch s {
	case "SUNRISE_REL":
		return schedule.SunriseRel
	case "SUNSET_REL":
		return schedule.SunsetRel
	case "SOLAR_NOON":
		return schedule.SolarNoon
	case "CIVIL_DAWN":
		return schedule.CivilDawn
	case "CIVIL_DUSK":
		return schedule.CivilDusk
	case "NAUTICAL_DAWN":
		return schedule.NauticalDawn
	case "NAUTICAL_DUSK":
		return schedule.NauticalDusk
	case "ASTRONOMICAL_DAWN":
		return schedule.AstronomicalDawn
	case "ASTRONOMICAL_DUSK":
		return schedule.AstronomicalDusk
	default:
		return schedule.Fixed
	}
}

func formatMinutes(m int) string {
	m = ((m % 1440) + 1440) % 1440
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// State is the in-memory mirror of everything the document persists, the
// shape internal/control.Loop mutates each tick.
type State struct {
	Channels  []schedule.ChannelConfig
	Schedule  []schedule.Point
	Moon      schedule.MoonSimulation
	Temp      thermal.Config

	Timezone         string
	TimezoneOffsetH  float64
	Location         astro.Location
	Projection       astro.Projection
	Enabled          bool
}

// Export serializes state into the wire Document, stamping
// astronomicalTimes and currentTimeMinutes as a read-only snapshot.
func Export(s State, times astro.Times, currentTimeMinutes int) Document {
	doc := Document{
		Version:     SupportedVersion,
		NumChannels: len(s.Channels),
		Timezone:    s.Timezone,
		TimezoneOffsetHours: s.TimezoneOffsetH,
		Latitude:    s.Location.Latitude,
		Longitude:   s.Location.Longitude,
		AstronomicalProjection: s.Projection.Enabled,
		TimeShiftHours:   s.Projection.ShiftHours,
		TimeShiftMinutes: s.Projection.ShiftMinutes,
		Enabled:          s.Enabled,
		CurrentTimeMinutes: currentTimeMinutes,
		AstronomicalTimes: AstronomicalTimesJSON{
			SunriseMinutes:      times.SunriseMinutes,
			SunsetMinutes:       times.SunsetMinutes,
			CivilDawnMinutes:    times.CivilDawnMinutes,
			CivilDuskMinutes:    times.CivilDuskMinutes,
			NauticalDawnMinutes: times.NauticalDawnMinutes,
			NauticalDuskMinutes: times.NauticalDuskMinutes,
			SolarNoonMinutes:    times.SolarNoonMinutes,
		},
		MoonSimulation: MoonSimulationJSON{
			Enabled:             s.Moon.Enabled,
			PhaseScalingPWM:     s.Moon.PhaseScalingPWM,
			PhaseScalingCurrent: s.Moon.PhaseScalingCurrent,
			BaseIntensity:       append([]float64(nil), s.Moon.BaseIntensityPWM...),
			BaseCurrent:         append([]float64(nil), s.Moon.BaseCurrent...),
			MinCurrentThreshold: s.Moon.MinCurrentThreshold,
		},
		TemperatureControl: TemperatureControlJSON{
			TargetTempC:         s.Temp.TargetC,
			KP:                  s.Temp.KP,
			KI:                  s.Temp.KI,
			KD:                  s.Temp.KD,
			MinFanPWM:           s.Temp.MinFanPWM,
			MaxFanPWM:           s.Temp.MaxFanPWM,
			FanUpdateIntervalMs: s.Temp.FanUpdateIntervalMs,
			EmergencyTempC:      s.Temp.EmergencyC,
			RecoveryTempC:       s.Temp.RecoveryC,
			EmergencyDelayMs:    s.Temp.EmergencyDelayMs,
			SensorTimeoutMs:     s.Temp.SensorTimeoutMs,
			TempFilterAlpha:     s.Temp.TempFilterAlpha,
		},
	}

	for _, c := range s.Channels {
		doc.ChannelConfigs = append(doc.ChannelConfigs, ChannelConfigJSON{
			Name: c.Name, RGBHex: c.RGBHex, MaxCurrent: c.MaxCurrent,
		})
	}
	astroTimes := scheduleAstroTimes(times)
	for _, p := range s.Schedule {
		// FIXED points keep their stored TimeMinutes; dynamic points are
		// resolved against today's times here rather than trusting a
		// stored field, since nothing else in the loop writes a dynamic
		// point's TimeMinutes back after resolution.
		minute := p.TimeMinutes
		if m, ok := schedule.ResolveMinute(p, astroTimes); ok {
			minute = m
		}
		doc.SchedulePoints = append(doc.SchedulePoints, SchedulePointJSON{
			TimeType:      timeTypeToString(p.TimeType),
			OffsetMinutes: p.OffsetMinutes,
			TimeMinutes:   minute,
			TimeFormatted: formatMinutes(minute),
			PWMValues:     append([]float64(nil), p.PWMValues...),
			CurrentValues: append([]float64(nil), p.CurrentValues...),
		})
	}
	return doc
}

// scheduleAstroTimes adapts astro.Times to the schedule package's own
// AstronomicalTimes shape, the same conversion internal/control.Loop does
// before calling schedule.Interpolate.
func scheduleAstroTimes(t astro.Times) schedule.AstronomicalTimes {
	return schedule.AstronomicalTimes{
		SunriseMinutes:          t.SunriseMinutes,
		SunsetMinutes:           t.SunsetMinutes,
		SolarNoonMinutes:        t.SolarNoonMinutes,
		CivilDawnMinutes:        t.CivilDawnMinutes,
		CivilDuskMinutes:        t.CivilDuskMinutes,
		NauticalDawnMinutes:     t.NauticalDawnMinutes,
		NauticalDuskMinutes:     t.NauticalDuskMinutes,
		AstronomicalDawnMinutes: t.AstronomicalDawnMinutes,
		AstronomicalDuskMinutes: t.AstronomicalDuskMinutes,
		MoonriseMinutes:         t.MoonriseMinutes,
		MoonsetMinutes:          t.MoonsetMinutes,
		MoonPhase:               t.MoonPhase,
		Valid:                   t.Valid,
	}
}

// Marshal serializes doc and enforces MaxDocumentBytes. A document over
// the bound is an input-validation error: the caller must not write it,
// and should log-and-skip the save.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal persisted document: %w", err)
	}
	if len(data) > MaxDocumentBytes {
		return nil, fmt.Errorf("persisted document is %d bytes, exceeds capacity %d", len(data), MaxDocumentBytes)
	}
	return data, nil
}

// Import applies a wire Document onto state in a fixed field order:
// channel configs, schedule points, moon simulation, astronomy config,
// temperature config, enabled flag. Astronomical_times is never applied;
// it is a read-only export-only snapshot. Import never triggers a save.
func Import(data []byte, into *State) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse persisted document: %w", err)
	}
	if doc.Version != SupportedVersion {
		return fmt.Errorf("unsupported persisted document version %d, want %d", doc.Version, SupportedVersion)
	}

	channels := make([]schedule.ChannelConfig, len(doc.ChannelConfigs))
	for i, c := range doc.ChannelConfigs {
		channels[i] = schedule.ChannelConfig{Name: c.Name, RGBHex: c.RGBHex, MaxCurrent: c.MaxCurrent}
	}
	into.Channels = channels

	points := make([]schedule.Point, len(doc.SchedulePoints))
	for i, p := range doc.SchedulePoints {
		points[i] = schedule.Point{
			TimeType:      timeTypeFromString(p.TimeType),
			OffsetMinutes: p.OffsetMinutes,
			TimeMinutes:   p.TimeMinutes,
			PWMValues:     append([]float64(nil), p.PWMValues...),
			CurrentValues: append([]float64(nil), p.CurrentValues...),
		}
	}
	into.Schedule = points

	into.Moon = schedule.MoonSimulation{
		Enabled:             doc.MoonSimulation.Enabled,
		PhaseScalingPWM:     doc.MoonSimulation.PhaseScalingPWM,
		PhaseScalingCurrent: doc.MoonSimulation.PhaseScalingCurrent,
		BaseIntensityPWM:    append([]float64(nil), doc.MoonSimulation.BaseIntensity...),
		BaseCurrent:         append([]float64(nil), doc.MoonSimulation.BaseCurrent...),
		MinCurrentThreshold: doc.MoonSimulation.MinCurrentThreshold,
	}

	into.Location = astro.Location{Latitude: doc.Latitude, Longitude: doc.Longitude}
	into.Projection = astro.Projection{
		Enabled:      doc.AstronomicalProjection,
		ShiftHours:   doc.TimeShiftHours,
		ShiftMinutes: doc.TimeShiftMinutes,
	}
	into.Timezone = doc.Timezone
	into.TimezoneOffsetH = doc.TimezoneOffsetHours

	into.Temp = thermal.Config{
		TargetC:             doc.TemperatureControl.TargetTempC,
		KP:                  doc.TemperatureControl.KP,
		KI:                  doc.TemperatureControl.KI,
		KD:                  doc.TemperatureControl.KD,
		MinFanPWM:           doc.TemperatureControl.MinFanPWM,
		MaxFanPWM:           doc.TemperatureControl.MaxFanPWM,
		FanUpdateIntervalMs: doc.TemperatureControl.FanUpdateIntervalMs,
		EmergencyC:          doc.TemperatureControl.EmergencyTempC,
		RecoveryC:           doc.TemperatureControl.RecoveryTempC,
		EmergencyDelayMs:    doc.TemperatureControl.EmergencyDelayMs,
		SensorTimeoutMs:     doc.TemperatureControl.SensorTimeoutMs,
		TempFilterAlpha:     doc.TemperatureControl.TempFilterAlpha,
	}

	into.Enabled = doc.Enabled

	return nil
}
