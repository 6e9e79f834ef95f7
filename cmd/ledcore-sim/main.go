// Command ledcore-sim runs the control loop against in-memory simulated
// drivers. There is no real aquarium hardware attached: the light driver
// just records commanded PWM/current, and the temperature sensors drift
// toward an ambient point modulated by the simulated fan, so the loop's
// thermal gate has something real to react to.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquareef/ledcore/internal/bootstrap"
	"github.com/aquareef/ledcore/internal/control"
	"github.com/aquareef/ledcore/internal/drivers/sim"
	"github.com/aquareef/ledcore/internal/events"
	"github.com/aquareef/ledcore/internal/persistence"
	"github.com/aquareef/ledcore/internal/tanksim"
	"github.com/aquareef/ledcore/pkg/config"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "path to configuration file")
	flag.Parse()

	log.Println("===========================================")
	log.Println("  LEDcore Aquarium Lighting Simulator")
	log.Println("===========================================")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded from: %s", *configPath)
	log.Printf("Observer: %.4f, %.4f (%s, UTC%+.1f)",
		cfg.Observer.Latitude, cfg.Observer.Longitude, cfg.Observer.Timezone, cfg.Observer.TimezoneOffsetH)
	log.Printf("Channels: %d, tick interval: %dms", len(cfg.Channels), cfg.TickIntervalMs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.Backend(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to construct persistence backend: %v", err)
	}
	log.Println("Persistence backend ready")

	bus := events.NewBus()
	logEvents(bus)

	store := persistence.NewStore(backend, bus)
	state := bootstrap.InitialState(cfg)
	store.Load(ctx, &state)

	clock := sim.NewClock(int(cfg.Observer.TimezoneOffsetH * 3600))
	pwm := sim.NewLightDriver()
	fan := sim.NewFan()
	sensors := sim.NewTemperatureSensors()
	tankTemp := tanksim.AmbientC + tanksim.BiasC
	for _, name := range cfg.Sensors {
		sensors.Push(name, tankTemp, time.Now().UnixMilli())
	}

	loop := control.New(control.Collaborators{
		Clock:      clock,
		PWM:        pwm,
		Current:    pwm,
		Fan:        fan,
		Sensors:    cfg.Sensors,
		TempSensor: sensors,
	}, bus, store, state)
	loop.MarkBootComplete(ctx)
	log.Println("Boot complete, entering tick loop")

	interval := time.Duration(cfg.TickIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			log.Println("Shutdown signal received, stopping")
			return
		case now := <-ticker.C:
			tick++
			simulateThermal(sensors, fan, &tankTemp, cfg.Sensors, now)
			loop.Tick(ctx)
			if tick%10 == 0 {
				logTickSummary(tick, pwm, fan, sensors, cfg.Sensors)
			}
		}
	}
}

// simulateThermal advances the shared tank thermal model and pushes the
// new reading into every configured sensor.
func simulateThermal(sensors *sim.TemperatureSensors, fan *sim.Fan, tankTemp *float64, names []string, now time.Time) {
	*tankTemp = tanksim.Drift(*tankTemp, fan.GetFanRPM())
	for _, name := range names {
		sensors.Push(name, *tankTemp, now.UnixMilli())
	}
}

func logTickSummary(tick int, pwm *sim.LightDriver, fan *sim.Fan, sensors *sim.TemperatureSensors, sensorNames []string) {
	snap := pwm.Snapshot()
	log.Printf("tick %d: %d channels live, fan=%.0f%% (%.0f RPM)", tick, len(snap), fan.GetFanRPM()/30, fan.GetFanRPM())
	for _, name := range sensorNames {
		r := sensors.Read(name)
		if r.Valid {
			log.Printf("  sensor %s: %.2fC", name, r.Celsius)
		}
	}
}

func logEvents(bus *events.Bus) {
	ch, _ := bus.Subscribe(8)
	go func() {
		for ev := range ch {
			log.Printf("event: %s %s", ev.Kind, ev.Detail)
		}
	}()
}
