// Command ledcore-monitor is a live terminal dashboard for a control
// loop. It boots the same way cmd/ledcore-sim does, against simulated
// drivers, but instead of logging tick summaries it attaches a tview
// dashboard so a human can watch the schedule, astronomy, and thermal
// state update in real time and drive the scheduler interactively.
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

	logFile, err := os.OpenFile("ledcore-monitor.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.Backend(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to construct persistence backend: %v", err)
	}

	bus := events.NewBus()
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

	app := NewApp(ctx, loop)

	eventCh, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()
	go func() {
		for ev := range eventCh {
			kind := ev.Kind
			app.tviewApp.QueueUpdateDraw(func() {
				app.events.Add(LevelWarn, "%s", kind)
			})
		}
	}()

	interval := time.Duration(cfg.TickIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				app.tviewApp.Stop()
				return
			case now := <-ticker.C:
				tankTemp = tanksim.Drift(tankTemp, fan.GetFanRPM())
				for _, name := range cfg.Sensors {
					sensors.Push(name, tankTemp, now.UnixMilli())
				}
				loop.Tick(ctx)
				app.Refresh(loop.Snapshot())
			}
		}
	}()

	if err := app.Run(); err != nil {
		log.Fatalf("dashboard error: %v", err)
	}
}
