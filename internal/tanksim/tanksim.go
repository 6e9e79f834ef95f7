// Package tanksim is the shared thermal model cmd/ledcore-sim and
// cmd/ledcore-monitor both drive their simulated temperature sensors
// with: a tank that drifts toward an ambient point at a rate set by the
// cooling fan's current PWM.
package tanksim

import "math/rand"

// AmbientC is the room temperature and BiasC is the tank's own heat load
// above it: with the fan off the tank drifts toward AmbientC+BiasC, and a
// fan at full speed lowers that target to AmbientC+0.4*BiasC.
const (
	AmbientC = 23.0
	BiasC    = 4.0
)

// Drift advances tankTemp one step given the fan's current RPM (out of a
// 3000 RPM ceiling, matching internal/drivers/sim.Fan's own scaling).
func Drift(tankTemp, fanRPM float64) float64 {
	fanFraction := fanRPM / 3000.0
	coolingRate := 0.02 + fanFraction*0.15
	target := AmbientC + BiasC*(1-fanFraction*0.6)
	tankTemp += (target - tankTemp) * coolingRate
	tankTemp += (rand.Float64() - 0.5) * 0.05
	return tankTemp
}
