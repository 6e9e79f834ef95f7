// Package pid implements a bounded PID controller with anti-windup and
// derivative-on-measurement, used by pkg/thermal to drive fan PWM from a
// filtered temperature reading.
package pid

// Controller is a standalone, bounded PID. It holds no notion of wall
// clock; callers supply the elapsed time for each Compute call.
type Controller struct {
	KP, KI, KD   float64
	OutMin       float64
	OutMax       float64
	Target       float64

	integral   float64
	lastMeas   float64
	lastOutput float64
	firstRun   bool
}

// New returns a controller ready to run, with its first-run flag set so
// the first Compute call produces zero derivative (no kick on setpoint
// step).
func New(kp, ki, kd, outMin, outMax, target float64) *Controller {
	return &Controller{
		KP: kp, KI: ki, KD: kd,
		OutMin: outMin, OutMax: outMax,
		Target:   target,
		firstRun: true,
	}
}

// Compute advances the controller by dtMs milliseconds given measurement x,
// returning the bounded output. dtMs == 0 returns the last output
// unchanged, since there is nothing to integrate or differentiate over a
// zero interval.
func (c *Controller) Compute(x float64, dtMs int64) float64 {
	if dtMs == 0 {
		return c.lastOutput
	}

	dtS := float64(dtMs) / 1000.0
	e := c.Target - x

	c.integral += e * dtS
	if c.KI > 0 {
		bound := (c.OutMax - c.OutMin) / c.KI
		if c.integral > bound {
			c.integral = bound
		}
		if c.integral < -bound {
			c.integral = -bound
		}
	}

	var derivative float64
	if !c.firstRun {
		derivative = -(x - c.lastMeas) / dtS
	}
	c.firstRun = false

	out := c.KP*e + c.KI*c.integral + c.KD*derivative
	if out > c.OutMax {
		out = c.OutMax
	}
	if out < c.OutMin {
		out = c.OutMin
	}

	c.lastMeas = x
	c.lastOutput = out

	return out
}

// Reset zeros the integral accumulator, the stored measurement, and the
// last output, and sets the first-run flag again, as if the controller had
// just been constructed.
func (c *Controller) Reset() {
	c.integral = 0
	c.lastMeas = 0
	c.lastOutput = 0
	c.firstRun = true
}

// SetLimits updates the output bounds and immediately reclamps the current
// output and integral accumulator so a tightened range takes effect without
// waiting for the next Compute call to wind down.
func (c *Controller) SetLimits(outMin, outMax float64) {
	c.OutMin = outMin
	c.OutMax = outMax

	if c.lastOutput > outMax {
		c.lastOutput = outMax
	}
	if c.lastOutput < outMin {
		c.lastOutput = outMin
	}

	if c.KI > 0 {
		bound := (outMax - outMin) / c.KI
		if c.integral > bound {
			c.integral = bound
		}
		if c.integral < -bound {
			c.integral = -bound
		}
	}
}
