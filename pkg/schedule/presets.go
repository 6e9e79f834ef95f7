package schedule

// PresetName identifies one of the named recipes a user can apply to
// replace their schedule wholesale. Presets are data, not code paths.
type PresetName string

const (
	PresetSunriseSunset        PresetName = "sunrise_sunset"
	PresetDynamicSunriseSunset PresetName = "dynamic_sunrise_sunset"
	PresetFullSpectrum         PresetName = "full_spectrum"
	PresetSimple               PresetName = "simple"
	PresetDefault              PresetName = "default"
)

// Preset builds the literal point list for name, broadcast across
// channelCount channels at a flat intensity (real fixtures vary per
// channel, but the preset only needs to establish a sane starting curve;
// users retune per-channel values afterward).
func Preset(name PresetName, channelCount int) []Point {
	switch name {
	case PresetSunriseSunset:
		return fixedSunriseSunset(channelCount)
	case PresetDynamicSunriseSunset:
		return dynamicSunriseSunset(channelCount)
	case PresetFullSpectrum:
		return fullSpectrum(channelCount)
	case PresetSimple:
		return simple(channelCount)
	default:
		return defaultPreset(channelCount)
	}
}

func flat(channelCount int, pwm, current float64) ([]float64, []float64) {
	p := make([]float64, channelCount)
	c := make([]float64, channelCount)
	for i := range p {
		p[i] = pwm
		c[i] = current
	}
	return p, c
}

func fixedSunriseSunset(n int) []Point {
	offPWM, offCur := flat(n, 0, 0)
	peakPWM, peakCur := flat(n, 80, 1.5)
	return []Point{
		{TimeType: Fixed, TimeMinutes: 7 * 60, PWMValues: offPWM, CurrentValues: offCur},
		{TimeType: Fixed, TimeMinutes: 9 * 60, PWMValues: peakPWM, CurrentValues: peakCur},
		{TimeType: Fixed, TimeMinutes: 18 * 60, PWMValues: peakPWM, CurrentValues: peakCur},
		{TimeType: Fixed, TimeMinutes: 20 * 60, PWMValues: offPWM, CurrentValues: offCur},
	}
}

func dynamicSunriseSunset(n int) []Point {
	offPWM, offCur := flat(n, 0, 0)
	peakPWM, peakCur := flat(n, 85, 1.8)
	return []Point{
		{TimeType: SunriseRel, OffsetMinutes: -30, PWMValues: offPWM, CurrentValues: offCur},
		{TimeType: SunriseRel, OffsetMinutes: 60, PWMValues: peakPWM, CurrentValues: peakCur},
		{TimeType: SunsetRel, OffsetMinutes: -60, PWMValues: peakPWM, CurrentValues: peakCur},
		{TimeType: SunsetRel, OffsetMinutes: 30, PWMValues: offPWM, CurrentValues: offCur},
	}
}

func fullSpectrum(n int) []Point {
	offPWM, offCur := flat(n, 0, 0)
	dawnPWM, dawnCur := flat(n, 20, 0.3)
	midPWM, midCur := flat(n, 90, 2.0)
	duskPWM, duskCur := flat(n, 30, 0.4)
	return []Point{
		{TimeType: AstronomicalDawn, OffsetMinutes: 0, PWMValues: offPWM, CurrentValues: offCur},
		{TimeType: CivilDawn, OffsetMinutes: 0, PWMValues: dawnPWM, CurrentValues: dawnCur},
		{TimeType: SolarNoon, OffsetMinutes: 0, PWMValues: midPWM, CurrentValues: midCur},
		{TimeType: CivilDusk, OffsetMinutes: 0, PWMValues: duskPWM, CurrentValues: duskCur},
		{TimeType: AstronomicalDusk, OffsetMinutes: 0, PWMValues: offPWM, CurrentValues: offCur},
	}
}

func simple(n int) []Point {
	offPWM, offCur := flat(n, 0, 0)
	onPWM, onCur := flat(n, 75, 1.5)
	return []Point{
		{TimeType: Fixed, TimeMinutes: 8 * 60, PWMValues: onPWM, CurrentValues: onCur},
		{TimeType: Fixed, TimeMinutes: 20 * 60, PWMValues: offPWM, CurrentValues: offCur},
	}
}

func defaultPreset(n int) []Point {
	return dynamicSunriseSunset(n)
}
