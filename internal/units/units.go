// Package units provides value-range conversion between the normalized
// command domains used on the wire and the raw domains the hardware
// abstraction expects.
package units

// PWM value domain exposed by the hardware abstraction.
const (
	PWMMin     = 0.0
	PWMMax     = 255.0
	PWMNeutral = (PWMMax - PWMMin) / 2 // 127.5, no movement
)

// Map performs a linear transform of value from [inMin, inMax] to
// [outMin, outMax]. No clamping: values outside the input range
// extrapolate linearly.
func Map(value, inMin, inMax, outMin, outMax float64) float64 {
	return outMin + (value-inMin)*(outMax-outMin)/(inMax-inMin)
}

// SpeedToPWM converts a normalized speed in [-1, 1] to the PWM domain.
func SpeedToPWM(speed float64) float64 {
	return Map(speed, -1, 1, PWMMin, PWMMax)
}

// PositionToPWM converts a normalized position in [0, 1] to the PWM domain.
func PositionToPWM(position float64) float64 {
	return Map(position, 0, 1, PWMMin, PWMMax)
}
