package robot

import "github.com/halrobotics/wsrobot/internal/protocol"

// Accelerometer is a fixed-shape three-axis sensor. Unlike SimDevice it does
// not carry an open field set; the engine reads its axes directly and sets
// its range from the protocol side.
type Accelerometer struct {
	name    string
	channel int

	rangeG  float64
	x, y, z float64
}

// NewAccelerometer creates an accelerometer with the given measurement range
// in g. Pass protocol.NoChannel for sensors without a numeric channel.
func NewAccelerometer(name string, channel int, rangeG float64) *Accelerometer {
	return &Accelerometer{name: name, channel: channel, rangeG: rangeG}
}

func (a *Accelerometer) Name() string { return a.name }

func (a *Accelerometer) Channel() int { return a.channel }

// Key returns the wire device identifier.
func (a *Accelerometer) Key() string {
	return protocol.FormatDeviceKey(a.name, a.channel)
}

func (a *Accelerometer) Range() float64 { return a.rangeG }

// SetRange is driven only from the protocol side.
func (a *Accelerometer) SetRange(rangeG float64) { a.rangeG = rangeG }

func (a *Accelerometer) Acceleration() (x, y, z float64) { return a.x, a.y, a.z }

// SetAcceleration updates the axis readings reported on the next poll.
func (a *Accelerometer) SetAcceleration(x, y, z float64) {
	a.x, a.y, a.z = x, y, z
}

// Gyro is a fixed-shape sensor reporting rotation rate and accumulated angle
// on three axes, plus a configurable range.
type Gyro struct {
	name    string
	channel int

	rangeDPS               float64
	rateX, rateY, rateZ    float64
	angleX, angleY, angleZ float64
}

// NewGyro creates a gyro with the given range in degrees per second.
func NewGyro(name string, channel int, rangeDPS float64) *Gyro {
	return &Gyro{name: name, channel: channel, rangeDPS: rangeDPS}
}

func (g *Gyro) Name() string { return g.name }

func (g *Gyro) Channel() int { return g.channel }

// Key returns the wire device identifier.
func (g *Gyro) Key() string {
	return protocol.FormatDeviceKey(g.name, g.channel)
}

func (g *Gyro) Range() float64 { return g.rangeDPS }

// SetRange is driven only from the protocol side.
func (g *Gyro) SetRange(rangeDPS float64) { g.rangeDPS = rangeDPS }

func (g *Gyro) Rates() (x, y, z float64) { return g.rateX, g.rateY, g.rateZ }

func (g *Gyro) Angles() (x, y, z float64) { return g.angleX, g.angleY, g.angleZ }

// SetRates updates the rotation-rate readings reported on the next poll.
func (g *Gyro) SetRates(x, y, z float64) {
	g.rateX, g.rateY, g.rateZ = x, y, z
}

// SetAngles updates the accumulated-angle readings reported on the next poll.
func (g *Gyro) SetAngles(x, y, z float64) {
	g.angleX, g.angleY, g.angleZ = x, y, z
}
