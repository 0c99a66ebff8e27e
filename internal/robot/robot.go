// Package robot defines the hardware-capability contract driven by the
// synchronization engine, the simulated-device field registry, and a virtual
// in-process implementation used for development and tests.
//
// Implementations are exclusively owned by a single engine instance and all
// calls are synchronous; a slow implementation stalls the whole engine.
package robot

// Robot is the mandatory hardware surface. Getters answer from the current
// hardware state; setters apply immediately. None of the methods return
// errors: a hardware fault is an implementation concern and must be handled
// (or panicked) inside the implementation.
type Robot interface {
	// Descriptor names the robot for logs and the status API.
	Descriptor() string

	// Ready is closed once the implementation has finished its own setup.
	// The engine attaches no handlers and starts no polling before then.
	Ready() <-chan struct{}

	SetDigitalDirection(channel int, input bool)
	SetDigitalValue(channel int, value bool)
	DigitalValue(channel int) bool

	SetAnalogOutVoltage(channel int, voltage float64)
	AnalogInVoltage(channel int) float64

	// SetPWMValue receives values already converted to the raw PWM domain
	// [0, 255]; 127.5 is neutral.
	SetPWMValue(channel int, value float64)

	RegisterEncoder(channel, channelA, channelB int)
	EncoderCount(channel int) int32
	EncoderPeriod(channel int) float64
	ResetEncoder(channel int)
	SetEncoderReverseDirection(channel int, reverse bool)

	// BatteryPercentage reports charge in (0, 1]. A non-positive value
	// means no battery sensor is present and suppresses voltage reporting.
	BatteryPercentage() float64

	SimDevices() []*SimDevice
	SimDevice(name string, channel int) *SimDevice

	Accelerometers() []*Accelerometer
	Accelerometer(name string, channel int) *Accelerometer

	Gyros() []*Gyro
	Gyro(name string, channel int) *Gyro
}

// Optional lifecycle hooks. Implementations provide only the interfaces they
// care about; the engine discovers them by type assertion and skips the rest.

// ConnectionListener is notified of transport session lifecycle.
type ConnectionListener interface {
	RobotConnected()
	RobotDisconnected()
}

// EnableListener is notified when the driver station enables or disables
// the robot.
type EnableListener interface {
	RobotEnabled()
	RobotDisabled()
}

// PacketTimeoutListener is notified when the driver-station message stream
// stalls past the configured threshold.
type PacketTimeoutListener interface {
	DSPacketTimeout()
}
