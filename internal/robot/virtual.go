package robot

import (
	"go.uber.org/zap"
)

type deviceKey struct {
	name    string
	channel int
}

// VirtualRobot is an in-process Robot implementation backed entirely by
// internal state. It drives no physical hardware: writes land in maps and
// reads answer from them, which makes it the robot of choice for the bridge
// binary's simulation mode and for tests. Inputs (digital input lines,
// analog-in voltages, encoder counts, battery charge) are fed through the
// Feed* setters.
type VirtualRobot struct {
	name   string
	logger *zap.Logger
	ready  chan struct{}

	dioInput  map[int]bool
	dioValues map[int]bool

	analogIn  map[int]float64
	analogOut map[int]float64

	pwm map[int]float64

	encoders map[int]*virtualEncoder

	battery float64

	devices map[deviceKey]*SimDevice
	accels  map[deviceKey]*Accelerometer
	gyros   map[deviceKey]*Gyro

	connected bool
	enabled   bool
}

type virtualEncoder struct {
	channelA int
	channelB int
	count    int32
	period   float64
	reversed bool
}

// NewVirtualRobot creates an empty virtual robot that is immediately ready.
func NewVirtualRobot(name string, logger *zap.Logger) *VirtualRobot {
	ready := make(chan struct{})
	close(ready)

	return &VirtualRobot{
		name:      name,
		logger:    logger,
		ready:     ready,
		dioInput:  make(map[int]bool),
		dioValues: make(map[int]bool),
		analogIn:  make(map[int]float64),
		analogOut: make(map[int]float64),
		pwm:       make(map[int]float64),
		encoders:  make(map[int]*virtualEncoder),
		devices:   make(map[deviceKey]*SimDevice),
		accels:    make(map[deviceKey]*Accelerometer),
		gyros:     make(map[deviceKey]*Gyro),
	}
}

func (r *VirtualRobot) Descriptor() string { return r.name }

func (r *VirtualRobot) Ready() <-chan struct{} { return r.ready }

func (r *VirtualRobot) SetDigitalDirection(channel int, input bool) {
	r.dioInput[channel] = input
}

func (r *VirtualRobot) SetDigitalValue(channel int, value bool) {
	r.dioValues[channel] = value
}

func (r *VirtualRobot) DigitalValue(channel int) bool {
	return r.dioValues[channel]
}

func (r *VirtualRobot) SetAnalogOutVoltage(channel int, voltage float64) {
	r.analogOut[channel] = voltage
}

func (r *VirtualRobot) AnalogInVoltage(channel int) float64 {
	return r.analogIn[channel]
}

// AnalogOutVoltage reports the last written analog output voltage.
func (r *VirtualRobot) AnalogOutVoltage(channel int) float64 {
	return r.analogOut[channel]
}

func (r *VirtualRobot) SetPWMValue(channel int, value float64) {
	r.pwm[channel] = value
}

// PWMValue reports the last commanded raw PWM value.
func (r *VirtualRobot) PWMValue(channel int) float64 {
	return r.pwm[channel]
}

func (r *VirtualRobot) RegisterEncoder(channel, channelA, channelB int) {
	r.encoders[channel] = &virtualEncoder{channelA: channelA, channelB: channelB}
}

func (r *VirtualRobot) EncoderCount(channel int) int32 {
	if enc, ok := r.encoders[channel]; ok {
		return enc.count
	}
	return 0
}

func (r *VirtualRobot) EncoderPeriod(channel int) float64 {
	if enc, ok := r.encoders[channel]; ok {
		return enc.period
	}
	return 0
}

func (r *VirtualRobot) ResetEncoder(channel int) {
	if enc, ok := r.encoders[channel]; ok {
		enc.count = 0
	}
}

func (r *VirtualRobot) SetEncoderReverseDirection(channel int, reverse bool) {
	if enc, ok := r.encoders[channel]; ok {
		enc.reversed = reverse
	}
}

// EncoderReversed reports whether the encoder counts in reverse.
func (r *VirtualRobot) EncoderReversed(channel int) bool {
	if enc, ok := r.encoders[channel]; ok {
		return enc.reversed
	}
	return false
}

// HasEncoder reports whether an encoder was registered on the channel.
func (r *VirtualRobot) HasEncoder(channel int) bool {
	_, ok := r.encoders[channel]
	return ok
}

func (r *VirtualRobot) BatteryPercentage() float64 { return r.battery }

func (r *VirtualRobot) SimDevices() []*SimDevice {
	out := make([]*SimDevice, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

func (r *VirtualRobot) SimDevice(name string, channel int) *SimDevice {
	return r.devices[deviceKey{name, channel}]
}

func (r *VirtualRobot) Accelerometers() []*Accelerometer {
	out := make([]*Accelerometer, 0, len(r.accels))
	for _, a := range r.accels {
		out = append(out, a)
	}
	return out
}

func (r *VirtualRobot) Accelerometer(name string, channel int) *Accelerometer {
	return r.accels[deviceKey{name, channel}]
}

func (r *VirtualRobot) Gyros() []*Gyro {
	out := make([]*Gyro, 0, len(r.gyros))
	for _, g := range r.gyros {
		out = append(out, g)
	}
	return out
}

func (r *VirtualRobot) Gyro(name string, channel int) *Gyro {
	return r.gyros[deviceKey{name, channel}]
}

// AddSimDevice registers a simulated device. Later additions with the same
// (name, channel) replace the earlier device.
func (r *VirtualRobot) AddSimDevice(d *SimDevice) {
	r.devices[deviceKey{d.Name(), d.Channel()}] = d
}

// AddAccelerometer registers an accelerometer.
func (r *VirtualRobot) AddAccelerometer(a *Accelerometer) {
	r.accels[deviceKey{a.Name(), a.Channel()}] = a
}

// AddGyro registers a gyro.
func (r *VirtualRobot) AddGyro(g *Gyro) {
	r.gyros[deviceKey{g.Name(), g.Channel()}] = g
}

// FeedDigitalInput simulates a digital input line changing level.
func (r *VirtualRobot) FeedDigitalInput(channel int, value bool) {
	r.dioValues[channel] = value
}

// FeedAnalogInput simulates an analog input voltage.
func (r *VirtualRobot) FeedAnalogInput(channel int, voltage float64) {
	r.analogIn[channel] = voltage
}

// FeedEncoder simulates quadrature movement on a registered encoder.
func (r *VirtualRobot) FeedEncoder(channel int, count int32, period float64) {
	if enc, ok := r.encoders[channel]; ok {
		enc.count = count
		enc.period = period
	}
}

// FeedBattery simulates the battery charge fraction in (0, 1]. Zero or
// negative means no battery sensor.
func (r *VirtualRobot) FeedBattery(percentage float64) {
	r.battery = percentage
}

// Lifecycle hooks: the virtual robot tracks session and enable state so the
// bridge binary can log transitions.

func (r *VirtualRobot) RobotConnected() {
	r.connected = true
	if r.logger != nil {
		r.logger.Info("Virtual robot connected", zap.String("robot", r.name))
	}
}

func (r *VirtualRobot) RobotDisconnected() {
	r.connected = false
	if r.logger != nil {
		r.logger.Info("Virtual robot disconnected", zap.String("robot", r.name))
	}
}

func (r *VirtualRobot) RobotEnabled() {
	r.enabled = true
	if r.logger != nil {
		r.logger.Info("Virtual robot enabled", zap.String("robot", r.name))
	}
}

func (r *VirtualRobot) RobotDisabled() {
	r.enabled = false
	if r.logger != nil {
		r.logger.Info("Virtual robot disabled", zap.String("robot", r.name))
	}
}
