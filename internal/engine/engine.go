// Package engine implements the channel/device synchronization core of the
// bridge. It owns all per-channel and per-device state, applies inbound
// protocol messages to the hardware abstraction, polls the abstraction on a
// fixed period to report changes outward, and handles lifecycle transitions.
//
// Everything runs on a single dispatch goroutine: inbound messages, session
// lifecycle events and poll ticks are serialized through one loop, so the
// state tables need no locking. Handlers must not block.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/protocol"
	"github.com/halrobotics/wsrobot/internal/robot"
	"github.com/halrobotics/wsrobot/internal/transport"
	"github.com/halrobotics/wsrobot/internal/units"
)

// Config tunes the engine. The poll interval and the counterpart's send
// cadence are deliberately independent knobs.
type Config struct {
	// PollInterval is the outbound polling period. Default 50ms, chosen to
	// stay under the counterpart's ~20ms inbound cadence while bounding
	// update latency.
	PollInterval time.Duration

	// NominalVoltage converts the battery percentage into a bus voltage.
	NominalVoltage float64

	// DSPacketTimeout is how long the driver-station message stream may
	// stall before the robot's packet-timeout hook fires.
	DSPacketTimeout time.Duration
}

const (
	defaultPollInterval    = 50 * time.Millisecond
	defaultNominalVoltage  = 12.0
	defaultDSPacketTimeout = time.Second
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.NominalVoltage <= 0 {
		c.NominalVoltage = defaultNominalVoltage
	}
	if c.DSPacketTimeout <= 0 {
		c.DSPacketTimeout = defaultDSPacketTimeout
	}
	return c
}

type dioMode int

const (
	dioUnconfigured dioMode = iota
	dioInput
	dioOutput
)

type dioState struct {
	mode  dioMode
	value bool
}

type analogInState struct {
	voltage float64
}

type analogOutState struct {
	voltage float64
}

type pwmState struct {
	neutral float64
	current float64
}

type encoderState struct {
	channelA int
	channelB int
	count    int32
}

type driverStation struct {
	enabled    bool
	autonomous bool
	test       bool
}

type accelCache struct {
	x, y, z float64
}

type gyroCache struct {
	rateX, rateY, rateZ    float64
	angleX, angleY, angleZ float64
}

type eventKind int

const (
	evMessage eventKind = iota
	evSessionOpened
	evSessionClosed
)

type engineEvent struct {
	kind eventKind
	msg  protocol.Message
}

type handlerFunc func(device string, data protocol.Payload)

// Engine is the synchronization core. Create with New, wire a transport and
// a robot, then Run. All exported methods except Status are only safe from
// the transport's delivery goroutines; Status may be read from anywhere.
type Engine struct {
	robot  robot.Robot
	tr     transport.Transport
	logger *zap.Logger
	cfg    Config

	// Closed dispatch table: message category -> handler.
	handlers map[protocol.MessageType]handlerFunc

	dios       map[int]*dioState
	analogIns  map[int]*analogInState
	analogOuts map[int]*analogOutState
	pwms       map[int]*pwmState
	encoders   map[int]*encoderState

	// Shadow caches for change detection, keyed by wire device identifier.
	// Distinct from the devices' own value stores, which the robot owns.
	deviceCache map[string]map[string]robot.FieldValue
	accelCaches map[string]*accelCache
	gyroCaches  map[string]*gyroCache

	ds         driverStation
	lastDS     time.Time
	dsTimedOut bool
	connected  bool
	ticks      uint64

	events chan engineEvent

	statusMu sync.RWMutex
	status   Snapshot
}

// New creates an engine bound to a robot and a transport. The transport is
// not attached until Run has observed both readiness signals.
func New(r robot.Robot, tr transport.Transport, cfg Config, logger *zap.Logger) *Engine {
	e := &Engine{
		robot:  r,
		tr:     tr,
		logger: logger,
		cfg:    cfg.withDefaults(),
		events: make(chan engineEvent, 256),
	}
	e.resetTables()

	e.handlers = map[protocol.MessageType]handlerFunc{
		protocol.MessageTypeDIO:           e.handleDIO,
		protocol.MessageTypeAnalogIn:      e.handleAnalogIn,
		protocol.MessageTypeAnalogOut:     e.handleAnalogOut,
		protocol.MessageTypePWM:           e.handlePWM,
		protocol.MessageTypeEncoder:       e.handleEncoder,
		protocol.MessageTypeDriverStation: e.handleDriverStation,
		protocol.MessageTypeSimDevice:     e.handleSimDevice,
		protocol.MessageTypeAccel:         e.handleAccel,
		protocol.MessageTypeGyro:          e.handleGyro,
	}

	return e
}

// Run starts the transport, waits for transport readiness and the robot's
// readiness signal, then attaches the dispatch table and polls until ctx is
// cancelled. No other engine operation may be invoked before Run has
// attached.
func (e *Engine) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.tr.Run(ctx) }()

	select {
	case <-e.tr.Ready():
	case err := <-errCh:
		return fmt.Errorf("transport failed before ready: %w", err)
	case <-ctx.Done():
		return nil
	}

	select {
	case <-e.robot.Ready():
	case err := <-errCh:
		return fmt.Errorf("transport failed before robot ready: %w", err)
	case <-ctx.Done():
		return nil
	}

	// Only now is it safe to act on behalf of the robot.
	e.tr.Attach(e)
	e.logger.Info("Engine running",
		zap.String("robot", e.robot.Descriptor()),
		zap.Duration("poll_interval", e.cfg.PollInterval))

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.publishStatus()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopped")
			return nil

		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("transport failed: %w", err)
			}
			return nil

		case ev := <-e.events:
			e.handleEvent(ev)
			e.publishStatus()

		case <-ticker.C:
			e.pollOnce()
			e.publishStatus()
		}
	}
}

// HandleMessage implements transport.MessageSink.
func (e *Engine) HandleMessage(msg protocol.Message) {
	e.enqueue(engineEvent{kind: evMessage, msg: msg})
}

// SessionOpened implements transport.MessageSink.
func (e *Engine) SessionOpened(id string) {
	e.enqueue(engineEvent{kind: evSessionOpened})
}

// SessionClosed implements transport.MessageSink.
func (e *Engine) SessionClosed(id string) {
	e.enqueue(engineEvent{kind: evSessionClosed})
}

func (e *Engine) enqueue(ev engineEvent) {
	select {
	case e.events <- ev:
	default:
		e.logger.Warn("Engine event queue full, dropping event",
			zap.String("type", string(ev.msg.Type)))
	}
}

func (e *Engine) handleEvent(ev engineEvent) {
	switch ev.kind {
	case evMessage:
		e.dispatch(ev.msg)
	case evSessionOpened:
		e.handleConnected()
	case evSessionClosed:
		e.handleDisconnected()
	}
}

func (e *Engine) dispatch(msg protocol.Message) {
	handler, ok := e.handlers[msg.Type]
	if !ok {
		e.logger.Debug("No handler for message category",
			zap.String("type", string(msg.Type)))
		return
	}
	handler(msg.Device, msg.Data)
}

// --- lifecycle ---

func (e *Engine) handleConnected() {
	e.connected = true
	e.logger.Info("Counterpart connected")

	if l, ok := e.robot.(robot.ConnectionListener); ok {
		l.RobotConnected()
	}
}

// handleDisconnected makes outputs safe, then forgets everything. A
// reconnect re-runs initialization from empty tables.
func (e *Engine) handleDisconnected() {
	for ch, st := range e.pwms {
		st.current = st.neutral
		e.robot.SetPWMValue(ch, st.neutral)
	}
	for ch := range e.encoders {
		e.robot.ResetEncoder(ch)
	}

	e.resetTables()
	e.ds = driverStation{}
	e.lastDS = time.Time{}
	e.dsTimedOut = false
	e.connected = false
	e.logger.Info("Counterpart disconnected, state cleared")

	if l, ok := e.robot.(robot.ConnectionListener); ok {
		l.RobotDisconnected()
	}
}

func (e *Engine) resetTables() {
	e.dios = make(map[int]*dioState)
	e.analogIns = make(map[int]*analogInState)
	e.analogOuts = make(map[int]*analogOutState)
	e.pwms = make(map[int]*pwmState)
	e.encoders = make(map[int]*encoderState)
	e.deviceCache = make(map[string]map[string]robot.FieldValue)
	e.accelCaches = make(map[string]*accelCache)
	e.gyroCaches = make(map[string]*gyroCache)
}

// --- inbound handlers ---

// Pre-init messages are dropped for every category, DIO included.

func (e *Engine) handleDIO(device string, data protocol.Payload) {
	ch, err := protocol.ChannelIndex(device)
	if err != nil {
		e.logger.Debug("Bad DIO channel", zap.String("device", device))
		return
	}

	if init, ok := data.Bool(protocol.KeyDIOInit); ok && init {
		if _, exists := e.dios[ch]; !exists {
			e.dios[ch] = &dioState{mode: dioUnconfigured}
		}
	}

	st, ok := e.dios[ch]
	if !ok {
		e.logger.Debug("Dropping message for uninitialized DIO channel",
			zap.Int("channel", ch))
		return
	}

	if input, ok := data.Bool(protocol.KeyDIOInput); ok {
		if input {
			st.mode = dioInput
		} else {
			st.mode = dioOutput
		}
		e.robot.SetDigitalDirection(ch, input)
	}

	// In input mode the hardware drives the line, not the protocol.
	if value, ok := data.Bool(protocol.KeyDIOValue); ok && st.mode == dioOutput {
		st.value = value
		e.robot.SetDigitalValue(ch, value)
	}
}

func (e *Engine) handleAnalogIn(device string, data protocol.Payload) {
	ch, err := protocol.ChannelIndex(device)
	if err != nil {
		e.logger.Debug("Bad AI channel", zap.String("device", device))
		return
	}

	// Pure output-from-hardware channel; only init is meaningful inbound.
	if init, ok := data.Bool(protocol.KeyAnalogInInit); ok && init {
		if _, exists := e.analogIns[ch]; !exists {
			e.analogIns[ch] = &analogInState{}
		}
	}
}

func (e *Engine) handleAnalogOut(device string, data protocol.Payload) {
	ch, err := protocol.ChannelIndex(device)
	if err != nil {
		e.logger.Debug("Bad AO channel", zap.String("device", device))
		return
	}

	if init, ok := data.Bool(protocol.KeyAnalogOutInit); ok && init {
		if _, exists := e.analogOuts[ch]; !exists {
			e.analogOuts[ch] = &analogOutState{}
		}
	}

	st, ok := e.analogOuts[ch]
	if !ok {
		e.logger.Debug("Dropping message for uninitialized AO channel",
			zap.Int("channel", ch))
		return
	}

	if voltage, ok := data.Float(protocol.KeyAnalogOutVoltage); ok {
		st.voltage = voltage
		e.robot.SetAnalogOutVoltage(ch, voltage)
	}
}

func (e *Engine) handlePWM(device string, data protocol.Payload) {
	ch, err := protocol.ChannelIndex(device)
	if err != nil {
		e.logger.Debug("Bad PWM channel", zap.String("device", device))
		return
	}

	if init, ok := data.Bool(protocol.KeyPWMInit); ok && init {
		if _, exists := e.pwms[ch]; !exists {
			e.pwms[ch] = &pwmState{neutral: units.PWMNeutral, current: units.PWMNeutral}
		}
	}

	st, ok := e.pwms[ch]
	if !ok {
		e.logger.Debug("Dropping message for uninitialized PWM channel",
			zap.Int("channel", ch))
		return
	}

	// Commands are only honored while the driver station is enabled.
	if !e.ds.enabled {
		return
	}

	// A message carries exactly one of speed, position or raw.
	var value float64
	var commanded bool
	if speed, ok := data.Float(protocol.KeyPWMSpeed); ok {
		value = units.SpeedToPWM(speed)
		commanded = true
	} else if position, ok := data.Float(protocol.KeyPWMPosition); ok {
		value = units.PositionToPWM(position)
		commanded = true
	} else if raw, ok := data.Float(protocol.KeyPWMRaw); ok {
		value = raw
		commanded = true
	}

	if commanded {
		st.current = value
		e.robot.SetPWMValue(ch, value)
	}
}

func (e *Engine) handleEncoder(device string, data protocol.Payload) {
	ch, err := protocol.ChannelIndex(device)
	if err != nil {
		e.logger.Debug("Bad encoder channel", zap.String("device", device))
		return
	}

	if init, ok := data.Bool(protocol.KeyEncoderInit); ok && init {
		chanA, okA := data.Int(protocol.KeyEncoderChannelA)
		chanB, okB := data.Int(protocol.KeyEncoderChannelB)
		if !okA || !okB {
			e.logger.Debug("Encoder init without quadrature channels",
				zap.Int("channel", ch))
		} else if _, exists := e.encoders[ch]; !exists {
			e.encoders[ch] = &encoderState{channelA: chanA, channelB: chanB}
			e.robot.RegisterEncoder(ch, chanA, chanB)
		}
	}

	st, ok := e.encoders[ch]
	if !ok {
		e.logger.Debug("Dropping message for uninitialized encoder channel",
			zap.Int("channel", ch))
		return
	}

	if reset, ok := data.Bool(protocol.KeyEncoderReset); ok && reset {
		st.count = 0
		e.robot.ResetEncoder(ch)
	}

	if reverse, ok := data.Bool(protocol.KeyEncoderReverse); ok {
		e.robot.SetEncoderReverseDirection(ch, reverse)
	}
}

func (e *Engine) handleDriverStation(device string, data protocol.Payload) {
	e.lastDS = time.Now()
	e.dsTimedOut = false

	if enabled, ok := data.Bool(protocol.KeyDSEnabled); ok && enabled != e.ds.enabled {
		e.ds.enabled = enabled
		if enabled {
			e.resumePWM()
			if l, ok := e.robot.(robot.EnableListener); ok {
				l.RobotEnabled()
			}
		} else {
			e.pausePWM()
			if l, ok := e.robot.(robot.EnableListener); ok {
				l.RobotDisabled()
			}
		}
	}

	// A change of autonomous or test is a mode transition: commanded
	// motion must not carry across it.
	if autonomous, ok := data.Bool(protocol.KeyDSAutonomous); ok && autonomous != e.ds.autonomous {
		e.ds.autonomous = autonomous
		e.neutralizePWM()
	}
	if test, ok := data.Bool(protocol.KeyDSTest); ok && test != e.ds.test {
		e.ds.test = test
		e.neutralizePWM()
	}
}

func (e *Engine) handleSimDevice(device string, data protocol.Payload) {
	name, ch := protocol.ParseDeviceKey(device)
	dev := e.robot.SimDevice(name, ch)
	if dev == nil {
		e.logger.Debug("Dropping message for unknown sim device",
			zap.String("device", device))
		return
	}

	for key, raw := range data {
		dev.SetValue(key, robot.FieldValueOf(raw))
	}
}

func (e *Engine) handleAccel(device string, data protocol.Payload) {
	name, ch := protocol.ParseDeviceKey(device)
	acc := e.robot.Accelerometer(name, ch)
	if acc == nil {
		e.logger.Debug("Dropping message for unknown accelerometer",
			zap.String("device", device))
		return
	}

	if init, ok := data.Bool(protocol.KeyDeviceInit); ok && init {
		if _, exists := e.accelCaches[device]; !exists {
			e.accelCaches[device] = &accelCache{}
		}
	}

	if _, live := e.accelCaches[device]; !live {
		e.logger.Debug("Dropping message for uninitialized accelerometer",
			zap.String("device", device))
		return
	}

	if r, ok := data.Float(protocol.KeyDeviceRange); ok {
		acc.SetRange(r)
	}
}

func (e *Engine) handleGyro(device string, data protocol.Payload) {
	name, ch := protocol.ParseDeviceKey(device)
	g := e.robot.Gyro(name, ch)
	if g == nil {
		e.logger.Debug("Dropping message for unknown gyro",
			zap.String("device", device))
		return
	}

	if init, ok := data.Bool(protocol.KeyDeviceInit); ok && init {
		if _, exists := e.gyroCaches[device]; !exists {
			e.gyroCaches[device] = &gyroCache{}
		}
	}

	if _, live := e.gyroCaches[device]; !live {
		e.logger.Debug("Dropping message for uninitialized gyro",
			zap.String("device", device))
		return
	}

	if r, ok := data.Float(protocol.KeyDeviceRange); ok {
		g.SetRange(r)
	}
}

// --- PWM safety ---

// pausePWM drives every channel to neutral but keeps the remembered command
// so an enable can restore it.
func (e *Engine) pausePWM() {
	for ch, st := range e.pwms {
		e.robot.SetPWMValue(ch, st.neutral)
	}
}

// resumePWM restores each channel's last commanded value.
func (e *Engine) resumePWM() {
	for ch, st := range e.pwms {
		e.robot.SetPWMValue(ch, st.current)
	}
}

// neutralizePWM forgets commanded values entirely.
func (e *Engine) neutralizePWM() {
	for ch, st := range e.pwms {
		st.current = st.neutral
		e.robot.SetPWMValue(ch, st.neutral)
	}
}

// --- outbound ---

func (e *Engine) send(t protocol.MessageType, device string, data protocol.Payload) {
	msg := protocol.Message{Type: t, Device: device, Data: data}
	if err := e.tr.Send(msg); err != nil {
		e.logger.Debug("Outbound message dropped",
			zap.String("type", string(t)),
			zap.Error(err))
	}
}

func channelDevice(ch int) string {
	return strconv.Itoa(ch)
}
