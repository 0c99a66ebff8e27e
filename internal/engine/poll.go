package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/halrobotics/wsrobot/internal/protocol"
	"github.com/halrobotics/wsrobot/internal/robot"
)

// pollOnce reads the hardware abstraction and reports outward. Digital
// inputs, analog inputs and encoders are emitted unconditionally every tick;
// sim devices and accel/gyro sensors are diffed against their shadow caches
// and emitted only on change.
func (e *Engine) pollOnce() {
	e.ticks++
	e.checkDSTimeout()

	for ch, st := range e.dios {
		if st.mode != dioInput {
			continue
		}
		value := e.robot.DigitalValue(ch)
		st.value = value
		e.send(protocol.MessageTypeDIO, channelDevice(ch), protocol.Payload{
			protocol.KeyDIOValue: value,
		})
	}

	for ch, st := range e.analogIns {
		voltage := e.robot.AnalogInVoltage(ch)
		st.voltage = voltage
		e.send(protocol.MessageTypeAnalogIn, channelDevice(ch), protocol.Payload{
			protocol.KeyAnalogInVoltage: voltage,
		})
	}

	for ch, st := range e.encoders {
		count := e.robot.EncoderCount(ch)
		period := e.robot.EncoderPeriod(ch)
		st.count = count
		e.send(protocol.MessageTypeEncoder, channelDevice(ch), protocol.Payload{
			protocol.KeyEncoderCount:  count,
			protocol.KeyEncoderPeriod: period,
		})
	}

	e.pollBattery()
	e.pollSimDevices()
	e.pollAccelerometers()
	e.pollGyros()
}

// checkDSTimeout fires the robot's packet-timeout hook when the driver
// station message stream stalls. It latches until the next DS message.
func (e *Engine) checkDSTimeout() {
	if !e.connected || e.dsTimedOut || e.lastDS.IsZero() {
		return
	}
	if time.Since(e.lastDS) < e.cfg.DSPacketTimeout {
		return
	}

	e.dsTimedOut = true
	e.logger.Warn("Driver station packet timeout",
		zap.Duration("threshold", e.cfg.DSPacketTimeout))
	if l, ok := e.robot.(robot.PacketTimeoutListener); ok {
		l.DSPacketTimeout()
	}
}

// pollBattery derives a bus voltage from the battery charge. A non-positive
// percentage means no battery sensor is present and suppresses the message.
func (e *Engine) pollBattery() {
	percentage := e.robot.BatteryPercentage()
	if percentage <= 0 {
		return
	}
	e.send(protocol.MessageTypeRoboRIO, "", protocol.Payload{
		protocol.KeyRIOVinVoltage: percentage * e.cfg.NominalVoltage,
	})
}

// pollSimDevices diffs every declared field of every registered device
// against the shadow cache. A field is staged on first observation or on
// change, and only when its direction is bidirectional or input-to-code;
// output-from-code fields originated on the protocol side and are never
// echoed back. All staged fields of a device flush as one message.
func (e *Engine) pollSimDevices() {
	for _, dev := range e.robot.SimDevices() {
		key := dev.Key()
		cache, ok := e.deviceCache[key]
		if !ok {
			cache = make(map[string]robot.FieldValue)
			e.deviceCache[key] = cache
		}

		staged := protocol.Payload{}
		for _, ident := range dev.FieldIdents() {
			_, dir := protocol.ParseFieldIdent(ident)
			if dir != protocol.DirectionBidir && dir != protocol.DirectionInput {
				continue
			}

			value, _ := dev.Value(ident)
			if cached, seen := cache[ident]; seen && cached == value {
				continue
			}
			cache[ident] = value
			staged[ident] = value.Wire()
		}

		if len(staged) > 0 {
			e.send(protocol.MessageTypeSimDevice, key, staged)
		}
	}
}

func (e *Engine) pollAccelerometers() {
	for _, acc := range e.robot.Accelerometers() {
		cache, ok := e.accelCaches[acc.Key()]
		if !ok {
			continue
		}

		x, y, z := acc.Acceleration()
		staged := protocol.Payload{}
		if x != cache.x {
			cache.x = x
			staged[protocol.KeyAccelX] = x
		}
		if y != cache.y {
			cache.y = y
			staged[protocol.KeyAccelY] = y
		}
		if z != cache.z {
			cache.z = z
			staged[protocol.KeyAccelZ] = z
		}

		if len(staged) > 0 {
			e.send(protocol.MessageTypeAccel, acc.Key(), staged)
		}
	}
}

func (e *Engine) pollGyros() {
	for _, g := range e.robot.Gyros() {
		cache, ok := e.gyroCaches[g.Key()]
		if !ok {
			continue
		}

		staged := protocol.Payload{}
		rx, ry, rz := g.Rates()
		if rx != cache.rateX {
			cache.rateX = rx
			staged[protocol.KeyGyroRateX] = rx
		}
		if ry != cache.rateY {
			cache.rateY = ry
			staged[protocol.KeyGyroRateY] = ry
		}
		if rz != cache.rateZ {
			cache.rateZ = rz
			staged[protocol.KeyGyroRateZ] = rz
		}

		ax, ay, az := g.Angles()
		if ax != cache.angleX {
			cache.angleX = ax
			staged[protocol.KeyGyroAngleX] = ax
		}
		if ay != cache.angleY {
			cache.angleY = ay
			staged[protocol.KeyGyroAngleY] = ay
		}
		if az != cache.angleZ {
			cache.angleZ = az
			staged[protocol.KeyGyroAngleZ] = az
		}

		if len(staged) > 0 {
			e.send(protocol.MessageTypeGyro, g.Key(), staged)
		}
	}
}
