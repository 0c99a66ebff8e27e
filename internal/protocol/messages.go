// Package protocol defines the message envelope and payload conventions of
// the simulated-hardware WebSocket protocol: category tags, direction-prefixed
// payload keys and the device identifier encoding.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// MessageType tags a message with its hardware category. The set is closed;
// unknown tags are dropped by the receive loop.
type MessageType string

const (
	MessageTypeDIO           MessageType = "DIO"
	MessageTypeAnalogIn      MessageType = "AI"
	MessageTypeAnalogOut     MessageType = "AO"
	MessageTypePWM           MessageType = "PWM"
	MessageTypeEncoder       MessageType = "Encoder"
	MessageTypeDriverStation MessageType = "DriverStation"
	MessageTypeRoboRIO       MessageType = "RoboRIO"
	MessageTypeSimDevice     MessageType = "SimDevice"
	MessageTypeAccel         MessageType = "Accel"
	MessageTypeGyro          MessageType = "Gyro"
)

// Payload key constants. The direction prefix encodes which side originates
// writes: ">" flows toward the robot code, "<" away from it, "<>" both.
const (
	KeyDIOInit  = "<init"
	KeyDIOInput = "<input"
	KeyDIOValue = "<>value"

	KeyAnalogInInit    = "<init"
	KeyAnalogInVoltage = ">voltage"

	KeyAnalogOutInit    = "<init"
	KeyAnalogOutVoltage = "<voltage"

	KeyPWMInit     = "<init"
	KeyPWMSpeed    = "<speed"
	KeyPWMPosition = "<position"
	KeyPWMRaw      = "<raw"

	KeyEncoderInit     = "<init"
	KeyEncoderChannelA = "<channel_a"
	KeyEncoderChannelB = "<channel_b"
	KeyEncoderReset    = "<reset"
	KeyEncoderReverse  = "<reverse_direction"
	KeyEncoderCount    = ">count"
	KeyEncoderPeriod   = ">period"

	KeyDSEnabled    = ">enabled"
	KeyDSAutonomous = ">autonomous"
	KeyDSTest       = ">test"

	KeyRIOVinVoltage = ">vin_voltage"

	KeyDeviceInit  = "<init"
	KeyDeviceRange = "<range"

	KeyAccelX = ">x"
	KeyAccelY = ">y"
	KeyAccelZ = ">z"

	KeyGyroRateX  = ">rate_x"
	KeyGyroRateY  = ">rate_y"
	KeyGyroRateZ  = ">rate_z"
	KeyGyroAngleX = ">angle_x"
	KeyGyroAngleY = ">angle_y"
	KeyGyroAngleZ = ">angle_z"
)

// Message is the wire envelope. Data carries only the keys present in the
// original message; outbound messages carry only changed keys.
type Message struct {
	Type   MessageType `json:"type"`
	Device string      `json:"device"`
	Data   Payload     `json:"data"`
}

// Payload is the loosely-typed message body as decoded from JSON.
type Payload map[string]any

// Bool reads a boolean payload key.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p[key].(bool)
	return v, ok
}

// Float reads a numeric payload key. JSON numbers decode as float64 but
// locally-constructed payloads may carry int values.
func (p Payload) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

// Int reads an integer payload key.
func (p Payload) Int(key string) (int, bool) {
	f, ok := p.Float(key)
	return int(f), ok
}

// ChannelIndex parses the device identifier of a channel-indexed category
// (DIO, AI, AO, PWM, Encoder) into its integer channel.
func ChannelIndex(device string) (int, error) {
	ch, err := strconv.Atoi(device)
	if err != nil {
		return 0, fmt.Errorf("invalid channel identifier %q: %w", device, err)
	}
	return ch, nil
}

// NoChannel marks a named device that carries no numeric channel.
const NoChannel = -1

// FormatDeviceKey encodes a (name, channel) device identifier. A device
// without a channel is encoded as its bare name, otherwise as "name[ch]".
func FormatDeviceKey(name string, channel int) string {
	if channel == NoChannel {
		return name
	}
	return fmt.Sprintf("%s[%d]", name, channel)
}

// ParseDeviceKey decodes a device identifier produced by FormatDeviceKey.
func ParseDeviceKey(device string) (name string, channel int) {
	if !strings.HasSuffix(device, "]") {
		return device, NoChannel
	}
	open := strings.LastIndex(device, "[")
	if open < 0 {
		return device, NoChannel
	}
	ch, err := strconv.Atoi(device[open+1 : len(device)-1])
	if err != nil {
		return device, NoChannel
	}
	return device[:open], ch
}
