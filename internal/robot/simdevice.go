package robot

import (
	"fmt"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

// FieldKind enumerates the closed set of scalar types a simulated-device
// field may hold.
type FieldKind int

const (
	FieldBool FieldKind = iota
	FieldNumber
	FieldString
)

func (k FieldKind) String() string {
	switch k {
	case FieldBool:
		return "bool"
	case FieldNumber:
		return "number"
	case FieldString:
		return "string"
	}
	return "invalid"
}

// FieldValue is a tagged scalar. The zero value is boolean false. Values are
// comparable, which the engine relies on for change detection.
type FieldValue struct {
	Kind   FieldKind
	Bool   bool
	Number float64
	Str    string
}

// BoolValue wraps a boolean field value.
func BoolValue(v bool) FieldValue { return FieldValue{Kind: FieldBool, Bool: v} }

// NumberValue wraps a numeric field value.
func NumberValue(v float64) FieldValue { return FieldValue{Kind: FieldNumber, Number: v} }

// StringValue wraps a string field value.
func StringValue(v string) FieldValue { return FieldValue{Kind: FieldString, Str: v} }

// Wire returns the plain scalar for JSON encoding.
func (v FieldValue) Wire() any {
	switch v.Kind {
	case FieldNumber:
		return v.Number
	case FieldString:
		return v.Str
	}
	return v.Bool
}

// FieldValueOf converts a decoded JSON scalar into a FieldValue. Unsupported
// types map to boolean false.
func FieldValueOf(raw any) FieldValue {
	switch v := raw.(type) {
	case bool:
		return BoolValue(v)
	case float64:
		return NumberValue(v)
	case int:
		return NumberValue(float64(v))
	case string:
		return StringValue(v)
	}
	return FieldValue{}
}

// UpdateHook reacts to a field write on a device, e.g. a gyro adjusting an
// internal sensitivity parameter when its "range" field changes. The hook
// runs before the value is stored.
type UpdateHook func(name string, value FieldValue)

// SimDevice is the per-device field registry. Fields are keyed by their
// direction-prefixed wire identifier; registration is immutable and a
// duplicate name is a programming error in the robot implementation.
//
// A SimDevice is not safe for concurrent use; per the engine's single
// dispatch goroutine contract it never needs to be.
type SimDevice struct {
	name    string
	channel int

	fields  map[string]FieldValue // prefixed ident -> value
	idents  map[string]string     // bare name -> prefixed ident
	onWrite UpdateHook
}

// NewSimDevice creates an empty device registry. Pass protocol.NoChannel for
// devices without a numeric channel.
func NewSimDevice(name string, channel int) *SimDevice {
	return &SimDevice{
		name:    name,
		channel: channel,
		fields:  make(map[string]FieldValue),
		idents:  make(map[string]string),
	}
}

func (d *SimDevice) Name() string { return d.name }

func (d *SimDevice) Channel() int { return d.channel }

// Key returns the wire device identifier, e.g. "Ultrasonic[2]".
func (d *SimDevice) Key() string {
	return protocol.FormatDeviceKey(d.name, d.channel)
}

// SetUpdateHook installs the device-specific write reaction.
func (d *SimDevice) SetUpdateHook(hook UpdateHook) { d.onWrite = hook }

// RegisterField declares a field with a fixed direction and default value.
// Registering the same name twice is an error regardless of direction.
func (d *SimDevice) RegisterField(name string, dir protocol.FieldDirection, def FieldValue) error {
	if _, exists := d.idents[name]; exists {
		return fmt.Errorf("device %s: field %q already registered", d.Key(), name)
	}
	ident := protocol.FieldIdent(name, dir)
	d.idents[name] = ident
	d.fields[ident] = def
	return nil
}

// Value resolves a field by bare name or prefixed identifier.
func (d *SimDevice) Value(nameOrIdent string) (FieldValue, bool) {
	ident, ok := d.resolve(nameOrIdent)
	if !ok {
		return FieldValue{}, false
	}
	return d.fields[ident], true
}

// SetValue resolves a field by bare name or prefixed identifier and stores
// the value. Writes to unregistered fields are a no-op. The update hook, if
// any, fires on every successful write.
func (d *SimDevice) SetValue(nameOrIdent string, value FieldValue) {
	ident, ok := d.resolve(nameOrIdent)
	if !ok {
		return
	}
	if d.onWrite != nil {
		name, _ := protocol.ParseFieldIdent(ident)
		d.onWrite(name, value)
	}
	d.fields[ident] = value
}

// FieldIdents lists all registered direction-prefixed identifiers. Order is
// not significant.
func (d *SimDevice) FieldIdents() []string {
	idents := make([]string, 0, len(d.fields))
	for ident := range d.fields {
		idents = append(idents, ident)
	}
	return idents
}

func (d *SimDevice) resolve(nameOrIdent string) (string, bool) {
	name, _ := protocol.ParseFieldIdent(nameOrIdent)
	ident, ok := d.idents[name]
	return ident, ok
}
