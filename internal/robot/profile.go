package robot

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

//go:embed schema/robot-profile-v1.json
var profileSchemaJSON string

// Profile describes the device layout of a virtual robot: simulated devices
// with their typed fields, accelerometers and gyros.
type Profile struct {
	Name           string       `yaml:"name"`
	Devices        []DeviceSpec `yaml:"devices"`
	Accelerometers []SensorSpec `yaml:"accelerometers"`
	Gyros          []SensorSpec `yaml:"gyros"`
}

type DeviceSpec struct {
	Name    string      `yaml:"name"`
	Channel *int        `yaml:"channel"`
	Fields  []FieldSpec `yaml:"fields"`
}

type FieldSpec struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"` // in | out | bidir | unknown
	Type      string `yaml:"type"`      // bool | number | string
	Default   any    `yaml:"default"`
}

type SensorSpec struct {
	Name    string   `yaml:"name"`
	Channel *int     `yaml:"channel"`
	Range   *float64 `yaml:"range"`
}

// ProfileLoader reads and validates YAML robot profiles against the embedded
// JSON schema before they are turned into devices.
type ProfileLoader struct {
	schema *jsonschema.Schema
}

// NewProfileLoader compiles the embedded schema.
func NewProfileLoader() (*ProfileLoader, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("robot-profile-v1.json",
		strings.NewReader(profileSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("robot-profile-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &ProfileLoader{schema: schema}, nil
}

// Load reads a profile file, validates it, and decodes it.
func (l *ProfileLoader) Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse validates and decodes raw profile YAML.
func (l *ProfileLoader) Parse(data []byte) (*Profile, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	// Round-trip through JSON so the schema validator sees canonical types.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize profile: %w", err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("failed to normalize profile: %w", err)
	}

	if err := l.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &profile, nil
}

// BuildVirtualRobot turns a validated profile into a populated VirtualRobot.
// Duplicate field names inside a device surface here as registration errors.
func BuildVirtualRobot(profile *Profile, logger *zap.Logger) (*VirtualRobot, error) {
	r := NewVirtualRobot(profile.Name, logger)

	for _, spec := range profile.Devices {
		dev := NewSimDevice(spec.Name, channelOf(spec.Channel))
		for _, f := range spec.Fields {
			dir, err := parseDirection(f.Direction)
			if err != nil {
				return nil, fmt.Errorf("device %s: %w", spec.Name, err)
			}
			def, err := defaultValue(f)
			if err != nil {
				return nil, fmt.Errorf("device %s: %w", spec.Name, err)
			}
			if err := dev.RegisterField(f.Name, dir, def); err != nil {
				return nil, err
			}
		}
		r.AddSimDevice(dev)
	}

	for _, spec := range profile.Accelerometers {
		r.AddAccelerometer(NewAccelerometer(spec.Name, channelOf(spec.Channel), rangeOf(spec.Range, 8)))
	}
	for _, spec := range profile.Gyros {
		r.AddGyro(NewGyro(spec.Name, channelOf(spec.Channel), rangeOf(spec.Range, 250)))
	}

	return r, nil
}

func channelOf(ch *int) int {
	if ch == nil {
		return protocol.NoChannel
	}
	return *ch
}

func rangeOf(r *float64, def float64) float64 {
	if r == nil {
		return def
	}
	return *r
}

func parseDirection(s string) (protocol.FieldDirection, error) {
	switch s {
	case "in":
		return protocol.DirectionInput, nil
	case "out":
		return protocol.DirectionOutput, nil
	case "bidir":
		return protocol.DirectionBidir, nil
	case "unknown", "":
		return protocol.DirectionUnknown, nil
	}
	return protocol.DirectionUnknown, fmt.Errorf("invalid field direction %q", s)
}

func defaultValue(f FieldSpec) (FieldValue, error) {
	switch f.Type {
	case "bool":
		v, _ := f.Default.(bool)
		return BoolValue(v), nil
	case "number":
		switch n := f.Default.(type) {
		case nil:
			return NumberValue(0), nil
		case float64:
			return NumberValue(n), nil
		case int:
			return NumberValue(float64(n)), nil
		}
		return FieldValue{}, fmt.Errorf("field %q: default is not a number", f.Name)
	case "string":
		v, _ := f.Default.(string)
		return StringValue(v), nil
	}
	return FieldValue{}, fmt.Errorf("field %q: invalid type %q", f.Name, f.Type)
}
