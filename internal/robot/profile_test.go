package robot

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

const sampleProfile = `
name: testbot
devices:
  - name: arm
    channel: 1
    fields:
      - name: position
        direction: bidir
        type: number
        default: 0.5
      - name: label
        direction: unknown
        type: string
        default: front
  - name: claw
    fields:
      - name: open
        direction: in
        type: bool
accelerometers:
  - name: BuiltInAccel
    range: 8
gyros:
  - name: ADXRS450
    channel: 0
`

func TestProfileLoadAndBuild(t *testing.T) {
	loader, err := NewProfileLoader()
	if err != nil {
		t.Fatalf("NewProfileLoader: %v", err)
	}

	profile, err := loader.Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if profile.Name != "testbot" {
		t.Errorf("profile name = %q, want testbot", profile.Name)
	}

	r, err := BuildVirtualRobot(profile, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("BuildVirtualRobot: %v", err)
	}

	arm := r.SimDevice("arm", 1)
	if arm == nil {
		t.Fatal("device arm[1] not registered")
	}
	if v, ok := arm.Value("position"); !ok || v.Number != 0.5 {
		t.Errorf("arm position default = (%v, %v), want 0.5", v, ok)
	}

	claw := r.SimDevice("claw", protocol.NoChannel)
	if claw == nil {
		t.Fatal("channel-less device claw not registered")
	}

	if a := r.Accelerometer("BuiltInAccel", protocol.NoChannel); a == nil || a.Range() != 8 {
		t.Errorf("accelerometer = %+v, want range 8", a)
	}
	if g := r.Gyro("ADXRS450", 0); g == nil || g.Range() != 250 {
		t.Errorf("gyro = %+v, want default range 250", g)
	}
}

func TestProfileSchemaRejections(t *testing.T) {
	loader, err := NewProfileLoader()
	if err != nil {
		t.Fatalf("NewProfileLoader: %v", err)
	}

	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "devices: []"},
		{"bad direction", `
name: x
devices:
  - name: d
    fields:
      - {name: f, direction: sideways, type: bool}
`},
		{"bad field type", `
name: x
devices:
  - name: d
    fields:
      - {name: f, direction: in, type: blob}
`},
		{"device without fields", `
name: x
devices:
  - name: d
`},
		{"negative sensor range", `
name: x
gyros:
  - {name: g, range: -5}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loader.Parse([]byte(tt.yaml)); err == nil {
				t.Errorf("Parse accepted invalid profile:\n%s", tt.yaml)
			}
		})
	}
}

func TestBuildVirtualRobotDuplicateField(t *testing.T) {
	profile := &Profile{
		Name: "dup",
		Devices: []DeviceSpec{{
			Name: "d",
			Fields: []FieldSpec{
				{Name: "f", Direction: "in", Type: "bool"},
				{Name: "f", Direction: "out", Type: "bool"},
			},
		}},
	}

	if _, err := BuildVirtualRobot(profile, zaptest.NewLogger(t)); err == nil {
		t.Fatal("duplicate field registration should fail the build")
	}
}
