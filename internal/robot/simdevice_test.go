package robot

import (
	"sort"
	"testing"

	"github.com/halrobotics/wsrobot/internal/protocol"
)

func TestRegisterFieldDuplicate(t *testing.T) {
	dev := NewSimDevice("Ultrasonic", 0)

	if err := dev.RegisterField("distance", protocol.DirectionInput, NumberValue(0)); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := dev.RegisterField("distance", protocol.DirectionBidir, NumberValue(1)); err == nil {
		t.Fatal("duplicate registration should fail even with a different direction")
	}

	// The original registration must be untouched.
	if v, ok := dev.Value("distance"); !ok || v != NumberValue(0) {
		t.Errorf("Value(distance) = (%v, %v) after failed duplicate, want original default", v, ok)
	}
}

func TestValueRoundTripByNameAndIdent(t *testing.T) {
	dev := NewSimDevice("IMU", protocol.NoChannel)
	if err := dev.RegisterField("accelX", protocol.DirectionBidir, NumberValue(0)); err != nil {
		t.Fatalf("RegisterField: %v", err)
	}

	dev.SetValue("accelX", NumberValue(9.81))
	if v, ok := dev.Value("accelX"); !ok || v.Number != 9.81 {
		t.Errorf("Value by bare name = (%v, %v), want 9.81", v, ok)
	}
	if v, ok := dev.Value("<>accelX"); !ok || v.Number != 9.81 {
		t.Errorf("Value by prefixed ident = (%v, %v), want 9.81", v, ok)
	}

	dev.SetValue("<>accelX", NumberValue(-4.2))
	if v, _ := dev.Value("accelX"); v.Number != -4.2 {
		t.Errorf("SetValue by prefixed ident not visible by bare name: %v", v)
	}
}

func TestUnregisteredFieldAccess(t *testing.T) {
	dev := NewSimDevice("Empty", protocol.NoChannel)

	if _, ok := dev.Value("ghost"); ok {
		t.Error("Value on unregistered field should report a miss")
	}

	// SetValue on an unregistered field is a silent no-op.
	dev.SetValue("ghost", BoolValue(true))
	if _, ok := dev.Value("ghost"); ok {
		t.Error("SetValue must not create fields")
	}
}

func TestUpdateHookFires(t *testing.T) {
	dev := NewSimDevice("ADXRS450", 0)
	if err := dev.RegisterField("sensitivity", protocol.DirectionOutput, NumberValue(1)); err != nil {
		t.Fatalf("RegisterField: %v", err)
	}

	var gotName string
	var gotValue FieldValue
	dev.SetUpdateHook(func(name string, v FieldValue) {
		gotName = name
		gotValue = v
	})

	dev.SetValue("sensitivity", NumberValue(0.5))
	if gotName != "sensitivity" || gotValue.Number != 0.5 {
		t.Errorf("hook saw (%q, %v), want (sensitivity, 0.5)", gotName, gotValue)
	}

	// Hook must not fire for unregistered fields.
	gotName = ""
	dev.SetValue("unknown", NumberValue(1))
	if gotName != "" {
		t.Error("hook fired for a no-op write")
	}
}

func TestFieldIdents(t *testing.T) {
	dev := NewSimDevice("Mixed", 3)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("RegisterField: %v", err)
		}
	}
	must(dev.RegisterField("in", protocol.DirectionInput, BoolValue(false)))
	must(dev.RegisterField("out", protocol.DirectionOutput, NumberValue(0)))
	must(dev.RegisterField("both", protocol.DirectionBidir, StringValue("")))
	must(dev.RegisterField("plain", protocol.DirectionUnknown, BoolValue(true)))

	idents := dev.FieldIdents()
	sort.Strings(idents)
	want := []string{"<>both", "<out", ">in", "plain"}
	sort.Strings(want)

	if len(idents) != len(want) {
		t.Fatalf("FieldIdents() = %v, want %v", idents, want)
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Fatalf("FieldIdents() = %v, want %v", idents, want)
		}
	}

	if dev.Key() != "Mixed[3]" {
		t.Errorf("Key() = %q, want Mixed[3]", dev.Key())
	}
}

func TestFieldValueOf(t *testing.T) {
	tests := []struct {
		raw  any
		want FieldValue
	}{
		{true, BoolValue(true)},
		{3.5, NumberValue(3.5)},
		{7, NumberValue(7)},
		{"hi", StringValue("hi")},
		{nil, FieldValue{}},
	}
	for _, tt := range tests {
		if got := FieldValueOf(tt.raw); got != tt.want {
			t.Errorf("FieldValueOf(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
