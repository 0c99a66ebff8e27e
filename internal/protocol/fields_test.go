package protocol

import "testing"

func TestParseFieldIdent(t *testing.T) {
	tests := []struct {
		ident    string
		wantName string
		wantDir  FieldDirection
	}{
		{"<>accelX", "accelX", DirectionBidir},
		{">fieldIn", "fieldIn", DirectionInput},
		{"<fieldOut", "fieldOut", DirectionOutput},
		{"plainField", "plainField", DirectionUnknown},
		{"<>", "", DirectionBidir},
		{"<init", "init", DirectionOutput},
		{">vin_voltage", "vin_voltage", DirectionInput},
	}

	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			name, dir := ParseFieldIdent(tt.ident)
			if name != tt.wantName || dir != tt.wantDir {
				t.Errorf("ParseFieldIdent(%q) = (%q, %v), want (%q, %v)",
					tt.ident, name, dir, tt.wantName, tt.wantDir)
			}
		})
	}
}

func TestFieldIdentRoundTrip(t *testing.T) {
	for _, dir := range []FieldDirection{DirectionUnknown, DirectionInput, DirectionOutput, DirectionBidir} {
		ident := FieldIdent("sensitivity", dir)
		name, got := ParseFieldIdent(ident)
		if name != "sensitivity" || got != dir {
			t.Errorf("round trip of %v produced (%q, %v)", dir, name, got)
		}
	}
}

func TestDeviceKeyCodec(t *testing.T) {
	tests := []struct {
		name    string
		channel int
		encoded string
	}{
		{"Gyro", NoChannel, "Gyro"},
		{"ADXRS450", 0, "ADXRS450[0]"},
		{"DutyCycle", 12, "DutyCycle[12]"},
	}

	for _, tt := range tests {
		enc := FormatDeviceKey(tt.name, tt.channel)
		if enc != tt.encoded {
			t.Errorf("FormatDeviceKey(%q, %d) = %q, want %q", tt.name, tt.channel, enc, tt.encoded)
		}
		name, ch := ParseDeviceKey(enc)
		if name != tt.name || ch != tt.channel {
			t.Errorf("ParseDeviceKey(%q) = (%q, %d), want (%q, %d)", enc, name, ch, tt.name, tt.channel)
		}
	}
}

func TestParseDeviceKeyMalformedBracket(t *testing.T) {
	name, ch := ParseDeviceKey("weird[x]")
	if name != "weird[x]" || ch != NoChannel {
		t.Errorf("ParseDeviceKey(\"weird[x]\") = (%q, %d), want identity with no channel", name, ch)
	}
}

func TestPayloadAccessors(t *testing.T) {
	p := Payload{
		"<init":      true,
		">voltage":   3.3,
		"<channel_a": float64(4),
		"label":      "front-left",
	}

	if v, ok := p.Bool("<init"); !ok || !v {
		t.Errorf("Bool(<init) = (%v, %v), want (true, true)", v, ok)
	}
	if _, ok := p.Bool(">voltage"); ok {
		t.Error("Bool on numeric key should miss")
	}
	if v, ok := p.Float(">voltage"); !ok || v != 3.3 {
		t.Errorf("Float(>voltage) = (%v, %v), want (3.3, true)", v, ok)
	}
	if v, ok := p.Int("<channel_a"); !ok || v != 4 {
		t.Errorf("Int(<channel_a) = (%v, %v), want (4, true)", v, ok)
	}
	if _, ok := p.Float("missing"); ok {
		t.Error("Float on missing key should miss")
	}
}

func TestChannelIndex(t *testing.T) {
	if ch, err := ChannelIndex("7"); err != nil || ch != 7 {
		t.Errorf("ChannelIndex(\"7\") = (%d, %v), want (7, nil)", ch, err)
	}
	if _, err := ChannelIndex("front"); err == nil {
		t.Error("ChannelIndex(\"front\") should fail")
	}
}
