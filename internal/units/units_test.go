package units

import (
	"math"
	"testing"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name                   string
		value                  float64
		inMin, inMax           float64
		outMin, outMax         float64
		want                   float64
	}{
		{"speed zero to midpoint", 0, -1, 1, 0, 255, 127.5},
		{"speed full reverse", -1, -1, 1, 0, 255, 0},
		{"speed full forward", 1, -1, 1, 0, 255, 255},
		{"position full", 1, 0, 1, 0, 255, 255},
		{"position zero", 0, 0, 1, 0, 255, 0},
		{"position half", 0.5, 0, 1, 0, 255, 127.5},
		{"identity", 42, 0, 100, 0, 100, 42},
		{"inverted output range", 0.25, 0, 1, 255, 0, 191.25},
		{"extrapolates above", 2, -1, 1, 0, 255, 382.5},
		{"extrapolates below", -2, -1, 1, 0, 255, -127.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(tt.value, tt.inMin, tt.inMax, tt.outMin, tt.outMax)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Map(%v, %v, %v, %v, %v) = %v, want %v",
					tt.value, tt.inMin, tt.inMax, tt.outMin, tt.outMax, got, tt.want)
			}
		})
	}
}

func TestSpeedToPWM(t *testing.T) {
	if got := SpeedToPWM(0); got != PWMNeutral {
		t.Errorf("SpeedToPWM(0) = %v, want neutral %v", got, PWMNeutral)
	}
	if got := SpeedToPWM(-1); got != PWMMin {
		t.Errorf("SpeedToPWM(-1) = %v, want %v", got, PWMMin)
	}
	if got := SpeedToPWM(1); got != PWMMax {
		t.Errorf("SpeedToPWM(1) = %v, want %v", got, PWMMax)
	}
}

func TestPositionToPWM(t *testing.T) {
	if got := PositionToPWM(1); got != PWMMax {
		t.Errorf("PositionToPWM(1) = %v, want %v", got, PWMMax)
	}
	if got := PositionToPWM(0.5); got != PWMNeutral {
		t.Errorf("PositionToPWM(0.5) = %v, want %v", got, PWMNeutral)
	}
}
