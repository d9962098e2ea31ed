package compare

import (
	"math"
	"testing"
)

func TestPositionAt(t *testing.T) {
	tests := []struct {
		name                 string
		pointer, left, width float64
		want                 float64
	}{
		{"left edge", 100, 100, 400, 0},
		{"left of container", 20, 100, 400, 0},
		{"right edge", 500, 100, 400, 100},
		{"right of container", 900, 100, 400, 100},
		{"middle", 300, 100, 400, 50},
		{"quarter", 200, 100, 400, 25},
		{"zero width", 150, 100, 0, 0},
		{"negative width", 150, 100, -10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PositionAt(tt.pointer, tt.left, tt.width); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PositionAt(%v, %v, %v) = %v, want %v", tt.pointer, tt.left, tt.width, got, tt.want)
			}
		})
	}
}

func TestPositionAtIsLinear(t *testing.T) {
	for x := 0.0; x <= 200; x += 12.5 {
		want := x / 200 * 100
		if got := PositionAt(x, 0, 200); math.Abs(got-want) > 1e-9 {
			t.Errorf("PositionAt(%v, 0, 200) = %v, want %v", x, got, want)
		}
	}
}

func TestSlider(t *testing.T) {
	s := NewSlider()
	if s.Position() != DefaultPosition {
		t.Fatalf("new slider position = %v, want %v", s.Position(), DefaultPosition)
	}
	if got := s.ClipWidth(); got != "50%" {
		t.Errorf("ClipWidth() = %q, want 50%%", got)
	}

	if got := s.Move(-5, 0, 100); got != 0 {
		t.Errorf("Move left of container = %v, want 0", got)
	}
	if got := s.Move(75, 0, 100); got != 75 {
		t.Errorf("Move(75) = %v, want 75", got)
	}
	if s.Position() != 75 {
		t.Errorf("Position() = %v, want 75", s.Position())
	}

	s.Reset()
	if s.Position() != DefaultPosition {
		t.Errorf("after Reset position = %v, want %v", s.Position(), DefaultPosition)
	}
}
