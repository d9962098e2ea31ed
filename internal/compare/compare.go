// Package compare implements the before/after reveal slider geometry.
//
// The transformed image is drawn as the background and the original image is
// clipped to the left Position percent of the container. The page script
// mirrors PositionAt for live pointer tracking; the server uses this package
// to render the initial state.
package compare

import "fmt"

const (
	MinPosition     = 0.0
	MaxPosition     = 100.0
	DefaultPosition = 50.0
)

// PositionAt converts a pointer x coordinate into a reveal position in
// [0, 100]. A container without width yields MinPosition.
func PositionAt(pointerX, containerLeft, containerWidth float64) float64 {
	if containerWidth <= 0 {
		return MinPosition
	}
	return clamp((pointerX - containerLeft) / containerWidth * 100)
}

func clamp(v float64) float64 {
	if v != v {
		return MinPosition
	}
	if v < MinPosition {
		return MinPosition
	}
	if v > MaxPosition {
		return MaxPosition
	}
	return v
}

// Slider keeps the current reveal position. The zero value is not ready; use NewSlider.
type Slider struct {
	position float64
}

func NewSlider() *Slider {
	return &Slider{position: DefaultPosition}
}

func (s *Slider) Position() float64 {
	return s.position
}

// Move recomputes the position from a pointer event and returns it.
func (s *Slider) Move(pointerX, containerLeft, containerWidth float64) float64 {
	s.position = PositionAt(pointerX, containerLeft, containerWidth)
	return s.position
}

// Reset puts the divider back in the middle, as on remount.
func (s *Slider) Reset() {
	s.position = DefaultPosition
}

// ClipWidth is the CSS width of the clipped original image layer.
func (s *Slider) ClipWidth() string {
	return fmt.Sprintf("%g%%", s.position)
}
