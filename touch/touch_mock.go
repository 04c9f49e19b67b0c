package touch

import (
	"context"
)

// TouchBehaviorFunc defines the function signature for touch behavior.
// It returns the set of touched pads or an error.
type TouchBehaviorFunc func(ctx context.Context) (Pad, error)

// MockTouchSensor is a mock implementation of a touch slider sensor that
// uses a behavior function to produce results without requiring hardware.
// This can be used to mock sensors like CAP1203.
type MockTouchSensor struct {
	behavior TouchBehaviorFunc
	latched  Pad
}

// NewMockTouchSensor creates a new mock touch sensor with the given behavior
// function. The behavior function is called whenever the touch state is read.
//
// Example usage:
//
//	sensor := NewMockTouchSensor(func(ctx context.Context) (touch.Pad, error) { return touch.PadLeft, nil })
func NewMockTouchSensor(behavior TouchBehaviorFunc) *MockTouchSensor {
	return &MockTouchSensor{behavior: behavior}
}

// CheckTouched returns the touched pad set by calling the behavior function.
// The simulated interrupt latch keeps previously reported pads until GetTouched clears it.
func (m *MockTouchSensor) CheckTouched(ctx context.Context) (Pad, error) {
	pads, err := m.behavior(ctx)
	if err != nil {
		return NoPads, err
	}
	m.latched |= pads
	return m.latched, nil
}

// GetTouched returns the touched pad set and clears the simulated latch.
func (m *MockTouchSensor) GetTouched(ctx context.Context) (Pad, error) {
	pads, err := m.CheckTouched(ctx)
	if err != nil {
		return NoPads, err
	}
	m.latched = NoPads
	return pads, nil
}

// IsTouched reports whether any pad is touched by calling the behavior function.
func (m *MockTouchSensor) IsTouched(ctx context.Context) (bool, error) {
	pads, err := m.CheckTouched(ctx)
	if err != nil {
		return false, err
	}
	return !pads.IsEmpty(), nil
}
