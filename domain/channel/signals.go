package channel

import "math"

// InputSignals are the live, normalized input samples for one evaluation
// (value type). Values outside [0,1] are clamped and NaN reads as 0.
type InputSignals struct {
	Pressure float64
	XTilt    float64
	YTilt    float64
	Angle    float64
	Speed    float64
}

// At returns the sanitized signal for a mapping slot.
func (s InputSignals) At(m MappingType) float64 {
	var v float64
	switch m {
	case MappingPressure:
		v = s.Pressure
	case MappingXTilt:
		v = s.XTilt
	case MappingYTilt:
		v = s.YTilt
	case MappingAngle:
		v = s.Angle
	case MappingSpeed:
		v = s.Speed
	}
	return sanitizeSignal(v)
}

// Sanitized returns a copy with every signal clamped into [0,1].
func (s InputSignals) Sanitized() InputSignals {
	return InputSignals{
		Pressure: sanitizeSignal(s.Pressure),
		XTilt:    sanitizeSignal(s.XTilt),
		YTilt:    sanitizeSignal(s.YTilt),
		Angle:    sanitizeSignal(s.Angle),
		Speed:    sanitizeSignal(s.Speed),
	}
}

func sanitizeSignal(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
