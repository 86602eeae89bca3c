package overlay

import "math"

// The helpers below never fail: anything the gesture recognizer hands us is
// folded into a valid model value.

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit clamps v into [0,1]. NaN maps to fallback (itself clamped).
func ClampUnit(v, fallback float64) float64 {
	if math.IsNaN(v) {
		if math.IsNaN(fallback) {
			return 0.5
		}
		return clamp(fallback, 0, 1)
	}
	return clamp(v, 0, 1)
}

func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1.0
	}
	return clamp(s, MinScale, MaxScale)
}

func ClampFontSize(size float64) float64 {
	if math.IsNaN(size) {
		return DefaultFontSize
	}
	return clamp(size, MinFontSize, MaxFontSize)
}

// NormalizeRotation wraps degrees into [0,360).
func NormalizeRotation(deg float64) float64 {
	if !finite(deg) {
		return 0
	}
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	// -0 and values like -1e-15 that round up to 360
	if r >= 360 || r == 0 {
		return 0
	}
	return r
}

// DampedScale applies a raw pinch zoom factor to scale.
// Non-finite or non-positive factors leave the scale unchanged.
func DampedScale(scale, zoom float64) float64 {
	if !finite(zoom) || zoom <= 0 {
		return ClampScale(scale)
	}
	return ClampScale(scale * (1 + (zoom-1)*PinchDamping))
}

// DampedRotation applies a raw rotation delta in degrees.
func DampedRotation(rotation, delta float64) float64 {
	if !finite(delta) {
		delta = 0
	}
	return NormalizeRotation(rotation + delta*RotationDamping)
}
