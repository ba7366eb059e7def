package systems

import "math"

const twoPi = 2 * math.Pi

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampInt clamps v into [0, n-1].
func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// floorInt floors a float32 to an int without going through float64.
func floorInt(v float32) int {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return i
}

// ceilInt is the ceiling counterpart of floorInt.
func ceilInt(v float32) int {
	i := int(v)
	if v > 0 && float32(i) != v {
		i++
	}
	return i
}

// wrapCoord wraps v into [0, size).
func wrapCoord(v, size float32) float32 {
	r := float32(math.Mod(float64(v), float64(size)))
	if r < 0 {
		r += size
	}
	// Rounding can land exactly on size for tiny negative inputs.
	if r >= size {
		r = 0
	}
	return r
}

func cosf(a float32) float32 { return float32(math.Cos(float64(a))) }
func sinf(a float32) float32 { return float32(math.Sin(float64(a))) }
