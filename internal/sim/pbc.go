package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Wrap folds v back into [0, box) by a single box length. Values more than
// one box away stay outside and are caught by the bounds check.
func Wrap(v, box float64) float64 {
	if v < 0 {
		return v + box
	}
	if v >= box {
		return v - box
	}
	return v
}

func WrapVec(v r3.Vec, box float64) r3.Vec {
	return r3.Vec{X: Wrap(v.X, box), Y: Wrap(v.Y, box), Z: Wrap(v.Z, box)}
}

// Image returns the periodic image of v0 closest to v.
func Image(v0, v, box float64) float64 {
	d := v - v0
	if math.Abs(d) <= box/2 {
		return v0
	}
	if d < 0 {
		return v0 - box
	}
	return v0 + box
}

// MinImage folds a coordinate difference into [-box/2, box/2].
func MinImage(d, box float64) float64 {
	if d > box/2 {
		return d - box
	}
	if d < -box/2 {
		return d + box
	}
	return d
}

// Separation is the minimum-image vector pointing from a to b.
func Separation(a, b r3.Vec, box float64) r3.Vec {
	return r3.Vec{
		X: MinImage(b.X-a.X, box),
		Y: MinImage(b.Y-a.Y, box),
		Z: MinImage(b.Z-a.Z, box),
	}
}

func Dist2(a, b r3.Vec, box float64) float64 {
	return r3.Norm2(Separation(a, b, box))
}

func InBox(v r3.Vec, box float64) bool {
	return v.X >= 0 && v.X < box && v.Y >= 0 && v.Y < box && v.Z >= 0 && v.Z < box
}

// IntPow raises x to a non-negative integer power by binary decomposition.
func IntPow(x float64, n int) float64 {
	result := 1.0
	for n > 0 {
		if n&1 == 1 {
			result *= x
		}
		x *= x
		n >>= 1
	}
	return result
}
