// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"math"

	"github.com/chewxy/math32"
)

// Vec2f is a 2D vector of reals, used for position, velocity, and
// desired velocity.
type Vec2f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v Vec2f) Add(other Vec2f) Vec2f {
	return Vec2f{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2f) Sub(other Vec2f) Vec2f {
	return Vec2f{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2f) Mul(factor float32) Vec2f {
	return Vec2f{X: v.X * factor, Y: v.Y * factor}
}

func (v Vec2f) AddScaled(other Vec2f, factor float32) Vec2f {
	return Vec2f{X: v.X + other.X*factor, Y: v.Y + other.Y*factor}
}

func (v Vec2f) Length() float32 {
	return math32.Hypot(v.X, v.Y)
}

func (v Vec2f) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y
}

// ManhattanDistance is |dx| + |dy|, the cheap upper bound on Euclidean
// distance the Interest Manager (C5) uses instead of sqrt.
func (v Vec2f) ManhattanDistance(other Vec2f) float32 {
	return math32.Abs(v.X-other.X) + math32.Abs(v.Y-other.Y)
}

// Norm returns the unit vector in the direction of v, or the zero vector
// if v is (near) zero length.
func (v Vec2f) Norm() Vec2f {
	length := v.Length()
	if length < Epsilon {
		return Vec2f{}
	}
	return v.Mul(1.0 / length)
}

// ClampedToMagnitude scales v down (never up) so its length is at most max.
func (v Vec2f) ClampedToMagnitude(max float32) Vec2f {
	length := v.Length()
	if length <= max || length < Epsilon {
		return v
	}
	return v.Mul(max / length)
}

func (v Vec2f) Round2() Vec2f {
	return Vec2f{X: round2(v.X), Y: round2(v.Y)}
}

func round2(f float32) float32 {
	// Scale in float32 first, so a float32 that reads as a halfway value
	// (such as -0.005) rounds away from zero as its decimal form does.
	return float32(math.Round(float64(float32(f*100))) / 100)
}

// Epsilon is the movement fidelity floor used throughout the simulation
// step (spec's ε = 0.01): below this, velocities/diffs snap to zero.
const Epsilon = 0.01
