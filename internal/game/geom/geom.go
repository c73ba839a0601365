// Package geom provides the 2D vector math and arena bounds used by the battle
// engine.
package geom

import "math"

// Arena bounds. Every unit position is clamped into [0, Width] x [0, Height].
const (
	Width  = 1000.0
	Height = 400.0
)

// Vec2 is a point or direction on the battlefield.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(k float64) Vec2 { return Vec2{a.X * k, a.Y * k} }
func (a Vec2) Dot(b Vec2) float64 { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64 { return math.Hypot(a.X, a.Y) }
func (a Vec2) Dist(b Vec2) float64 { return a.Sub(b).Len() }
func (a Vec2) Perp() Vec2 { return Vec2{-a.Y, a.X} }
func (a Vec2) Equal(b Vec2) bool { return a.X == b.X && a.Y == b.Y }
func (a Vec2) Lerp(b Vec2, t float64) Vec2 { return a.Add(b.Sub(a).Scale(t)) }

// Norm returns the unit vector of a, or the zero vector when a has no length.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Clamp returns p limited to the arena rectangle.
//
// Postcondition: 0 <= X <= Width and 0 <= Y <= Height.
func Clamp(p Vec2) Vec2 {
	return Vec2{X: clamp(p.X, 0, Width), Y: clamp(p.Y, 0, Height)}
}

// InArena reports whether p lies inside the arena rectangle, borders included.
func InArena(p Vec2) bool {
	return p.X >= 0 && p.X <= Width && p.Y >= 0 && p.Y <= Height
}

// Project returns the position of p along the segment from a to b, measured as
// distance from a, and the perpendicular distance from p to the infinite line
// through a and b.
//
// When a == b, along is 0 and off is the distance from a to p.
func Project(a, b, p Vec2) (along, off float64) {
	dir := b.Sub(a)
	l := dir.Len()
	if l == 0 {
		return 0, a.Dist(p)
	}
	u := dir.Scale(1 / l)
	rel := p.Sub(a)
	along = rel.Dot(u)
	off = math.Abs(rel.Dot(u.Perp()))
	return along, off
}

// Toward moves from p toward target by at most step units, never overshooting.
func Toward(p, target Vec2, step float64) Vec2 {
	d := p.Dist(target)
	if d <= step || d == 0 {
		return target
	}
	return p.Add(target.Sub(p).Scale(step / d))
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
