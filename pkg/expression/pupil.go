package expression

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point is a position in figure pixel space (origin top-left, y down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) vec() mgl64.Vec2 { return mgl64.Vec2{p.X, p.Y} }

func pointFromVec(v mgl64.Vec2) Point { return Point{X: v.X(), Y: v.Y()} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return pointFromVec(p.vec().Add(q.vec())) }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return pointFromVec(p.vec().Sub(q.vec())) }

// Scale returns p with both coordinates multiplied by f.
func (p Point) Scale(f float64) Point { return pointFromVec(p.vec().Mul(f)) }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return p.vec().Sub(q.vec()).Len() }

// ComputePupilOffset returns where a pupil should sit when its eye looks at
// pointer. The pupil travels toward the pointer but never further than
// maxRadius from eyeCenter. A negative radius pins the pupil to the centre.
func ComputePupilOffset(eyeCenter, pointer Point, maxRadius float64) Point {
	if maxRadius < 0 || math.IsNaN(maxRadius) {
		maxRadius = 0
	}

	dir := pointer.vec().Sub(eyeCenter.vec())
	angle := math.Atan2(dir.Y(), dir.X())
	dist := math.Min(maxRadius, dir.Len())
	if math.IsNaN(dist) {
		return eyeCenter
	}

	eye := eyeCenter.vec()
	unit := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
	p := eye.Add(unit.Mul(dist))
	// Rounding in the trig and the translation can land an ulp outside the
	// circle; pull back until the measured distance holds.
	for n := 0; n < 64; n++ {
		d := p.Sub(eye).Len()
		if d <= maxRadius {
			return pointFromVec(p)
		}
		dist = math.Nextafter(dist-(d-maxRadius), 0)
		p = eye.Add(unit.Mul(dist))
	}
	return eyeCenter
}
