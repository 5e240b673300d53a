// Package transform computes the per-frame projection, model-view and
// normal matrices from an accumulated rotation angle.
package transform

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Fixed camera parameters.
const (
	FieldOfView = 45.0 // degrees, vertical
	Near        = 0.1
	Far         = 100.0
	Distance    = -6.0 // camera offset along Z

	YFactor = 0.7
	XFactor = 0.3
)

// Joint period of all rotation axes: θ, 0.7θ and 0.3θ are all whole turns
// again at θ = 20π.
const (
	singleAxisPeriod = 2 * math.Pi
	multiAxisPeriod  = 20 * math.Pi
)

// Options selects the variant-specific parts of the transform.
type Options struct {
	MultiAxis bool // also rotate around Y and X
	Lit       bool // derive the normal matrix
}

// Frame holds the matrices for one rendered frame.
type Frame struct {
	Projection mgl32.Mat4
	ModelView  mgl32.Mat4
	Normal     mgl32.Mat4 // zero unless Options.Lit
	Rotation   float64    // accumulated angle in radians
}

// Projection returns the perspective matrix for the given aspect ratio.
func Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(FieldOfView), aspect, Near, Far)
}

// ModelView returns identity · T(0,0,-6) · Rz(θ) [· Ry(0.7θ) · Rx(0.3θ)].
// The order is fixed; each rotation is applied in the frame of the previous one.
func ModelView(theta float32, multiAxis bool) mgl32.Mat4 {
	mv := mgl32.Ident4().
		Mul4(mgl32.Translate3D(0, 0, Distance)).
		Mul4(mgl32.HomogRotate3DZ(theta))
	if multiAxis {
		mv = mv.
			Mul4(mgl32.HomogRotate3DY(theta * YFactor)).
			Mul4(mgl32.HomogRotate3DX(theta * XFactor))
	}
	return mv
}

// NormalMatrix returns the inverse-transpose of a model-view matrix.
func NormalMatrix(modelView mgl32.Mat4) mgl32.Mat4 {
	return modelView.Inv().Transpose()
}

// Transformer owns the rotation accumulator of one session.
type Transformer struct {
	opts     Options
	rotation float64
}

// New returns a transformer with rotation 0.
func New(opts Options) *Transformer {
	return &Transformer{opts: opts}
}

// Rotation returns the accumulated angle: the sum of every elapsed
// interval passed to Step, in seconds.
func (t *Transformer) Rotation() float64 {
	return t.rotation
}

// Options returns the transformer's variant options.
func (t *Transformer) Options() Options {
	return t.opts
}

// Step advances the rotation by elapsed and computes the frame matrices for
// the given aspect ratio. Negative intervals are ignored so the angle never
// decreases.
func (t *Transformer) Step(elapsed time.Duration, aspect float32) Frame {
	if elapsed > 0 {
		t.rotation += elapsed.Seconds()
	}
	return t.Matrices(aspect)
}

// Matrices computes the frame matrices for the current rotation without
// advancing it.
func (t *Transformer) Matrices(aspect float32) Frame {
	f := Frame{
		Projection: Projection(aspect),
		ModelView:  ModelView(t.angle(), t.opts.MultiAxis),
		Rotation:   t.rotation,
	}
	if t.opts.Lit {
		f.Normal = NormalMatrix(f.ModelView)
	}
	return f
}

// angle reduces the accumulator by the joint period before narrowing to
// float32, so late frames keep full trigonometric precision.
func (t *Transformer) angle() float32 {
	period := singleAxisPeriod
	if t.opts.MultiAxis {
		period = multiAxisPeriod
	}
	return float32(math.Mod(t.rotation, period))
}
