package transform

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-5

func assertMatEqual(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	assertMatNear(t, want, got, tol)
}

func assertMatNear(t *testing.T, want, got mgl32.Mat4, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "element %d", i)
	}
}

// Closed-form matrices in column-major order, independent of mgl32 helpers.
func translation(x, y, z float32) mgl32.Mat4 {
	return mgl32.Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, x, y, z, 1}
}

func rotZ(a float64) mgl32.Mat4 {
	c, s := float32(math.Cos(a)), float32(math.Sin(a))
	return mgl32.Mat4{c, s, 0, 0, -s, c, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func rotY(a float64) mgl32.Mat4 {
	c, s := float32(math.Cos(a)), float32(math.Sin(a))
	return mgl32.Mat4{c, 0, -s, 0, 0, 1, 0, 0, s, 0, c, 0, 0, 0, 0, 1}
}

func rotX(a float64) mgl32.Mat4 {
	c, s := float32(math.Cos(a)), float32(math.Sin(a))
	return mgl32.Mat4{1, 0, 0, 0, 0, c, s, 0, 0, -s, c, 0, 0, 0, 0, 1}
}

func TestProjectionClosedForm(t *testing.T) {
	aspect := float32(16.0 / 9.0)
	f := float32(1 / math.Tan(45*math.Pi/180/2))
	nf := float32(1 / (0.1 - 100.0))

	want := mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (100 + 0.1) * nf, -1,
		0, 0, 2 * 100 * 0.1 * nf, 0,
	}
	assertMatEqual(t, want, Projection(aspect))
}

func TestModelViewAtZeroIsTranslationOnly(t *testing.T) {
	assertMatEqual(t, translation(0, 0, -6), ModelView(0, false))
	assertMatEqual(t, translation(0, 0, -6), ModelView(0, true))
}

func TestModelViewAtPi(t *testing.T) {
	want := mgl32.Mat4{
		-1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 0, -6, 1,
	}
	assertMatEqual(t, want, ModelView(math.Pi, false))
}

func TestModelViewCompositionOrder(t *testing.T) {
	for _, theta := range []float64{0.25, 1, math.Pi, 4.2} {
		want := translation(0, 0, -6).
			Mul4(rotZ(theta)).
			Mul4(rotY(theta * 0.7)).
			Mul4(rotX(theta * 0.3))
		assertMatEqual(t, want, ModelView(float32(theta), true))

		// Any other order gives a different matrix.
		swapped := translation(0, 0, -6).
			Mul4(rotX(theta * 0.3)).
			Mul4(rotY(theta * 0.7)).
			Mul4(rotZ(theta))
		assert.False(t, swapped.ApproxEqualThreshold(ModelView(float32(theta), true), tol), "theta %v", theta)
	}
}

func TestNormalMatrixIsInverseTranspose(t *testing.T) {
	mv := ModelView(1.3, true)
	n := NormalMatrix(mv)

	// N^T · M = I
	assertMatEqual(t, mgl32.Ident4(), n.Transpose().Mul4(mv))

	// For a rigid transform the 3x3 part equals the rotation itself.
	assert.True(t, n.Mat3().ApproxEqualThreshold(mv.Mat3(), tol))
}

func TestRotationAccumulates(t *testing.T) {
	tr := New(Options{MultiAxis: true})
	assert.Zero(t, tr.Rotation())

	steps := []time.Duration{
		16 * time.Millisecond,
		17 * time.Millisecond,
		0,
		-5 * time.Millisecond, // clock went backwards
		33 * time.Millisecond,
		time.Second,
	}

	var sum float64
	prev := tr.Rotation()
	for _, dt := range steps {
		f := tr.Step(dt, 1)
		if dt > 0 {
			sum += dt.Seconds()
		}
		assert.InDelta(t, sum, tr.Rotation(), 1e-12)
		assert.Equal(t, tr.Rotation(), f.Rotation)
		assert.GreaterOrEqual(t, tr.Rotation(), prev)
		prev = tr.Rotation()
	}
}

func TestLongSessionsMatchReducedAngle(t *testing.T) {
	// Ten hours in, the frame equals the one at the equivalent reduced angle.
	tr := New(Options{MultiAxis: true})
	tr.Step(10*time.Hour, 1)

	reduced := math.Mod(tr.Rotation(), 20*math.Pi)
	want := translation(0, 0, -6).
		Mul4(rotZ(reduced)).
		Mul4(rotY(reduced * 0.7)).
		Mul4(rotX(reduced * 0.3))
	assertMatNear(t, want, tr.Matrices(1).ModelView, 1e-4)
}

func TestFrameNormalOnlyWhenLit(t *testing.T) {
	f := New(Options{MultiAxis: true}).Step(time.Second, 1.5)
	assert.Equal(t, mgl32.Mat4{}, f.Normal)

	f = New(Options{MultiAxis: true, Lit: true}).Step(time.Second, 1.5)
	assertMatEqual(t, NormalMatrix(f.ModelView), f.Normal)
	assertMatEqual(t, Projection(1.5), f.Projection)
}
