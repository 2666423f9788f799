package stacker

import(
	"fmt"

	"gonum.org/v1/gonum/mat"

	"starstack/pkg/emath"
)

// Transforms only invert when |det| is at least this
const singularDet = 1e-10

// An AffineTransform maps new-frame coordinates into reference-frame
// coordinates:
//
//	x' = A*x + B*y + Tx
//	y' = C*x + D*y + Ty
type AffineTransform struct {
	A, B, C, D, Tx, Ty float64
}

func (t AffineTransform)Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.Tx, t.C*x + t.D*y + t.Ty
}

// Invert returns the reference->new mapping, or ErrSingularTransform
// when the linear part is (near-)singular.
func (t AffineTransform)Invert() (AffineTransform, error) {
	det := t.A*t.D - t.B*t.C
	if det > -singularDet && det < singularDet {
		return AffineTransform{}, fmt.Errorf("det %g: %w", det, ErrSingularTransform)
	}
	return AffineTransform{
		A:  t.D / det,
		B:  -t.B / det,
		C:  -t.C / det,
		D:  t.A / det,
		Tx: (t.B*t.Ty - t.D*t.Tx) / det,
		Ty: (t.C*t.Tx - t.A*t.Ty) / det,
	}, nil
}

// Aff3 bridges into the x/image affine type, for resampling previews
// with golang.org/x/image/draw.
func (t AffineTransform)Aff3() emath.Aff3 {
	return emath.Aff3{t.A, t.B, t.Tx, t.C, t.D, t.Ty}
}

func (t AffineTransform)String() string {
	return fmt.Sprintf("Affine[%.4f %.4f %.4f %.4f, t(%.2f,%.2f)]", t.A, t.B, t.C, t.D, t.Tx, t.Ty)
}

// solveAffine3pt fits the 6 affine parameters exactly from 3
// correspondences. Each correspondence contributes two equations:
//
//	x' = a*x + b*y + tx
//	y' = c*x + d*y + ty
//
// so the 6x6 system is solved by LU decomposition. Collinear or
// repeated sample points make the system singular and the sample is
// rejected.
func solveAffine3pt(sample [3]Correspondence) (AffineTransform, error) {
	a := mat.NewDense(6, 6, nil)
	b := mat.NewVecDense(6, nil)

	for i := 0; i < 3; i++ {
		rx, ry := i*2, i*2+1

		a.Set(rx, 0, sample[i].New.X)
		a.Set(rx, 1, sample[i].New.Y)
		a.Set(rx, 4, 1.0)
		b.SetVec(rx, sample[i].Ref.X)

		a.Set(ry, 2, sample[i].New.X)
		a.Set(ry, 3, sample[i].New.Y)
		a.Set(ry, 5, 1.0)
		b.SetVec(ry, sample[i].Ref.Y)
	}

	var lu mat.LU
	lu.Factorize(a)

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return AffineTransform{}, fmt.Errorf("3-point solve: %w", ErrSingularTransform)
	}

	return AffineTransform{
		A:  x.AtVec(0),
		B:  x.AtVec(1),
		C:  x.AtVec(2),
		D:  x.AtVec(3),
		Tx: x.AtVec(4),
		Ty: x.AtVec(5),
	}, nil
}
