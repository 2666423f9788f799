package stacker

// bilinearSample interpolates pix (row-major, stride w) at a fractional
// location from its 2x2 integer neighbourhood. The caller keeps (x,y)
// inside [0,w-1) x [0,h-1) so the full neighbourhood exists.
func bilinearSample(pix []byte, w int, x, y float64) float64 {
	x0, y0 := int(x), int(y)
	fx, fy := x-float64(x0), y-float64(y0)

	v00 := float64(pix[y0*w+x0])
	v10 := float64(pix[y0*w+x0+1])
	v01 := float64(pix[(y0+1)*w+x0])
	v11 := float64(pix[(y0+1)*w+x0+1])

	v0 := v00*(1.0-fx) + v10*fx
	v1 := v01*(1.0-fx) + v11*fx
	return v0*(1.0-fy) + v1*fy
}

// warpAndAccumulate resamples a new frame into the reference grid via
// the inverse transform and folds it into the accumulator. Pixels whose
// source location falls outside the sampling window are left untouched
// for this frame. Nothing is mutated if the transform won't invert.
func (s *Session)warpAndAccumulate(pix []byte, t AffineTransform) error {
	inv, err := t.Invert()
	if err != nil {
		return err
	}

	xMax := float64(s.width - 1)
	yMax := float64(s.height - 1)

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			srcX, srcY := inv.Apply(float64(x), float64(y))
			if srcX < 0 || srcY < 0 || srcX >= xMax || srcY >= yMax {
				continue
			}
			s.sum.Add(x, y, bilinearSample(pix, s.width, srcX, srcY))
			s.count.Incr(x, y)
		}
	}

	s.frameCount++
	return nil
}
