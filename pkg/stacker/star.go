package stacker

// A Star is one detected star, in frame pixel coordinates. Detection
// happens upstream; star lists arrive already sorted brightest-first.
type Star struct {
	X    float64
	Y    float64
	Flux float64
}

// A Point is a bare 2D location, once we no longer care about flux.
type Point struct {
	X, Y float64
}

// A Correspondence pairs a reference-frame point with the new-frame
// point believed to be the same star. Produced transiently by matching,
// consumed by the estimator, never retained across frames.
type Correspondence struct {
	Ref Point
	New Point
}

// capBrightest keeps the first max entries of an already
// brightest-first star list. Returns the input slice when it is short
// enough, so triangle vertex indices stay valid either way.
func capBrightest(stars []Star, max int) []Star {
	if len(stars) <= max {
		return stars
	}
	return stars[:max]
}

func dist2(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}
