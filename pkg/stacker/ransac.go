package stacker

import(
	"fmt"
	"math"
	"math/rand"
)

// EstimateAffine runs RANSAC over a correspondence set: repeatedly fit
// an exact affine from 3 random correspondences, score each candidate
// against the whole set, and keep the one with the most inliers
// (ties broken by lower RMS). RMS is computed over *all*
// correspondences, inliers or not, so it doubles as an outlier-rate
// signal.
//
// The generator is a parameter so callers can make runs reproducible;
// Session seeds one from the wall clock by default.
func EstimateAffine(corr []Correspondence, p Params, rng *rand.Rand) (AffineTransform, int, float64, error) {
	if len(corr) < 3 {
		return AffineTransform{}, 0, 0, fmt.Errorf("%d correspondences: %w", len(corr), ErrTooFewCorrespondences)
	}

	var best AffineTransform
	bestInliers := 0
	bestRMS := math.MaxFloat64

	for iter := 0; iter < p.RansacIterations; iter++ {
		var idx [3]int
		var sample [3]Correspondence
		for i := 0; i < 3; i++ {
			// Up to 10 retries to avoid re-picking an index. If it
			// still collides, the duplicate stays - the singular
			// system it produces is rejected by the solve below.
			for retry := 0; retry < 10; retry++ {
				idx[i] = rng.Intn(len(corr))
				dup := false
				for j := 0; j < i; j++ {
					if idx[i] == idx[j] {
						dup = true
						break
					}
				}
				if !dup {
					break
				}
			}
			sample[i] = corr[idx[i]]
		}

		t, err := solveAffine3pt(sample)
		if err != nil {
			continue
		}

		inliers, rms := evaluateAffine(t, corr, p.InlierThreshold)
		if inliers > bestInliers || (inliers == bestInliers && rms < bestRMS) {
			best, bestInliers, bestRMS = t, inliers, rms
		}
	}

	if bestInliers == 0 {
		return AffineTransform{}, 0, 0, ErrRansacExhausted
	}
	return best, bestInliers, bestRMS, nil
}

// evaluateAffine scores a candidate transform: inlier count under the
// threshold, plus RMS reprojection error over every correspondence.
func evaluateAffine(t AffineTransform, corr []Correspondence, inlierThreshold float64) (int, float64) {
	inliers := 0
	sumSq := 0.0

	for _, c := range corr {
		px, py := t.Apply(c.New.X, c.New.Y)
		e := math.Hypot(px-c.Ref.X, py-c.Ref.Y)
		sumSq += e * e
		if e < inlierThreshold {
			inliers++
		}
	}

	return inliers, math.Sqrt(sumSq / float64(len(corr)))
}
