package stacker

import "math"

// MatchTriangles brute-force compares every new-frame triangle against
// every reference triangle (both sets are small, a few hundred each). A
// pair matches when both side ratios agree within RatioTolerance - a
// tight tolerance is valid because rotation + uniform scale preserves
// the ratios exactly. Each match contributes one correspondence per
// canonical vertex position.
//
// The output is capped at MaxCorrespondences; once the cap is hit,
// further matches are silently dropped. That truncation is deliberate
// behavior for very dense fields, not an error.
func MatchTriangles(refTris []Triangle, refStars []Star, newTris []Triangle, newStars []Star, p Params) []Correspondence {
	capHint := len(refTris) * len(newTris) * 3
	if capHint > p.MaxCorrespondences {
		capHint = p.MaxCorrespondences
	}
	corr := make([]Correspondence, 0, capHint)

	for i := range newTris {
		for j := range refTris {
			if math.Abs(newTris[i].Ratio1-refTris[j].Ratio1) >= p.RatioTolerance ||
				math.Abs(newTris[i].Ratio2-refTris[j].Ratio2) >= p.RatioTolerance {
				continue
			}
			for k := 0; k < 3; k++ {
				if len(corr) >= p.MaxCorrespondences {
					return corr
				}
				ni := newTris[i].Verts[k]
				ri := refTris[j].Verts[k]
				corr = append(corr, Correspondence{
					Ref: Point{refStars[ri].X, refStars[ri].Y},
					New: Point{newStars[ni].X, newStars[ni].Y},
				})
			}
		}
	}

	return corr
}
