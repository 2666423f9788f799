package stacker

import(
	"math"
	"sort"
)

// Any triangle side shorter than this means coincident stars; the
// ratios would blow up, so the triangle is discarded.
const degenerateSide = 1e-6

// A Triangle is a scale/rotation-invariant descriptor of three stars:
// the two ratios of sorted side lengths. The ratios survive rotation,
// uniform scale, reflection and translation of the star field, which is
// what lets triangles from differently-oriented frames be matched by
// value alone.
//
// Verts[k] is the index (into the capped star list) of the vertex
// *opposite* the k-th shortest side. That canonical ordering means two
// ratio-matched triangles pair up truly corresponding stars.
type Triangle struct {
	Ratio1 float64 // mid/min side length
	Ratio2 float64 // max/min side length
	Verts  [3]int
}

// BuildTriangles converts a star list into triangle descriptors: for
// each of the brightest MaxStars stars, take its NumNeighbors nearest
// neighbours and form a triangle with every pair of them, C(n,2) per
// anchor. Returns an empty set when fewer than 3 stars survive.
func BuildTriangles(stars []Star, p Params) []Triangle {
	if len(stars) < 3 {
		return nil
	}
	stars = capBrightest(stars, p.MaxStars)
	n := len(stars)

	tris := make([]Triangle, 0, n*p.NumNeighbors*(p.NumNeighbors-1)/2)

	type neighbor struct {
		d2  float64
		idx int
	}
	neighbors := make([]neighbor, 0, n)

	for i := 0; i < n; i++ {
		neighbors = neighbors[:0]
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			neighbors = append(neighbors, neighbor{dist2(stars[i].X, stars[i].Y, stars[j].X, stars[j].Y), j})
		}
		// Stable, so ties keep brightness order
		sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].d2 < neighbors[b].d2 })

		use := p.NumNeighbors
		if len(neighbors) < use {
			use = len(neighbors)
		}

		for a := 0; a < use; a++ {
			for b := a + 1; b < use; b++ {
				ia, ib := neighbors[a].idx, neighbors[b].idx

				// Each side is opposite one vertex:
				//   sa = |i,ia|  opposite ib
				//   sb = |i,ib|  opposite ia
				//   sc = |ia,ib| opposite i
				sa := math.Sqrt(dist2(stars[i].X, stars[i].Y, stars[ia].X, stars[ia].Y))
				sb := math.Sqrt(dist2(stars[i].X, stars[i].Y, stars[ib].X, stars[ib].Y))
				sc := math.Sqrt(dist2(stars[ia].X, stars[ia].Y, stars[ib].X, stars[ib].Y))
				if sa < degenerateSide || sb < degenerateSide || sc < degenerateSide {
					continue
				}

				sides := [3]float64{sa, sb, sc}
				verts := [3]int{ib, ia, i}
				sortSidesWithVerts(&sides, &verts)

				tris = append(tris, Triangle{
					Ratio1: sides[1] / sides[0],
					Ratio2: sides[2] / sides[0],
					Verts:  verts,
				})
			}
		}
	}

	return tris
}

// sortSidesWithVerts orders the (side, opposite-vertex) pairs ascending
// by side length. Three elements, so just insertion sort.
func sortSidesWithVerts(sides *[3]float64, verts *[3]int) {
	for p := 1; p < 3; p++ {
		ks, kv := sides[p], verts[p]
		q := p - 1
		for q >= 0 && sides[q] > ks {
			sides[q+1], verts[q+1] = sides[q], verts[q]
			q--
		}
		sides[q+1], verts[q+1] = ks, kv
	}
}
