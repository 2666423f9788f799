package stacker

import(
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"starstack/pkg/emath"
)

// A Session owns the accumulator and the reference descriptors for one
// stacking run. The first frame added becomes the reference; every
// later frame is aligned to it, resampled, and folded into the running
// sum/count planes.
//
// A Session is not internally synchronized - drive it from one caller
// at a time.
type Session struct {
	width, height int
	isColor       bool // accepted, but color accumulation is not implemented; we stack grayscale
	frameCount    int
	released      bool

	sum   emath.FloatGrid
	count emath.IntGrid

	refStars []Star
	refTris  []Triangle

	params Params
	rng    *rand.Rand
	stats  *SessionStats
}

// FrameResult is what a caller learns from each AddFrame: whether the
// frame merged, how well it aligned, and the session's (possibly
// unchanged) frame count. Transform is the fitted new->reference
// mapping (identity for the reference frame itself), for callers that
// want to render the aligned layer.
type FrameResult struct {
	Success    bool
	Inliers    int
	RMS        float64
	FrameCount int
	Transform  AffineTransform
}

func NewSession(width, height int, isColor bool, p Params) (*Session, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrBadDimensions)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("params: %v", err)
	}

	s := &Session{
		width:   width,
		height:  height,
		isColor: isColor,
		sum:     emath.NewFloatGrid(width, height),
		count:   emath.NewIntGrid(width, height),
		params:  p,
		// One seed per session; Reseed() for reproducible runs
		rng:   rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(os.Getpid()))),
		stats: newSessionStats(),
	}
	return s, nil
}

// Reseed replaces the session's pseudorandom state, making subsequent
// RANSAC runs reproducible.
func (s *Session)Reseed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// AddFrame runs the full align-and-merge pipeline on one frame. Any
// failure is reported without touching session state; the error always
// wraps one of the package's sentinel errors.
func (s *Session)AddFrame(pix []byte, stars []Star) (FrameResult, error) {
	fail := func(err error) (FrameResult, error) {
		return FrameResult{FrameCount: s.frameCount}, err
	}

	if s.released {
		return fail(ErrReleased)
	}
	if len(pix) != s.width*s.height {
		return fail(fmt.Errorf("got %d bytes, want %d: %w", len(pix), s.width*s.height, ErrFrameSize))
	}

	if s.frameCount == 0 {
		return s.addReferenceFrame(pix, stars)
	}

	newStars := capBrightest(stars, s.params.MaxStars)
	newTris := BuildTriangles(newStars, s.params)
	if len(newTris) == 0 {
		return fail(fmt.Errorf("%d stars, %d triangles: %w", len(stars), len(newTris), ErrDegenerateGeometry))
	}

	corr := MatchTriangles(s.refTris, s.refStars, newTris, newStars, s.params)
	if len(corr) < 3 {
		return fail(fmt.Errorf("%d correspondences from %d triangles: %w", len(corr), len(newTris), ErrTooFewCorrespondences))
	}

	t, inliers, rms, err := EstimateAffine(corr, s.params, s.rng)
	if err != nil {
		return fail(err)
	}

	if err := s.warpAndAccumulate(pix, t); err != nil {
		return fail(err)
	}

	s.stats.recordFrame(inliers, rms)
	log.Printf("frame %d merged: %d/%d inliers, rms %.2fpx, %s", s.frameCount, inliers, len(corr), rms, t)

	return FrameResult{Success: true, Inliers: inliers, RMS: rms, FrameCount: s.frameCount, Transform: t}, nil
}

// addReferenceFrame copies the first frame straight into the
// accumulator (implicit identity transform) and retains its stars and
// triangles as the reference descriptor set. The descriptors are built
// before anything is mutated, so a starless first frame leaves the
// session pristine.
func (s *Session)addReferenceFrame(pix []byte, stars []Star) (FrameResult, error) {
	ref := capBrightest(stars, s.params.MaxStars)
	tris := BuildTriangles(ref, s.params)
	if len(tris) == 0 {
		return FrameResult{}, fmt.Errorf("reference frame has %d stars, %d triangles: %w", len(stars), len(tris), ErrDegenerateGeometry)
	}

	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			s.sum.Add(x, y, float64(pix[y*s.width+x]))
			s.count.Incr(x, y)
		}
	}

	// The session owns its reference copy
	s.refStars = append([]Star(nil), ref...)
	s.refTris = tris
	s.frameCount = 1

	log.Printf("reference frame set: %d stars, %d triangles", len(s.refStars), len(s.refTris))
	return FrameResult{Success: true, FrameCount: 1, Transform: AffineTransform{A: 1, D: 1}}, nil
}

// StackedImage averages the accumulator down to one byte per pixel:
// round(sum/count) clamped to [0,255], or 0 where no frame ever landed.
func (s *Session)StackedImage() ([]byte, error) {
	if s.released {
		return nil, ErrReleased
	}
	if s.frameCount == 0 {
		return nil, ErrNoFrames
	}

	out := make([]byte, s.width*s.height)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := s.count.Get(x, y)
			if c == 0 {
				continue
			}
			v := int(s.sum.Get(x, y)/float64(c) + 0.5)
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out[y*s.width+x] = byte(v)
		}
	}
	return out, nil
}

func (s *Session)FrameCount() int      { return s.frameCount }
func (s *Session)Width() int           { return s.width }
func (s *Session)Height() int          { return s.height }
func (s *Session)Stats() *SessionStats { return s.stats }

// Release drops the accumulator and reference descriptors. The session
// rejects all further operations. Releasing twice is harmless.
func (s *Session)Release() {
	if s.released {
		return
	}
	s.sum = emath.FloatGrid{}
	s.count = emath.IntGrid{}
	s.refStars = nil
	s.refTris = nil
	s.released = true
}
