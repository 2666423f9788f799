package stacker

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

// testPattern fills a frame with a position-dependent byte pattern so
// any resampling mistake shows up as an exact-compare failure.
func testPattern(w, h int) []byte {
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix[y*w+x] = byte((x*31 + y*57 + 3) % 251)
		}
	}
	return pix
}

func TestNewSessionValidation(t *testing.T) {
	if _, err := NewSession(0, 10, false, NewParams()); !errors.Is(err, ErrBadDimensions) {
		t.Errorf("0-width: got %v, want ErrBadDimensions", err)
	}
	p := NewParams()
	p.MaxStars = 1
	if _, err := NewSession(10, 10, false, p); err == nil {
		t.Error("maxstars=1 should be rejected")
	}
}

func TestSessionReferenceFrame(t *testing.T) {
	s, err := NewSession(4, 4, false, NewParams())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()

	pix := testPattern(4, 4)
	res, err := s.AddFrame(pix, fiveStars())
	if err != nil {
		t.Fatalf("reference frame: %v", err)
	}
	if !res.Success || res.FrameCount != 1 || res.Inliers != 0 || res.RMS != 0 {
		t.Errorf("reference result %+v, want success with count 1 and no alignment stats", res)
	}

	out, err := s.StackedImage()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, pix) {
		t.Error("single-frame stack should reproduce the reference exactly")
	}
}

func TestSessionIdenticalFrames(t *testing.T) {
	s, err := NewSession(4, 4, false, NewParams())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()
	s.Reseed(7)

	pix := testPattern(4, 4)
	stars := fiveStars()
	for i := 0; i < 4; i++ {
		if _, err := s.AddFrame(pix, stars); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if s.FrameCount() != 4 {
		t.Errorf("frame count %d, want 4", s.FrameCount())
	}

	// Averaging identical frames is a no-op on the output
	out, err := s.StackedImage()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, pix) {
		t.Error("stack of identical frames should equal the frame")
	}

	// Interior pixels are well inside the sampling window, so every
	// frame lands on them. Edge pixels sit right on the window boundary
	// and their coverage depends on float noise in the fitted
	// transform, so only bound them.
	if c := s.count.Get(1, 1); c != 4 {
		t.Errorf("interior coverage %d, want 4", c)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if c := s.count.Get(x, y); c < 1 || c > 4 {
				t.Errorf("coverage at (%d,%d) is %d, want 1..4", x, y, c)
			}
		}
	}

	if got := s.Stats().AlignedFrames(); got != 3 {
		t.Errorf("aligned frames %d, want 3 (reference is not aligned)", got)
	}
}

func TestSessionTranslatedFrame(t *testing.T) {
	const w, h = 16, 16
	const dx, dy = 2, 1

	s, err := NewSession(w, h, false, NewParams())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()
	s.Reseed(42)

	scene := testPattern(w, h)
	refStars := fiveStars()
	if _, err := s.AddFrame(scene, refStars); err != nil {
		t.Fatalf("reference frame: %v", err)
	}

	// Second frame: the same scene, shifted down-right by (dx,dy)
	shifted := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= dx && y >= dy {
				shifted[y*w+x] = scene[(y-dy)*w+(x-dx)]
			}
		}
	}
	movedStars := make([]Star, len(refStars))
	for i, st := range refStars {
		movedStars[i] = Star{st.X + dx, st.Y + dy, st.Flux}
	}

	res, err := s.AddFrame(shifted, movedStars)
	if err != nil {
		t.Fatalf("shifted frame: %v", err)
	}
	if !res.Success || res.FrameCount != 2 {
		t.Errorf("result %+v, want merged with count 2", res)
	}
	if res.Inliers < 3 {
		t.Errorf("only %d inliers fitting a pure translation", res.Inliers)
	}
	if res.RMS > 1e-6 {
		t.Errorf("rms %g for exact correspondences, want ~0", res.RMS)
	}

	// The reported transform is the fitted shift, ready for layer
	// previews
	if x, y := res.Transform.Apply(float64(dx), float64(dy)); math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("transform maps (%d,%d) to (%g,%g), want the origin", dx, dy, x, y)
	}

	// An integer shift resamples exactly, so averaging with the
	// reference reproduces the scene byte for byte
	out, err := s.StackedImage()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, scene) {
		t.Error("stacked output differs from the scene after aligning a translated frame")
	}
}

func TestSessionFailuresLeaveStateUntouched(t *testing.T) {
	s, err := NewSession(4, 4, false, NewParams())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()

	pix := testPattern(4, 4)

	// A starless first frame must leave the session pristine...
	if _, err := s.AddFrame(pix, nil); !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("starless reference: got %v, want ErrDegenerateGeometry", err)
	}
	if s.FrameCount() != 0 {
		t.Fatalf("failed reference bumped frame count to %d", s.FrameCount())
	}

	// ...so the next frame still becomes the reference
	if _, err := s.AddFrame(pix, fiveStars()); err != nil {
		t.Fatalf("reference after failure: %v", err)
	}

	// Wrong-size buffer
	if _, err := s.AddFrame(pix[:10], fiveStars()); !errors.Is(err, ErrFrameSize) {
		t.Errorf("short buffer: got %v, want ErrFrameSize", err)
	}

	// Too few stars to form any triangle
	res, err := s.AddFrame(pix, []Star{{1, 1, 2}, {2, 2, 1}})
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("2-star frame: got %v, want ErrDegenerateGeometry", err)
	}
	if res.FrameCount != 1 || s.FrameCount() != 1 {
		t.Errorf("failed frame changed the count: result %d, session %d", res.FrameCount, s.FrameCount())
	}

	// A field with no matching triangles fails before RANSAC
	if _, err := s.AddFrame(pix, []Star{{0, 0, 3}, {1, 0, 2}, {2, 0, 1}}); !errors.Is(err, ErrTooFewCorrespondences) {
		t.Errorf("unmatchable frame: got %v, want ErrTooFewCorrespondences", err)
	}

	out, err := s.StackedImage()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, pix) {
		t.Error("failed frames leaked into the accumulator")
	}
}

func TestSessionNoFrames(t *testing.T) {
	s, err := NewSession(4, 4, false, NewParams())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()

	if _, err := s.StackedImage(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("got %v, want ErrNoFrames", err)
	}
}

func TestSessionRelease(t *testing.T) {
	s, err := NewSession(4, 4, false, NewParams())
	if err != nil {
		t.Fatal(err)
	}
	pix := testPattern(4, 4)
	if _, err := s.AddFrame(pix, fiveStars()); err != nil {
		t.Fatal(err)
	}

	s.Release()
	s.Release() // twice is fine

	if _, err := s.AddFrame(pix, fiveStars()); !errors.Is(err, ErrReleased) {
		t.Errorf("AddFrame after release: got %v, want ErrReleased", err)
	}
	if _, err := s.StackedImage(); !errors.Is(err, ErrReleased) {
		t.Errorf("StackedImage after release: got %v, want ErrReleased", err)
	}
}
