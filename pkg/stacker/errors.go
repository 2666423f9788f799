package stacker

import "errors"

// Per-frame failure taxonomy. None of these are fatal to a session: a
// failed AddFrame leaves the accumulator, frame count and reference
// descriptors exactly as they were, and the session stays usable.
var (
	// ErrDegenerateGeometry - fewer than 3 usable stars, or every
	// candidate triangle had a near-zero side.
	ErrDegenerateGeometry = errors.New("degenerate star geometry")

	// ErrTooFewCorrespondences - triangle matching produced fewer than
	// the 3 point pairs an affine fit needs.
	ErrTooFewCorrespondences = errors.New("too few correspondences")

	// ErrSingularTransform - a 3-point solve or the final inversion hit
	// a (near-)singular matrix.
	ErrSingularTransform = errors.New("singular transform")

	// ErrRansacExhausted - no candidate transform had a single inlier
	// after the full iteration budget.
	ErrRansacExhausted = errors.New("ransac found no inliers")

	// ErrFrameSize - the pixel buffer does not match the session's
	// width*height.
	ErrFrameSize = errors.New("pixel buffer size mismatch")

	// ErrNoFrames - no frame has been stacked yet.
	ErrNoFrames = errors.New("no frames stacked")

	// ErrReleased - the session's buffers have been released.
	ErrReleased = errors.New("session released")

	// ErrBadDimensions - rejected at session creation.
	ErrBadDimensions = errors.New("bad session dimensions")
)
