package stacker

import(
	"fmt"

	"github.com/codahale/hdrhistogram"
)

// SessionStats tracks alignment quality across a stacking run. RMS is
// recorded in millipixels so the histogram keeps sub-pixel resolution;
// the reference frame has no alignment and is not recorded.
type SessionStats struct {
	rms     *hdrhistogram.Histogram // millipixels, 0 .. 10k pixels
	inliers *hdrhistogram.Histogram
}

func newSessionStats() *SessionStats {
	return &SessionStats{
		rms:     hdrhistogram.New(0, 10000000, 3),
		inliers: hdrhistogram.New(0, 1000000, 3),
	}
}

func (st *SessionStats)recordFrame(inliers int, rms float64) {
	// Out-of-range values (absurd RMS from an outlier-heavy fit) just
	// don't get recorded
	_ = st.rms.RecordValue(int64(rms * 1000.0))
	_ = st.inliers.RecordValue(int64(inliers))
}

// AlignedFrames is how many frames went through alignment and merged -
// i.e. every merged frame except the reference.
func (st *SessionStats)AlignedFrames() int {
	return int(st.rms.TotalCount())
}

func (st *SessionStats)Summary() string {
	if st.rms.TotalCount() == 0 {
		return "no frames aligned"
	}
	return fmt.Sprintf("aligned %d frames: rms p50=%.3fpx p90=%.3fpx max=%.3fpx; inliers p50=%d min=%d",
		st.rms.TotalCount(),
		float64(st.rms.ValueAtQuantile(50))/1000.0,
		float64(st.rms.ValueAtQuantile(90))/1000.0,
		float64(st.rms.Max())/1000.0,
		st.inliers.ValueAtQuantile(50),
		st.inliers.Min())
}
