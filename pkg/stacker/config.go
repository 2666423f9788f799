package stacker

import(
	"fmt"
	"log"

	"gopkg.in/yaml.v2"
)

/* Example config file ...

params:
  maxstars: 50
  numneighbors: 5
  ratiotolerance: 0.01
  ransaciterations: 500
  inlierthreshold: 3.0
  maxcorrespondences: 10000

outputfilename: stacked.png
hdrfilename: stacked.hdr
coveragefilename: coverage.png
seed: 12345

*/

// Params holds the tunable constants of the alignment pipeline. The
// defaults are what the pipeline was tuned with; tests shrink them to
// exercise the edges.
type Params struct {
	MaxStars           int     // only the brightest N stars per frame are used for matching
	NumNeighbors       int     // triangles are formed between a star and pairs of its N nearest neighbours
	RatioTolerance     float64 // two triangles match when both side ratios agree within this
	RansacIterations   int
	InlierThreshold    float64 // reprojection error (pixels) under which a correspondence is an inlier
	MaxCorrespondences int     // hard cap; once hit, further matches are silently dropped
}

func NewParams() Params {
	return Params{
		MaxStars:           50,
		NumNeighbors:       5,
		RatioTolerance:     0.01,
		RansacIterations:   500,
		InlierThreshold:    3.0,
		MaxCorrespondences: 10000,
	}
}

func (p Params)Validate() error {
	if p.MaxStars < 3 {
		return fmt.Errorf("maxstars %d (need >=3)", p.MaxStars)
	}
	if p.NumNeighbors < 2 {
		return fmt.Errorf("numneighbors %d (need >=2)", p.NumNeighbors)
	}
	if p.RatioTolerance <= 0 || p.InlierThreshold <= 0 {
		return fmt.Errorf("tolerances must be positive")
	}
	if p.RansacIterations < 1 || p.MaxCorrespondences < 3 {
		return fmt.Errorf("ransaciterations %d, maxcorrespondences %d", p.RansacIterations, p.MaxCorrespondences)
	}
	return nil
}

type Config struct {
	Params             Params

	OutputFilename     string
	HDRFilename        string // if set, also dump the float accumulator as Radiance .hdr
	CoverageFilename   string // if set, write a heatmap of per-pixel frame counts
	MinStarsAdvisory   int    // warn when a frame carries fewer stars than this
	Seed               int64  // 0 means seed from the wall clock
	Verbosity          int
}

func NewConfig() Config {
	return Config{
		Params:           NewParams(),
		OutputFilename:   "stacked.png",
		MinStarsAdvisory: 20,
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	err := yaml.Unmarshal(b, &c)
	return c, err
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatalf("Can't marshal config yaml: %v\n", err)
	}
	return string(b)
}
