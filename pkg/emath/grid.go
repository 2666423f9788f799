package emath

import(
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
)

// A FloatGrid is a grid of floats, with some operations. We use it as
// the running-sum plane of a stacking accumulator.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Add(x, y int, v float64) { fg.values[fg.stride*y + x] += v }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int                 { return len(fg.values) / fg.stride }

func (g1 *FloatGrid)Copy() *FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

func (fg *FloatGrid)Stats() string {
	min := math.MaxFloat64
	max := -1.0  * min

	for i:=0 ; i<len(fg.values) ; i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToImg saves a simple grayscale, based on the range of values in the grid, and gamma scaling the
// gray to look normal for human vision
func (fg *FloatGrid)ToImg(title, filename string) error {
	min, max := math.MaxFloat64, -1*math.MaxFloat64
	for i:=0; i<len(fg.values); i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	if max <= min { max = min + 1 }

	img := image.NewRGBA64(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			gray := gammaExpand((fg.Get(x,y) - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1,1,1)
	dc.DrawString(title, 50, 50)
	return dc.SavePNG(filename)
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055 * math.Pow(f, 1.0/2.4) - 0.055
}

// An IntGrid is the integer companion to FloatGrid; we use it as the
// per-pixel frame-count plane of a stacking accumulator.
type IntGrid struct {
	stride int
	values []int
}

func NewIntGrid(w, h int) IntGrid {
	return IntGrid{
		stride: w,
		values: make([]int, w*h),
	}
}

func (ig *IntGrid)Set(x, y int, v int) { ig.values[ig.stride*y + x] = v }
func (ig *IntGrid)Get(x, y int) int    { return ig.values[ig.stride*y + x] }
func (ig *IntGrid)Incr(x, y int)       { ig.values[ig.stride*y + x]++ }
func (ig *IntGrid)Dx() int             { return ig.stride }
func (ig *IntGrid)Dy() int             { return len(ig.values) / ig.stride }

func (ig *IntGrid)Max() int {
	max := 0
	for i:=0 ; i<len(ig.values) ; i++ {
		if ig.values[i] > max { max = ig.values[i] }
	}
	return max
}

// ToFloatGrid widens the counts, so the FloatGrid render/stats helpers apply.
func (ig *IntGrid)ToFloatGrid() FloatGrid {
	fg := NewFloatGrid(ig.Dx(), ig.Dy())
	for i:=0 ; i<len(ig.values) ; i++ {
		fg.values[i] = float64(ig.values[i])
	}
	return fg
}
