package stacker

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// StackedGray wraps StackedImage in an image.Gray, for the encoders.
func (s *Session)StackedGray() (*image.Gray, error) {
	pix, err := s.StackedImage()
	if err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	copy(img.Pix, pix)
	return img, nil
}

// accumImage exposes the accumulator mean as an hdr.Image, so the raw
// float values survive into a Radiance file before 8-bit quantisation.
type accumImage struct {
	s *Session
}

// Implement image.Image
func (ai accumImage)ColorModel() color.Model { return hdrcolor.RGBModel }
func (ai accumImage)Bounds() image.Rectangle { return image.Rect(0, 0, ai.s.width, ai.s.height) }
func (ai accumImage)At(x, y int) color.Color { return ai.HDRAt(x, y) }

// Implement hdr.Image
func (ai accumImage)HDRAt(x, y int) hdrcolor.Color {
	v := 0.0
	if c := ai.s.count.Get(x, y); c > 0 {
		v = ai.s.sum.Get(x, y) / float64(c)
	}
	return hdrcolor.RGB{R: v, G: v, B: v}
}
func (ai accumImage)Size() int { return ai.s.width * ai.s.height }

// WriteAccumulatorHDR dumps the un-quantised accumulator mean as a
// Radiance .hdr file.
func (s *Session)WriteAccumulatorHDR(filename string) error {
	if s.released {
		return ErrReleased
	}
	if s.frameCount == 0 {
		return ErrNoFrames
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()
	return rgbe.Encode(writer, accumImage{s})
}

// WriteCoveragePNG renders how many frames landed on each pixel as a
// heatmap: blue where only the reference reached, through to red where
// every frame did. Handy for spotting drift eating the frame edges.
func (s *Session)WriteCoveragePNG(filename string) error {
	if s.released {
		return ErrReleased
	}
	if s.frameCount == 0 {
		return ErrNoFrames
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			c := s.count.Get(x, y)
			if c == 0 {
				img.Set(x, y, color.Black)
				continue
			}
			frac := float64(c) / float64(s.frameCount)
			img.Set(x, y, colorful.Hsv(240.0*(1.0-frac), 1.0, 1.0))
		}
	}
	return WritePNG(img, filename)
}

// AlignedPreview resamples a raw frame through its fitted transform
// into the reference grid, for eyeballing how well a frame aligned.
// This is presentation only - the accumulator path does its own
// bilinear warp.
func (s *Session)AlignedPreview(pix []byte, t AffineTransform) (*image.Gray, error) {
	if s.released {
		return nil, ErrReleased
	}

	src := image.NewGray(image.Rect(0, 0, s.width, s.height))
	copy(src.Pix, pix)

	dst := image.NewGray(src.Bounds())
	draw.CatmullRom.Transform(dst, f64.Aff3(t.Aff3()), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// DumpGrids writes debug renders of the two accumulator planes.
func (s *Session)DumpGrids(prefix string) error {
	if s.released {
		return ErrReleased
	}
	if err := s.sum.ToImg("sum", prefix+"-sum.png"); err != nil {
		return err
	}
	counts := s.count.ToFloatGrid()
	return counts.ToImg("count", prefix+"-count.png")
}
