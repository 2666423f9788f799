package stacker

import(
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v2"
)

// Sanity limits on frames loaded from disk, matching what the capture
// side will actually hand us. The core session itself accepts any
// positive size (tests stack tiny synthetic frames).
const (
	minFrameDimension = 100
	maxFrameDimension = 8192
)

// A Frame pairs a grayscale pixel buffer with the externally-detected
// star list that came with it.
type Frame struct {
	Filename string
	Width    int
	Height   int
	Pix      []byte
	Stars    []Star
}

// A Batch is everything gathered from the command line: config plus the
// frames to stack, in the order they should be fed to the session.
type Batch struct {
	Config Config
	Frames []Frame
}

func NewBatch() Batch {
	return Batch{Config: NewConfig()}
}

func (b *Batch)LoadFilesAndDirs(args ...string) error {
	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {

		case err != nil:
			return fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			// Is a dir, recurse into contents
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if err := b.LoadFilesAndDirs(filepath.Join(arg, content.Name())); err != nil {
					return fmt.Errorf("load %s: %v", arg, err)
				}
			}

		default: // is a file, load it
			if err := b.loadFile(arg); err != nil {
				return fmt.Errorf("loadfile %s: %v", arg, err)
			}
		}
	}

	return nil
}

func (b *Batch)loadFile(filename string) error {
	switch strings.ToLower(filepath.Ext(filename)) {

	case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
		frame, err := LoadFrame(filename)
		if err != nil {
			return fmt.Errorf("loading %s as a frame failed: %v", filename, err)
		}
		b.Frames = append(b.Frames, frame)

	case ".yaml":
		// Star lists are picked up alongside their frame, not here
		if strings.HasSuffix(strings.ToLower(filename), ".stars.yaml") {
			return nil
		}
		contents, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("config read %s: %v", filename, err)
		}
		cfg, err := newConfigFromYaml(contents)
		if err != nil {
			return fmt.Errorf("config parse %s: %v", filename, err)
		}
		b.Config = cfg
		log.Printf("loaded base configuration from %s\n", filename)
	}

	return nil
}

// LoadFrame decodes an image into a flat grayscale byte buffer and
// reads the sibling "<name>.stars.yaml" star list.
func LoadFrame(filename string) (Frame, error) {
	frame := Frame{Filename: filename}

	reader, err := os.Open(filename)
	if err != nil {
		return frame, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tif", ".tiff":
		img, err = tiff.Decode(reader)
	case ".png":
		img, err = png.Decode(reader)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(reader)
	default:
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return frame, fmt.Errorf("decode '%s': %v", filename, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < minFrameDimension || h < minFrameDimension || w > maxFrameDimension || h > maxFrameDimension {
		return frame, fmt.Errorf("'%s' is %dx%d, outside %d..%d", filename, w, h, minFrameDimension, maxFrameDimension)
	}

	frame.Width, frame.Height = w, h
	frame.Pix = make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			frame.Pix[y*w+x] = gray.Y
		}
	}

	logExif(filename)

	starsFile := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".stars.yaml"
	frame.Stars, err = LoadStars(starsFile)
	if err != nil {
		return frame, err
	}

	log.Printf("loaded %s: %dx%d, %d stars", filepath.Base(filename), w, h, len(frame.Stars))
	return frame, nil
}

// LoadStars reads a star list file - detection happens in a separate
// tool, this just parses its output:
//
//	stars:
//	  - {x: 101.5, y: 88.25, flux: 5100}
//	  - {x: 240.0, y: 12.75, flux: 4800}
//
// Lists are expected to be sorted brightest-first already.
func LoadStars(filename string) ([]Star, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("stars read '%s': %v", filename, err)
	}

	var parsed struct {
		Stars []Star
	}
	if err := yaml.Unmarshal(contents, &parsed); err != nil {
		return nil, fmt.Errorf("stars parse '%s': %v", filename, err)
	}
	return parsed.Stars, nil
}

// logExif is best-effort: exposure metadata is nice to see scroll past,
// but star alignment doesn't need it.
func logExif(filename string) {
	reader, err := os.Open(filename)
	if err != nil {
		return
	}
	defer reader.Close()

	ex, err := exif.Decode(reader)
	if err != nil {
		return
	}

	iso, exposure := "?", "?"
	if tag, err := ex.Get(exif.ISOSpeedRatings); err == nil {
		iso = tag.String()
	}
	if tag, err := ex.Get(exif.ExposureTime); err == nil {
		exposure = tag.String()
	}
	log.Printf("%s: ISO %s, exposure %ss", filepath.Base(filename), iso, exposure)
}
