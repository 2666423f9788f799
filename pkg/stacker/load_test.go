package stacker

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, filename string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, testPattern(w, h))
	writer, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()
	if err := png.Encode(writer, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFrame(t *testing.T) {
	dir := t.TempDir()
	frameFile := filepath.Join(dir, "frame.png")
	writeTestPNG(t, frameFile, 120, 110)

	starsYaml := `stars:
  - {x: 101.5, y: 88.25, flux: 5100}
  - {x: 240.0, y: 12.75, flux: 4800}
`
	if err := os.WriteFile(filepath.Join(dir, "frame.stars.yaml"), []byte(starsYaml), 0644); err != nil {
		t.Fatal(err)
	}

	frame, err := LoadFrame(frameFile)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Width != 120 || frame.Height != 110 {
		t.Errorf("got %dx%d, want 120x110", frame.Width, frame.Height)
	}
	if len(frame.Pix) != 120*110 {
		t.Errorf("pix buffer is %d bytes, want %d", len(frame.Pix), 120*110)
	}
	if len(frame.Stars) != 2 {
		t.Fatalf("got %d stars, want 2", len(frame.Stars))
	}
	if frame.Stars[0].X != 101.5 || frame.Stars[0].Flux != 5100 {
		t.Errorf("first star parsed as %+v", frame.Stars[0])
	}
}

func TestLoadFrameJPEG(t *testing.T) {
	dir := t.TempDir()
	frameFile := filepath.Join(dir, "photo.jpg")

	img := image.NewGray(image.Rect(0, 0, 120, 110))
	copy(img.Pix, testPattern(120, 110))
	writer, err := os.Create(frameFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(writer, img, nil); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	starsYaml := "stars:\n  - {x: 10, y: 20, flux: 300}\n  - {x: 30, y: 40, flux: 200}\n  - {x: 50, y: 60, flux: 100}\n"
	if err := os.WriteFile(filepath.Join(dir, "photo.stars.yaml"), []byte(starsYaml), 0644); err != nil {
		t.Fatal(err)
	}

	// JPEG is lossy, so only the shape is checked, not the pixels
	frame, err := LoadFrame(frameFile)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Width != 120 || frame.Height != 110 || len(frame.Pix) != 120*110 {
		t.Errorf("got %dx%d with %d bytes, want 120x110", frame.Width, frame.Height, len(frame.Pix))
	}
	if len(frame.Stars) != 3 {
		t.Errorf("got %d stars, want 3", len(frame.Stars))
	}
}

func TestLoadFrameRejectsTinyImage(t *testing.T) {
	dir := t.TempDir()
	frameFile := filepath.Join(dir, "tiny.png")
	writeTestPNG(t, frameFile, 10, 10)

	if _, err := LoadFrame(frameFile); err == nil {
		t.Error("a 10x10 frame should fail the dimension sanity check")
	}
}

func TestLoadFrameMissingStars(t *testing.T) {
	dir := t.TempDir()
	frameFile := filepath.Join(dir, "lonely.png")
	writeTestPNG(t, frameFile, 120, 120)

	if _, err := LoadFrame(frameFile); err == nil {
		t.Error("a frame without its .stars.yaml sibling should fail to load")
	}
}

func TestLoadFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "a.png"), 120, 120)

	starsYaml := "stars:\n  - {x: 10, y: 20, flux: 300}\n"
	if err := os.WriteFile(filepath.Join(dir, "a.stars.yaml"), []byte(starsYaml), 0644); err != nil {
		t.Fatal(err)
	}
	configYaml := "outputfilename: custom.png\nseed: 99\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYaml), 0644); err != nil {
		t.Fatal(err)
	}

	b := NewBatch()
	if err := b.LoadFilesAndDirs(dir); err != nil {
		t.Fatal(err)
	}
	if len(b.Frames) != 1 {
		t.Fatalf("loaded %d frames, want 1", len(b.Frames))
	}
	if b.Config.OutputFilename != "custom.png" || b.Config.Seed != 99 {
		t.Errorf("config not applied: %+v", b.Config)
	}
	// Defaults survive a partial config file
	if b.Config.Params.MaxStars != 50 {
		t.Errorf("default maxstars lost: %d", b.Config.Params.MaxStars)
	}
}
