package main

import(
	"flag"
	"fmt"
	"log"

	"starstack/pkg/stacker"
)

var(
	fOutputFilename string
	fHDRFilename string
	fCoverageFilename string
	fSeed int64
	fDumpGrids bool
	fDumpLayers bool
	fVerbosity int
)

func init() {
	flag.StringVar(&fOutputFilename, "o", "", "name of stacked output image (overrides config)")
	flag.StringVar(&fHDRFilename, "hdr", "", "also write the float accumulator as a Radiance .hdr file")
	flag.StringVar(&fCoverageFilename, "coverage", "", "write a heatmap of per-pixel frame coverage")
	flag.Int64Var(&fSeed, "seed", 0, "RANSAC seed, for reproducible runs; 0 seeds from the wall clock")
	flag.BoolVar(&fDumpGrids, "dumpgrids", false, "write debug renders of the accumulator planes")
	flag.BoolVar(&fDumpLayers, "dumplayers", false, "write each merged frame resampled into the reference grid")
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.Parse()

	log.Printf("starstack starting\n")
}

func main() {
	batch := stacker.NewBatch()
	if err := batch.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}
	if len(batch.Frames) == 0 {
		log.Fatalf("no frames to stack (pass frame images, each with a sibling .stars.yaml)")
	}

	// Override the config file with command line args, if relevant
	if fOutputFilename != "" { batch.Config.OutputFilename = fOutputFilename }
	if fHDRFilename != "" { batch.Config.HDRFilename = fHDRFilename }
	if fCoverageFilename != "" { batch.Config.CoverageFilename = fCoverageFilename }
	if fSeed != 0 { batch.Config.Seed = fSeed }
	if fVerbosity > 0 { batch.Config.Verbosity = fVerbosity }

	first := batch.Frames[0]
	session, err := stacker.NewSession(first.Width, first.Height, false, batch.Config.Params)
	if err != nil {
		log.Fatalf("session %dx%d: %v", first.Width, first.Height, err)
	}
	defer session.Release()

	if batch.Config.Seed != 0 {
		session.Reseed(batch.Config.Seed)
	}
	if batch.Config.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", batch.Config.AsYaml())
	}

	for _, frame := range batch.Frames {
		if len(frame.Stars) < batch.Config.MinStarsAdvisory {
			log.Printf("%s: only %d stars; alignment may be unreliable", frame.Filename, len(frame.Stars))
		}

		res, err := session.AddFrame(frame.Pix, frame.Stars)
		if err != nil {
			log.Printf("%s: frame skipped: %v", frame.Filename, err)
			continue
		}
		log.Printf("%s: merged (%d frames stacked, %d inliers, rms %.2fpx)",
			frame.Filename, res.FrameCount, res.Inliers, res.RMS)

		if fDumpLayers {
			preview, err := session.AlignedPreview(frame.Pix, res.Transform)
			if err != nil {
				log.Fatal(err)
			}
			layerFile := fmt.Sprintf("layer-%03d.png", res.FrameCount)
			if err := stacker.WritePNG(preview, layerFile); err != nil {
				log.Fatal(err)
			}
			log.Printf("aligned layer written '%s'", layerFile)
		}
	}

	img, err := session.StackedGray()
	if err != nil {
		log.Fatalf("stacked image: %v", err)
	}
	if err := stacker.WritePNG(img, batch.Config.OutputFilename); err != nil {
		log.Fatal(err)
	}
	log.Printf("stacked output written '%s' (%d frames)", batch.Config.OutputFilename, session.FrameCount())

	if batch.Config.HDRFilename != "" {
		if err := session.WriteAccumulatorHDR(batch.Config.HDRFilename); err != nil {
			log.Fatal(err)
		}
		log.Printf("accumulator written '%s'", batch.Config.HDRFilename)
	}
	if batch.Config.CoverageFilename != "" {
		if err := session.WriteCoveragePNG(batch.Config.CoverageFilename); err != nil {
			log.Fatal(err)
		}
		log.Printf("coverage heatmap written '%s'", batch.Config.CoverageFilename)
	}
	if fDumpGrids {
		if err := session.DumpGrids("starstack-debug"); err != nil {
			log.Fatal(err)
		}
	}

	log.Printf("%s", session.Stats().Summary())
}
