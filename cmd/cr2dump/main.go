// Command cr2dump decodes a Canon CR2 file's raw sensor payload and writes
// it as a length-prefixed binary dump, with an optional grayscale PNG
// visualisation alongside it.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/canonraw/cr2lossless/cr2/container"
	"github.com/canonraw/cr2lossless/cr2/lossless"
	"github.com/canonraw/cr2lossless/cr2/sink"
	"github.com/canonraw/cr2lossless/cr2err"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 3 {
		fmt.Println("Usage: cr2dump <input.cr2> <output.bin> [output.png]")
		return 1
	}
	inputPath := args[1]
	outputPath := args[2]
	var pngPath string
	if len(args) > 3 {
		pngPath = args[3]
	}

	logger := log.New(os.Stderr, "cr2dump: ", log.LstdFlags)

	data, err := os.ReadFile(inputPath)
	if err != nil {
		logger.Printf("reading %s: %v", inputPath, err)
		return 2
	}

	params, err := container.Ingest(data)
	if err != nil {
		logger.Printf("ingest failed: %v", err)
		return exitCodeFor(err)
	}

	img, err := lossless.Decode(params)
	if err != nil {
		logger.Printf("decode failed: %v", err)
		return exitCodeFor(err)
	}

	if err := writeOutputs(img, outputPath, pngPath); err != nil {
		logger.Printf("sink failed: %v", err)
		return 2
	}
	if pngPath != "" {
		logger.Printf("wrote visualisation to %s", pngPath)
	}

	logger.Printf("decoded %dx%d image from %s into %s", img.Width, img.Height, inputPath, outputPath)
	return 0
}

func writeOutputs(img *lossless.DecodedImage, outputPath, pngPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := sink.WriteDump(out, img); err != nil {
		return err
	}

	if pngPath != "" {
		pf, err := os.Create(pngPath)
		if err != nil {
			return err
		}
		defer pf.Close()
		if err := sink.WritePNG(pf, img); err != nil {
			return err
		}
	}
	return nil
}

// exitCodeFor maps a cr2err.Kind to the CLI's two-tier exit code scheme:
// 1 for ingest/decode errors, 2 for I/O failures.
func exitCodeFor(err error) int {
	if cr2err.Is(err, cr2err.IoError) {
		return 2
	}
	return 1
}
