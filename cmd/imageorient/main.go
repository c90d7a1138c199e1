// Copyright 2026 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command imageorient prints the EXIF orientation of image files and the
// dimensions of the images before and after the orientation is applied.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/bep/imageorient"
)

var formatNames = map[string]imageorient.ImageFormat{
	"auto": imageorient.ImageFormatAuto,
	"jpeg": imageorient.JPEG,
	"jpg":  imageorient.JPEG,
	"png":  imageorient.PNG,
	"gif":  imageorient.GIF,
	"bmp":  imageorient.BMP,
	"tiff": imageorient.TIFF,
	"webp": imageorient.WebP,
	"avif": imageorient.AVIF,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("imageorient", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: imageorient [options] <file>...\n\n")
		fmt.Fprintf(stderr, "Print the EXIF orientation of images\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	verbose := fs.Bool("v", false, "Print warnings about the EXIF data")
	formatName := fs.String("format", "", "Image format (auto, jpeg, png, gif, bmp, tiff, webp, avif); default from the file extension")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	var (
		format   imageorient.ImageFormat
		fromPath = *formatName == ""
		logger   = log.New(stderr, "", 0)
		exitCode int
	)
	if !fromPath {
		var ok bool
		format, ok = formatNames[strings.ToLower(*formatName)]
		if !ok {
			fmt.Fprintf(stderr, "unknown format %q\n", *formatName)
			return 2
		}
	}

	for _, filename := range fs.Args() {
		f := format
		if fromPath {
			var err error
			if f, err = imageorient.FormatFromPath(filename); err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", filename, err)
				exitCode = 1
				continue
			}
		}

		opts := imageorient.Options{ImageFormat: f}
		if *verbose {
			opts.Warnf = func(msg string, args ...any) {
				logger.Printf("%s: %s", filename, fmt.Sprintf(msg, args...))
			}
		}

		if err := printFile(stdout, filename, opts); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", filename, err)
			exitCode = 1
		}
	}

	return exitCode
}

func printFile(w io.Writer, filename string, opts imageorient.Options) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	opts.R = file
	res, err := imageorient.Decode(opts)
	if err != nil {
		return err
	}

	b := res.Image.Bounds()
	ow, oh := b.Dx(), b.Dy()
	rw, rh := ow, oh
	if res.Transform.SwapsDimensions() {
		rw, rh = oh, ow
	}

	orientation := "none"
	if res.Orientation != 0 {
		orientation = fmt.Sprint(res.Orientation)
	}

	_, err = fmt.Fprintf(w, "%s: %s %dx%d -> %dx%d orientation=%s transform=%s\n",
		filename, res.ImageFormat, rw, rh, ow, oh, orientation, res.Transform)
	return err
}
