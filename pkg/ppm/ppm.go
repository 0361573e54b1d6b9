// Package ppm writes images in the plain-text (P3) portable pixmap format.
package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// ErrEmptyImage is returned when asked to encode an image without pixels
var ErrEmptyImage = errors.New("ppm: empty image")

// MaxValue is the largest channel value written in the header
const MaxValue = 255

// Encode writes img as ASCII PPM: a "P3" header, the dimensions, the max value,
// then one "r g b" line per pixel, top row first
func Encode(w io.Writer, img *renderer.Image) error {
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pix) != img.Width*img.Height {
		return ErrEmptyImage
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n%d\n", img.Width, img.Height, MaxValue); err != nil {
		return fmt.Errorf("ppm: write header: %w", err)
	}
	for _, row := range img.Rows() {
		for _, p := range row {
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", p.R, p.G, p.B); err != nil {
				return fmt.Errorf("ppm: write pixel: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ppm: flush: %w", err)
	}
	return nil
}

// Save writes img to path, replacing any existing file
func Save(path string, img *renderer.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ppm: create %s: %w", path, err)
	}
	defer file.Close()

	if err := Encode(file, img); err != nil {
		return err
	}
	return file.Close()
}
