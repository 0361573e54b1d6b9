package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// ErrInvalidDimensions is returned when an image or render would have no pixels
var ErrInvalidDimensions = errors.New("width and height must be positive")

// RGB is an 8-bit per channel color
type RGB struct {
	R, G, B uint8
}

// Image is a row-major grid of RGB pixels. Row 0 is the top of the picture.
type Image struct {
	Width  int
	Height int
	Pix    []RGB
}

// NewImage allocates a black image
func NewImage(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image %dx%d: %w", width, height, ErrInvalidDimensions)
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}, nil
}

// At returns the pixel in column x of row y
func (img *Image) At(x, y int) RGB {
	return img.Pix[y*img.Width+x]
}

// Set stores the pixel in column x of row y
func (img *Image) Set(x, y int, c RGB) {
	img.Pix[y*img.Width+x] = c
}

// Row returns row y as a slice sharing the image's storage
func (img *Image) Row(y int) []RGB {
	start := y * img.Width
	return img.Pix[start : start+img.Width]
}

// Rows returns every row, top to bottom
func (img *Image) Rows() [][]RGB {
	rows := make([][]RGB, img.Height)
	for y := range rows {
		rows[y] = img.Row(y)
	}
	return rows
}

// ToRGBA converts to a standard library image for PNG encoding
func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(x, y)
			out.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return out
}

// Quantize maps a linear [0,1] color to bytes by clamping, scaling by 255.99 and truncating
func Quantize(c core.Vec3) RGB {
	c = c.Clamp(0, 1)
	return RGB{
		R: uint8(255.99 * c.X),
		G: uint8(255.99 * c.Y),
		B: uint8(255.99 * c.Z),
	}
}

// ToColor converts an accumulated color to bytes: average over samples, then gamma 2
func ToColor(sum core.Vec3, samples int) RGB {
	if samples <= 0 {
		return RGB{}
	}
	average := sum.Divide(float64(samples))
	return Quantize(average.Sqrt())
}
