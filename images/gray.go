// Package images - This file contains the frame representations used by the
// motion pipeline: a single-channel intensity grid plus the preprocessing
// step (downscale, luminance conversion, noise-suppressing blur) that turns
// a raw color frame into something stable enough for frame differencing.
package images

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-motion/images/kernels"
)

// ErrInvalidFrame indicates a malformed input frame (zero-sized image).
// Frames that fail preprocessing are discarded; the pipeline continues.
var ErrInvalidFrame = errors.New("invalid frame: zero-sized image")

// Gray is a single-channel intensity grid. It is the preprocessed form of a
// captured frame: grayscale, blurred, and optionally downscaled. A Gray is
// created once per cycle and consumed by the analyzer in the same cycle; the
// only instance retained across cycles is the coordinator's previous-frame
// reference.
type Gray struct {
	// Width and Height are the grid dimensions in pixels.
	Width  int
	Height int
	// Pix holds intensity values in row-major order, length Width*Height.
	Pix []uint8
	// BlurRadius records the smoothing radius the frame was produced with.
	BlurRadius int
}

// NewGray allocates a zeroed intensity grid with the given dimensions.
func NewGray(width, height int) *Gray {
	return &Gray{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the intensity at (x, y). No bounds checking; callers iterate
// within [0,Width) x [0,Height).
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set writes the intensity at (x, y).
func (g *Gray) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// SameSize reports whether two grids share dimensions. The analyzer requires
// matching dimensions between the previous and current frame.
func (g *Gray) SameSize(other *Gray) bool {
	return other != nil && g.Width == other.Width && g.Height == other.Height
}

// PreprocessOptions configures the raw-frame-to-Gray conversion.
type PreprocessOptions struct {
	// BlurRadius is the box blur radius applied after grayscale conversion
	// (window size = 2*BlurRadius + 1). Radius 0 disables smoothing.
	BlurRadius int
	// MaxAnalysisWidth bounds the working resolution. Frames wider than this
	// are downscaled (preserving aspect ratio) before conversion. 0 disables
	// downscaling.
	MaxAnalysisWidth int
}

// DefaultPreprocessOptions returns the preprocessing defaults: a 5x5 blur
// window and a 640px analysis width.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		BlurRadius:       2,
		MaxAnalysisWidth: 640,
	}
}

// Preprocess converts a captured color frame into a Gray ready for
// differencing. The conversion is deterministic: the same input frame and
// options always produce the same grid.
//
// Steps:
//  1. Downscale to MaxAnalysisWidth if the frame is wider (bilinear).
//  2. Convert to intensity using BT.601 luminance weights.
//  3. Apply a separable box blur of BlurRadius to suppress sensor noise.
//
// Returns ErrInvalidFrame for zero-sized input.
func Preprocess(img image.Image, opt PreprocessOptions) (*Gray, error) {
	if img == nil {
		return nil, ErrInvalidFrame
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrInvalidFrame
	}

	if opt.MaxAnalysisWidth > 0 && bounds.Dx() > opt.MaxAnalysisWidth {
		img = resize.Resize(uint(opt.MaxAnalysisWidth), 0, img, resize.Bilinear)
		bounds = img.Bounds()
	}

	gray := Luminance(img)
	if opt.BlurRadius > 0 {
		gray.Pix = kernels.BoxBlurGray(gray.Pix, gray.Width, gray.Height, kernels.Options{
			Radius: opt.BlurRadius,
			Edge:   kernels.EdgeClamp,
		})
		gray.BlurRadius = opt.BlurRadius
	}
	return gray, nil
}

// Luminance converts a color image to an intensity grid using fixed BT.601
// weights (0.299 R + 0.587 G + 0.114 B), the same weighting OpenCV's
// BGR-to-gray conversion uses.
func Luminance(img image.Image) *Gray {
	bounds := img.Bounds()
	out := NewGray(bounds.Dx(), bounds.Dy())

	// Fast path for RGBA-backed frames (what the camera collaborator
	// produces) to avoid the color interface in the hot loop.
	if rgba, ok := img.(*image.RGBA); ok {
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := (y - rgba.Rect.Min.Y) * rgba.Stride
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				off := row + (x-rgba.Rect.Min.X)*4
				p := rgba.Pix[off : off+3 : off+3]
				out.Pix[i] = luma8(uint32(p[0]), uint32(p[1]), uint32(p[2]))
				i++
			}
		}
		return out
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out.Pix[i] = luma8(r>>8, g>>8, b>>8)
			i++
		}
	}
	return out
}

// luma8 computes integer BT.601 luminance from 8-bit channel values.
func luma8(r, g, b uint32) uint8 {
	return uint8((299*r + 587*g + 114*b) / 1000)
}
