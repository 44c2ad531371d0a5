// Package motion implements the frame-difference analyzer and the decision
// engine that turns per-frame region lists into debounced motion events.
//
// The analyzer compares two preprocessed frames and extracts connected
// regions of intensity change; the decision engine (decision.go) filters
// those regions by area and emits an event on each no-motion to motion
// transition. Keeping the two apart means the analyzer's output is testable
// independent of any threshold tuning.
package motion

import (
	"image"
	"sort"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-motion/images"
)

// ErrDimensionMismatch indicates that the previous and current frame have
// different dimensions, typically after a resolution change mid-run. The
// coordinator resets its previous-frame reference on this error; it is never
// fatal.
var ErrDimensionMismatch = errors.New("frame dimension mismatch")

// BaseThreshold is the per-pixel intensity difference required at
// sensitivity 0. The effective threshold scales down linearly as sensitivity
// rises; at the default sensitivity midpoint this reproduces the classic
// fixed threshold of 25 used by OpenCV frame-differencing pipelines.
const BaseThreshold = 50.0

// Region is one connected blob of sufficient intensity change between two
// frames: its bounding rectangle and its pixel-area measure.
type Region struct {
	Bounds image.Rectangle
	Area   int
}

// DiffThreshold derives the binarization threshold from a sensitivity value.
//
// threshold = BaseThreshold * (1 - sensitivity), clamped to [1, 255].
//
// The mapping is monotonically non-increasing in sensitivity: sensitivity 1
// flags even a single-step intensity change, sensitivity 0 requires the full
// base threshold. Sensitivity outside [0, 1] is clamped first.
func DiffThreshold(sensitivity float64) uint8 {
	if sensitivity < 0 {
		sensitivity = 0
	}
	if sensitivity > 1 {
		sensitivity = 1
	}
	t := BaseThreshold * (1 - sensitivity)
	if t < 1 {
		t = 1
	}
	if t > 255 {
		t = 255
	}
	return uint8(t)
}

// Analyze compares two preprocessed frames and returns every connected
// region of change, unfiltered by area. Area filtering belongs to the
// decision engine.
//
// The per-pixel absolute intensity difference is binarized against the
// sensitivity-derived threshold (inclusive: diff >= threshold qualifies),
// then adjacent qualifying pixels are grouped into connected components
// using 8-connectivity (diagonal neighbors join a region).
//
// Regions are ordered by area descending; ties break on bounding-box
// top-left raster position (y, then x), so output order is deterministic.
//
// Fails with ErrDimensionMismatch if the frames disagree in size and
// images.ErrInvalidFrame if either frame is empty.
func Analyze(prev, curr *images.Gray, sensitivity float64) ([]Region, error) {
	if prev == nil || curr == nil || prev.Width <= 0 || prev.Height <= 0 {
		return nil, images.ErrInvalidFrame
	}
	if !prev.SameSize(curr) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "prev %dx%d vs curr %dx%d",
			prev.Width, prev.Height, curr.Width, curr.Height)
	}

	threshold := DiffThreshold(sensitivity)
	w, h := curr.Width, curr.Height

	// Binary change mask: 1 where the absolute difference clears the
	// threshold. Reused below as the visited map for labeling (cleared to 0
	// as pixels are claimed by a component).
	mask := make([]uint8, w*h)
	for i := range mask {
		d := int(curr.Pix[i]) - int(prev.Pix[i])
		if d < 0 {
			d = -d
		}
		if d >= int(threshold) {
			mask[i] = 1
		}
	}

	regions := collectRegions(mask, w, h)
	sortRegions(regions)
	return regions, nil
}

// collectRegions groups qualifying mask pixels into 8-connected components
// via iterative flood fill, computing each component's bounding box and
// pixel area. The mask is consumed in the process.
func collectRegions(mask []uint8, w, h int) []Region {
	var regions []Region
	var stack []int

	for start, v := range mask {
		if v == 0 {
			continue
		}

		mask[start] = 0
		stack = append(stack[:0], start)
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		area := 0

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w

			area++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					n := ny*w + nx
					if mask[n] != 0 {
						mask[n] = 0
						stack = append(stack, n)
					}
				}
			}
		}

		regions = append(regions, Region{
			Bounds: image.Rect(minX, minY, maxX+1, maxY+1),
			Area:   area,
		})
	}
	return regions
}

// sortRegions orders regions by area descending, then by bounding-box
// top-left raster position.
func sortRegions(regions []Region) {
	sort.Slice(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Area != b.Area {
			return a.Area > b.Area
		}
		if a.Bounds.Min.Y != b.Bounds.Min.Y {
			return a.Bounds.Min.Y < b.Bounds.Min.Y
		}
		return a.Bounds.Min.X < b.Bounds.Min.X
	})
}
