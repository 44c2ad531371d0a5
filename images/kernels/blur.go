// Package kernels implements the convolution passes used by frame
// preprocessing. The blur here runs once per captured frame, so it is written
// for real-time pipelines: separable passes, sliding-window accumulators, and
// integer math only.
package kernels

import "sync"

// EdgeMode defines how sampling behaves outside the image bounds.
// - Clamp: repeats edge pixels (fast, common, can darken edges slightly).
// - Mirror: reflects coordinates (better edge energy preservation).
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeMirror
)

// Options configures a blur call.
type Options struct {
	Radius   int      // Blur radius (window size = 2*Radius + 1). Must be >= 0.
	Edge     EdgeMode // Edge sampling mode.
	Parallel bool     // Enable row/column parallelism (good for 1080p+).
}

// BoxBlurGray applies a fast, separable box blur to a single-channel
// intensity grid and returns a new pixel slice of the same length.
//
// The sliding window gives O(1) updates per pixel: the initial sum covers
// [-r..+r], then each step subtracts the sample leaving on one side and adds
// the sample entering on the other. Cost is O(W*H) per pass, independent of
// Radius.
//
// Division rounds to nearest, so a uniform input is returned unchanged and
// blurring the same frame twice yields identical grids.
func BoxBlurGray(src []uint8, width, height int, opt Options) []uint8 {
	r := opt.Radius
	if r <= 0 || width == 0 || height == 0 {
		out := make([]uint8, len(src))
		copy(out, src)
		return out
	}

	tmp := make([]uint8, len(src))
	dst := make([]uint8, len(src))
	blurHoriz(src, tmp, width, height, r, opt.Edge, opt.Parallel)
	blurVert(tmp, dst, width, height, r, opt.Edge, opt.Parallel)
	return dst
}

// blurHoriz applies the horizontal pass using a per-row sliding window.
func blurHoriz(src, dst []uint8, w, h, r int, edge EdgeMode, parallel bool) {
	window := uint32(2*r + 1)
	half := window / 2

	rowTask := func(y int) {
		row := y * w
		load := func(x int) uint32 {
			return uint32(src[row+mapCoord(x, w, edge)])
		}

		var sum uint32
		for dx := -r; dx <= r; dx++ {
			sum += load(dx)
		}
		for x := 0; x < w; x++ {
			dst[row+x] = uint8((sum + half) / window)
			sum += load(x+r+1) - load(x-r)
		}
	}

	if !parallel || h < 4 {
		for y := 0; y < h; y++ {
			rowTask(y)
		}
		return
	}

	chunk := chooseChunk(h)
	var wg sync.WaitGroup
	for start := 0; start < h; start += chunk {
		end := start + chunk
		if end > h {
			end = h
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				rowTask(y)
			}
		}(start, end)
	}
	wg.Wait()
}

// blurVert mirrors the horizontal pass along columns, striding by width.
func blurVert(src, dst []uint8, w, h, r int, edge EdgeMode, parallel bool) {
	window := uint32(2*r + 1)
	half := window / 2

	colTask := func(x int) {
		load := func(y int) uint32 {
			return uint32(src[mapCoord(y, h, edge)*w+x])
		}

		var sum uint32
		for dy := -r; dy <= r; dy++ {
			sum += load(dy)
		}
		for y := 0; y < h; y++ {
			dst[y*w+x] = uint8((sum + half) / window)
			sum += load(y+r+1) - load(y-r)
		}
	}

	if !parallel || w < 4 {
		for x := 0; x < w; x++ {
			colTask(x)
		}
		return
	}

	chunk := chooseChunk(w)
	var wg sync.WaitGroup
	for start := 0; start < w; start += chunk {
		end := start + chunk
		if end > w {
			end = w
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for x := s; x < e; x++ {
				colTask(x)
			}
		}(start, end)
	}
	wg.Wait()
}

// mapCoord maps an index i to [0, n) according to edge mode.
func mapCoord(i, n int, mode EdgeMode) int {
	switch mode {
	case EdgeMirror:
		if n == 1 {
			return 0
		}
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	default: // EdgeClamp
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

// chooseChunk picks a work chunk size that balances goroutine overhead and
// cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
