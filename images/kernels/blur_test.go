package kernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, v uint8) []uint8 {
	pix := make([]uint8, w*h)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

func TestBoxBlurGrayUniformUnchanged(t *testing.T) {
	for _, radius := range []int{1, 2, 3} {
		src := uniform(16, 12, 137)
		out := BoxBlurGray(src, 16, 12, Options{Radius: radius, Edge: EdgeClamp})
		require.Len(t, out, len(src))
		for i, v := range out {
			require.Equalf(t, uint8(137), v, "radius %d pixel %d", radius, i)
		}
	}
}

func TestBoxBlurGrayZeroRadiusCopies(t *testing.T) {
	src := []uint8{1, 2, 3, 4, 5, 6}
	out := BoxBlurGray(src, 3, 2, Options{Radius: 0})
	require.Equal(t, src, out)

	// The result is a copy, not an alias.
	out[0] = 99
	assert.Equal(t, uint8(1), src[0])
}

func TestBoxBlurGrayImpulseSpreads(t *testing.T) {
	const w, h = 5, 5
	src := make([]uint8, w*h)
	src[2*w+2] = 255

	out := BoxBlurGray(src, w, h, Options{Radius: 1, Edge: EdgeClamp})

	// Horizontal pass turns the center row into [0 85 85 85 0]; the
	// vertical pass then yields (85+1)/3 = 28 across the 3x3 neighborhood.
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			assert.Equalf(t, uint8(28), out[y*w+x], "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, uint8(0), out[0])
	assert.Equal(t, uint8(0), out[4*w+4])
}

func TestBoxBlurGrayParallelMatchesSequential(t *testing.T) {
	const w, h = 64, 48
	src := make([]uint8, w*h)
	for i := range src {
		src[i] = uint8(i*31 + i/w*7)
	}

	seq := BoxBlurGray(src, w, h, Options{Radius: 2, Edge: EdgeClamp})
	par := BoxBlurGray(src, w, h, Options{Radius: 2, Edge: EdgeClamp, Parallel: true})
	require.Equal(t, seq, par)
}

func TestMapCoord(t *testing.T) {
	tests := []struct {
		name string
		mode EdgeMode
		i    int
		n    int
		want int
	}{
		{"clamp below", EdgeClamp, -1, 10, 0},
		{"clamp above", EdgeClamp, 10, 10, 9},
		{"clamp inside", EdgeClamp, 4, 10, 4},
		{"mirror below", EdgeMirror, -1, 10, 0},
		{"mirror below two", EdgeMirror, -2, 10, 1},
		{"mirror above", EdgeMirror, 10, 10, 9},
		{"mirror single", EdgeMirror, 5, 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapCoord(tc.i, tc.n, tc.mode))
		})
	}
}
