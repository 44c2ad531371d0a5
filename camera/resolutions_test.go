package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileByName(t *testing.T) {
	vga, ok := ProfileByName(ProfileVGA)
	require.True(t, ok)
	assert.Equal(t, 640, vga.Width)
	assert.Equal(t, 480, vga.Height)

	_, ok = ProfileByName("Betamax")
	assert.False(t, ok)
}

func TestMatchProfile(t *testing.T) {
	p, ok := MatchProfile(1280, 720)
	require.True(t, ok)
	assert.Equal(t, ProfileHD720, p.Name)

	_, ok = MatchProfile(628, 472)
	assert.False(t, ok)

	// Swapped dimensions are not a match.
	_, ok = MatchProfile(480, 640)
	assert.False(t, ok)
}

func TestProfileString(t *testing.T) {
	vga, _ := ProfileByName(ProfileVGA)
	assert.Equal(t, "VGA (640x480)", vga.String())
}

func TestDeviceLabel(t *testing.T) {
	assert.Equal(t, "640x480 (VGA)", Device{Index: 0, Width: 640, Height: 480}.Label())
	assert.Equal(t, "628x472", Device{Index: 1, Width: 628, Height: 472}.Label())
}
