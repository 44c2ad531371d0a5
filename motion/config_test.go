package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "in range untouched",
			in:   Config{Sensitivity: 0.3, MinArea: 500, DeviceIndex: 1},
			want: Config{Sensitivity: 0.3, MinArea: 500, DeviceIndex: 1},
		},
		{
			name: "sensitivity clamped high",
			in:   Config{Sensitivity: 7.3, MinArea: 500},
			want: Config{Sensitivity: 1.0, MinArea: 500},
		},
		{
			name: "sensitivity clamped low",
			in:   Config{Sensitivity: -0.5, MinArea: 500},
			want: Config{Sensitivity: 0.0, MinArea: 500},
		},
		{
			name: "min area floored",
			in:   Config{Sensitivity: 0.5, MinArea: -20},
			want: Config{Sensitivity: 0.5, MinArea: 1},
		},
		{
			name: "device index floored",
			in:   Config{Sensitivity: 0.5, MinArea: 1, DeviceIndex: -3},
			want: Config{Sensitivity: 0.5, MinArea: 1, DeviceIndex: 0},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}

func TestDefaultConfigIsNormalized(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg, cfg.Normalize())
}
