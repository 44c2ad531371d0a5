// Package motion - This file contains the tunable detection configuration.
package motion

// Config contains the tunable parameters for motion detection. It is owned
// by the detection loop coordinator and updated only through explicit
// commands; the decision engine reads a consistent copy each cycle.
type Config struct {
	// Sensitivity in [0, 1]. Higher values flag smaller intensity changes;
	// it maps inversely to the per-pixel difference threshold.
	Sensitivity float64
	// MinArea is the minimum connected-region pixel count (inclusive) for a
	// change region to count as motion. Smaller regions are noise.
	MinArea int
	// DeviceIndex selects the capture device.
	DeviceIndex int
}

// DefaultConfig mirrors the defaults of the command-line surface:
// device 0, sensitivity 0.3, minimum area 500.
func DefaultConfig() Config {
	return Config{
		Sensitivity: 0.3,
		MinArea:     500,
		DeviceIndex: 0,
	}
}

// Normalize clamps all fields into their valid ranges and returns the
// result. Out-of-range command values are clamped, never rejected.
func (c Config) Normalize() Config {
	if c.Sensitivity < 0 {
		c.Sensitivity = 0
	}
	if c.Sensitivity > 1 {
		c.Sensitivity = 1
	}
	if c.MinArea < 1 {
		c.MinArea = 1
	}
	if c.DeviceIndex < 0 {
		c.DeviceIndex = 0
	}
	return c
}
