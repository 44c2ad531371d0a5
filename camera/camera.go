// Package camera wraps video device access behind a small collaborator
// interface so the detection loop never touches driver state directly. The
// real implementation (gocv.go) owns the native capture handle; everything
// above it sees frames as plain Go images with explicit acquire/release
// semantics.
package camera

import (
	"image"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrCameraUnavailable indicates a device open failure: absent, busy, or
	// permission denied. Start fails and the coordinator stays Idle.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrFrameTimeout indicates the bounded frame fetch elapsed without a
	// frame. The coordinator retries once before escalating.
	ErrFrameTimeout = errors.New("frame fetch timed out")
	// ErrCameraClosed indicates a fetch against a released camera.
	ErrCameraClosed = errors.New("camera closed")
)

// Frame is one captured video frame. Immutable once produced; ownership
// passes from the camera to the pipeline stage holding it.
type Frame struct {
	Image     image.Image
	Width     int
	Height    int
	Timestamp time.Time
}

// Camera delivers frames from an open capture device. Implementations must
// make NextFrame honor its timeout even when the underlying driver read
// blocks.
type Camera interface {
	// NextFrame blocks up to timeout for the next frame. Fails with
	// ErrFrameTimeout on expiry and ErrCameraUnavailable if the device is
	// lost mid-stream.
	NextFrame(timeout time.Duration) (Frame, error)
	// Resolution returns the capture dimensions.
	Resolution() (width, height int)
	// Close releases the underlying device. Safe to call more than once.
	Close() error
}

// Opener acquires cameras by device index. It exists so the detection loop
// can be exercised in tests without any capture hardware.
type Opener interface {
	Open(index int) (Camera, error)
}

// Device describes one detected capture device.
type Device struct {
	Index  int
	Width  int
	Height int
}
