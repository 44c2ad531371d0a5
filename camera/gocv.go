// Package camera - This file contains the gocv-backed capture
// implementation: device probing, acquisition with requested capture
// properties, and a reader pump that makes frame fetches time-boundable.
package camera

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// maxProbeIndex bounds device discovery; consumer machines rarely expose
	// more than a handful of capture devices.
	maxProbeIndex = 8
)

// GoCVOpener opens capture devices through OpenCV. The requested capture
// properties are hints; drivers may ignore them, so callers should trust the
// dimensions reported on delivered frames rather than the request.
type GoCVOpener struct {
	Width  int
	Height int
	FPS    int
}

// NewOpener returns an opener requesting the VGA capture profile at 30 FPS.
func NewOpener() *GoCVOpener {
	vga, _ := ProfileByName(ProfileVGA)
	return &GoCVOpener{Width: vga.Width, Height: vga.Height, FPS: 30}
}

// Open acquires the device at index. Fails with ErrCameraUnavailable
// (wrapped with the driver's reason) and releases any partially acquired
// handle; on failure nothing is leaked.
func (o *GoCVOpener) Open(index int) (Camera, error) {
	cap, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, errors.Wrapf(ErrCameraUnavailable, "device %d: %v", index, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return nil, errors.Wrapf(ErrCameraUnavailable,
			"device %d: not opened, check that the device exists and is not in use", index)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, float64(o.Width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(o.Height))
	cap.Set(gocv.VideoCaptureFPS, float64(o.FPS))

	c := &gocvCamera{
		cap:    cap,
		width:  int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height: int(cap.Get(gocv.VideoCaptureFrameHeight)),
		frames: make(chan Frame, 1),
		errs:   make(chan error, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.pump()
	return c, nil
}

// ListDevices probes capture indices and reports the ones that deliver a
// frame, with their resolution. Probing opens and releases each device, so
// avoid calling it while a capture is running.
func ListDevices() []Device {
	var devices []Device
	for i := 0; i < maxProbeIndex; i++ {
		cap, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if cap.IsOpened() {
			img := gocv.NewMat()
			if cap.Read(&img) && !img.Empty() {
				devices = append(devices, Device{
					Index:  i,
					Width:  img.Cols(),
					Height: img.Rows(),
				})
			}
			img.Close()
		}
		_ = cap.Close()
	}
	return devices
}

// gocvCamera owns the native capture handle for the duration of an episode.
// A dedicated reader goroutine performs the blocking driver reads so that
// NextFrame can enforce its timeout; the handle is only released after that
// goroutine has exited.
type gocvCamera struct {
	cap    *gocv.VideoCapture
	width  int
	height int

	frames chan Frame
	errs   chan error
	stop   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// pump reads frames until the camera is closed or the device fails. The
// delivery channel holds a single frame: if the consumer lags, the stale
// frame is replaced so the stream stays current instead of drifting behind.
func (c *gocvCamera) pump() {
	defer close(c.done)

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		if ok := c.cap.Read(&img); !ok {
			select {
			case c.errs <- errors.Wrap(ErrCameraUnavailable, "device read failed"):
			case <-c.stop:
			}
			return
		}
		if img.Empty() {
			continue
		}

		goImg, err := img.ToImage()
		if err != nil {
			continue
		}
		frame := Frame{
			Image:     goImg,
			Width:     img.Cols(),
			Height:    img.Rows(),
			Timestamp: time.Now(),
		}

		select {
		case c.frames <- frame:
		case <-c.stop:
			return
		default:
			// Consumer mid-cycle: drop the stale frame, keep the fresh one.
			select {
			case <-c.frames:
			default:
			}
			select {
			case c.frames <- frame:
			default:
			}
		}
	}
}

func (c *gocvCamera) NextFrame(timeout time.Duration) (Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-c.frames:
		return frame, nil
	case err := <-c.errs:
		return Frame{}, err
	case <-timer.C:
		return Frame{}, ErrFrameTimeout
	case <-c.stop:
		return Frame{}, ErrCameraClosed
	}
}

func (c *gocvCamera) Resolution() (int, int) {
	return c.width, c.height
}

// Close stops the reader pump and releases the device. Idempotent.
func (c *gocvCamera) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
		c.closeErr = c.cap.Close()
	})
	return c.closeErr
}
