package panel

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-motion/camera"
	"github.com/nvr-ai/go-motion/controller"
	"github.com/nvr-ai/go-motion/motion"
)

// stubCamera delivers an endless stream of identical frames, paced so the
// detection loop does not spin.
type stubCamera struct {
	img image.Image
}

func newStubCamera() *stubCamera {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{60, 60, 60, 255})
		}
	}
	return &stubCamera{img: img}
}

func (s *stubCamera) NextFrame(timeout time.Duration) (camera.Frame, error) {
	time.Sleep(time.Millisecond)
	return camera.Frame{Image: s.img, Width: 32, Height: 24, Timestamp: time.Now()}, nil
}

func (s *stubCamera) Resolution() (int, int) { return 32, 24 }
func (s *stubCamera) Close() error           { return nil }

type stubOpener struct {
	err error
}

func (o *stubOpener) Open(index int) (camera.Camera, error) {
	if o.err != nil {
		return nil, o.err
	}
	return newStubCamera(), nil
}

// runSession feeds a scripted command sequence through a panel bound to a
// live coordinator and returns the rendered output.
func runSession(t *testing.T, opener camera.Opener, script string) string {
	t.Helper()

	hub := controller.NewHub()
	sub := hub.Subscribe(64)
	c := controller.New(controller.Options{
		Opener: opener,
		Hub:    hub,
		Config: motion.DefaultConfig(),
	})
	go c.Run()
	t.Cleanup(c.Shutdown)

	var out bytes.Buffer
	p := New(c, sub, strings.NewReader(script), &out)
	require.NoError(t, p.Run())
	return out.String()
}

func TestPanelConfigCommands(t *testing.T) {
	out := runSession(t, &stubOpener{},
		"sensitivity 0.8\nminarea 200\nstatus\nquit\n")

	assert.Contains(t, out, "sensitivity set to 0.80")
	assert.Contains(t, out, "min-area set to 200")
	assert.Contains(t, out, "state: idle")
}

func TestPanelClampsOutOfRangeValues(t *testing.T) {
	out := runSession(t, &stubOpener{},
		"sensitivity 5\nminarea -10\nquit\n")

	assert.Contains(t, out, "sensitivity set to 1.00")
	assert.Contains(t, out, "min-area set to 1")
}

func TestPanelUsageMessages(t *testing.T) {
	out := runSession(t, &stubOpener{},
		"sensitivity\nsensitivity high\nminarea\ndevice abc\nquit\n")

	assert.Contains(t, out, "usage: sensitivity <0.0-1.0>")
	assert.Contains(t, out, "usage: minarea <pixels>")
	assert.Contains(t, out, "usage: device <index>")
}

func TestPanelUnknownCommand(t *testing.T) {
	out := runSession(t, &stubOpener{}, "bogus\nquit\n")
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestPanelStartStop(t *testing.T) {
	out := runSession(t, &stubOpener{}, "start\nstop\nquit\n")

	assert.Contains(t, out, "detection started")
	assert.Contains(t, out, "detection stopped")
}

func TestPanelStartFailure(t *testing.T) {
	opener := &stubOpener{err: errors.Wrap(camera.ErrCameraUnavailable, "device 0")}
	out := runSession(t, opener, "start\nquit\n")

	assert.Contains(t, out, "start failed:")
	assert.Contains(t, out, "camera unavailable")
}

func TestPanelSnapshotWithoutSaver(t *testing.T) {
	out := runSession(t, &stubOpener{}, "snapshot\nquit\n")
	assert.Contains(t, out, "snapshot failed:")
}

func TestPanelEndOfInputEndsSession(t *testing.T) {
	out := runSession(t, &stubOpener{}, "")
	assert.Contains(t, out, "motion control panel")
}

func TestPanelIgnoresBlankLines(t *testing.T) {
	out := runSession(t, &stubOpener{}, "\n   \nquit\n")
	assert.NotContains(t, out, "unknown command")
}
