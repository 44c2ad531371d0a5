// Package controller - This file contains the detection loop coordinator:
// camera ownership, the per-cycle pipeline, the state machine, and status
// publication.
//
// One background goroutine runs the loop. The control side talks to it only
// through the command queue (commands.go) and observes it only through the
// shared state channel (channel.go); there is no other shared mutable state.
package controller

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-motion/camera"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/motion"
)

const (
	// DefaultFetchTimeout bounds a single frame fetch. One stall is retried;
	// a second consecutive stall ends the episode.
	DefaultFetchTimeout = 2 * time.Second
	// DefaultSnapshotQueue is the async snapshot writer depth.
	DefaultSnapshotQueue = 4
	// commandQueueDepth bounds pending control commands.
	commandQueueDepth = 16
)

// Options configures a Coordinator.
type Options struct {
	// Opener acquires cameras. Required.
	Opener camera.Opener
	// Saver persists snapshots. Nil disables snapshot capture.
	Saver camera.Saver
	// Hub receives status snapshots and motion events. Required.
	Hub *Hub
	// Config is the initial detection configuration, normalized on use.
	Config motion.Config
	// Preprocess overrides preprocessing defaults when non-zero.
	Preprocess images.PreprocessOptions
	// FetchTimeout overrides DefaultFetchTimeout when positive.
	FetchTimeout time.Duration
	// Logger receives verbose diagnostics. Nil disables them.
	Logger *log.Logger
}

// Coordinator owns the camera handle and drives the per-cycle pipeline:
// fetch, preprocess, analyze, decide, publish. All of its mutable state is
// confined to the Run goroutine except cfg, which is guarded for the
// Config() accessor.
type Coordinator struct {
	opener camera.Opener
	hub    *Hub
	writer *camera.AsyncWriter
	pre    images.PreprocessOptions
	logger *log.Logger

	cmds chan command
	quit chan struct{}
	done chan struct{}

	cfgMu sync.RWMutex
	cfg   motion.Config

	// Loop-confined state.
	state        State
	cam          camera.Camera
	episode      string
	engine       *motion.Engine
	prev         *images.Gray
	lastImage    camera.Frame
	haveFrame    bool
	meter        fpsMeter
	eventCount   uint64
	lastEvent    time.Time
	notice       string
	stalled      bool
	fetchTimeout time.Duration
}

// New creates a coordinator. Call Run on a dedicated goroutine, then drive
// it through the command methods.
func New(opt Options) *Coordinator {
	pre := opt.Preprocess
	if pre == (images.PreprocessOptions{}) {
		pre = images.DefaultPreprocessOptions()
	}
	timeout := opt.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	c := &Coordinator{
		opener:       opt.Opener,
		hub:          opt.Hub,
		pre:          pre,
		logger:       opt.Logger,
		cmds:         make(chan command, commandQueueDepth),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		cfg:          opt.Config.Normalize(),
		state:        Idle,
		engine:       motion.NewEngine(),
		meter:        newFPSMeter(),
		fetchTimeout: timeout,
	}
	if opt.Saver != nil {
		c.writer = camera.NewAsyncWriter(opt.Saver, DefaultSnapshotQueue)
	}
	return c
}

// Run executes the coordinator loop until Shutdown. While Idle it blocks on
// the command queue; while Running it cycles continuously, applying pending
// commands between cycles.
func (c *Coordinator) Run() {
	defer close(c.done)

	for {
		if c.state == Running {
			// Commands and shutdown are observed between cycles only; no
			// cycle is interrupted mid-computation.
			select {
			case <-c.quit:
				c.teardown()
				return
			case cmd := <-c.cmds:
				c.apply(cmd)
				continue
			default:
			}
			c.drainSnapshotResults()
			c.cycle()
			continue
		}

		select {
		case <-c.quit:
			c.teardown()
			return
		case cmd := <-c.cmds:
			c.apply(cmd)
		case res := <-c.snapshotResults():
			c.reportSnapshot(res)
		}
	}
}

// Shutdown stops the loop, releasing the camera and flushing pending
// snapshot writes. Blocks until the loop has exited.
func (c *Coordinator) Shutdown() {
	close(c.quit)
	<-c.done
}

func (c *Coordinator) teardown() {
	if c.cam != nil {
		_ = c.cam.Close()
		c.cam = nil
	}
	if c.writer != nil {
		c.writer.Close()
	}
	c.state = Idle
	c.publishStatus()
}

// apply executes one command between cycles and acknowledges it.
func (c *Coordinator) apply(cmd command) {
	var res cmdResult
	switch cmd.kind {
	case cmdStart:
		res.err = c.startEpisode(c.Config().DeviceIndex)
	case cmdStop:
		c.stopEpisode()
	case cmdSetSensitivity:
		c.updateConfig(func(cfg *motion.Config) { cfg.Sensitivity = cmd.fval })
	case cmdSetMinArea:
		c.updateConfig(func(cfg *motion.Config) { cfg.MinArea = cmd.ival })
	case cmdSetDevice:
		res.err = c.switchDevice(cmd.ival)
	case cmdSnapshot:
		res.err = c.snapshotNow()
	}
	res.cfg = c.Config()
	cmd.reply <- res
}

func (c *Coordinator) updateConfig(mutate func(*motion.Config)) {
	c.cfgMu.Lock()
	mutate(&c.cfg)
	c.cfg = c.cfg.Normalize()
	c.cfgMu.Unlock()
}

// startEpisode acquires the camera and enters Running. On acquisition
// failure the state stays Idle and nothing is leaked.
func (c *Coordinator) startEpisode(device int) error {
	if c.state != Idle {
		return errors.New("detection already running")
	}

	cam, err := c.opener.Open(device)
	if err != nil {
		c.notice = "camera unavailable: " + err.Error()
		c.publishStatus()
		return err
	}

	c.cam = cam
	c.state = Running
	c.episode = uuid.NewString()
	c.engine.Reset()
	c.prev = nil
	c.haveFrame = false
	c.meter.reset()
	c.eventCount = 0
	c.lastEvent = time.Time{}
	c.stalled = false
	c.logf("episode %s started on device %d", c.episode, device)
	c.publishStatus()
	return nil
}

// stopEpisode releases the camera and returns to Idle, publishing the final
// status snapshot. No-op while Idle.
func (c *Coordinator) stopEpisode() {
	if c.state != Running {
		return
	}
	c.state = Stopping
	c.publishStatus()

	_ = c.cam.Close()
	c.cam = nil
	c.state = Idle
	c.logf("episode %s stopped", c.episode)
	c.publishStatus()
}

// switchDevice changes the capture device. While Running the old camera is
// released and a fresh episode begins on the new device; failure drops to
// Idle so the control surface can retry.
func (c *Coordinator) switchDevice(index int) error {
	c.updateConfig(func(cfg *motion.Config) { cfg.DeviceIndex = index })
	if c.state != Running {
		return nil
	}
	c.stopEpisode()
	return c.startEpisode(c.Config().DeviceIndex)
}

func (c *Coordinator) snapshotNow() error {
	if c.writer == nil {
		return errors.New("snapshot persistence disabled")
	}
	if !c.haveFrame {
		return errors.New("no frame captured yet")
	}
	if !c.writer.Enqueue(c.lastImage.Image, time.Now()) {
		return errors.New("snapshot queue full")
	}
	return nil
}

// cycle runs one iteration of the detection pipeline while Running. Errors
// local to the cycle are absorbed and reported as status; only camera-level
// failures end the episode.
func (c *Coordinator) cycle() {
	frame, err := c.cam.NextFrame(c.fetchTimeout)
	if err != nil {
		c.handleFetchError(err)
		return
	}
	c.stalled = false
	c.lastImage = frame
	c.haveFrame = true

	pp, err := images.Preprocess(frame.Image, c.pre)
	if err != nil {
		// Malformed frame: discard and continue.
		c.notice = "invalid frame discarded"
		c.finishCycle()
		return
	}

	if c.prev == nil {
		// Cannot detect motion on the first frame; seed the reference.
		c.prev = pp
		c.finishCycle()
		return
	}

	cfg := c.Config()
	regions, err := motion.Analyze(c.prev, pp, cfg.Sensitivity)
	if err != nil {
		// Resolution changed mid-run: reset the reference and resume
		// differencing on the next compatible pair.
		c.prev = pp
		c.notice = "resolution changed; differencing reset"
		c.logf("dimension mismatch absorbed: %v", err)
		c.finishCycle()
		return
	}

	_, event := c.engine.Decide(regions, cfg, frame.Timestamp)
	if event != nil {
		if c.writer != nil {
			event.Snapshot = c.writer.Enqueue(frame.Image, frame.Timestamp)
			if !event.Snapshot {
				c.notice = "snapshot queue full; snapshot skipped"
			}
		}
		c.eventCount = event.Sequence
		c.lastEvent = event.Time
		if c.hub.PublishEvent(*event) {
			c.notice = "event backlog: observer lagging"
		}
		c.logf("motion event %d: %d region(s)", event.Sequence, len(event.Regions))
	}

	c.prev = pp
	c.finishCycle()
}

// finishCycle updates the FPS estimate and publishes the cycle's status.
func (c *Coordinator) finishCycle() {
	c.meter.tick(time.Now())
	c.publishStatus()
}

// handleFetchError implements the stall policy: one retry on timeout, then
// the episode terminates. Device loss terminates immediately.
func (c *Coordinator) handleFetchError(err error) {
	if errors.Is(err, camera.ErrFrameTimeout) && !c.stalled {
		c.stalled = true
		c.notice = "camera stalled; retrying"
		c.publishStatus()
		return
	}

	reason := "camera stalled past retry"
	if !errors.Is(err, camera.ErrFrameTimeout) {
		reason = "camera lost: " + err.Error()
	}
	c.logf("episode %s failed: %s", c.episode, reason)

	_ = c.cam.Close()
	c.cam = nil
	c.state = Idle
	c.notice = reason
	c.publishFailure()
}

func (c *Coordinator) drainSnapshotResults() {
	for {
		select {
		case res := <-c.snapshotResults():
			c.reportSnapshot(res)
		default:
			return
		}
	}
}

// snapshotResults returns the writer's result channel, or nil (blocking
// forever in select) when snapshots are disabled.
func (c *Coordinator) snapshotResults() <-chan camera.SnapshotResult {
	if c.writer == nil {
		return nil
	}
	return c.writer.Results()
}

// reportSnapshot surfaces snapshot write outcomes as status notices. A
// failed write never interrupts detection.
func (c *Coordinator) reportSnapshot(res camera.SnapshotResult) {
	if res.Err != nil {
		c.notice = "snapshot write failed: " + res.Err.Error()
		c.logf("snapshot write failed: %v", res.Err)
	} else {
		c.notice = "snapshot saved: " + res.Path
		c.logf("snapshot saved: %s", res.Path)
	}
	c.publishStatus()
}

func (c *Coordinator) publishStatus() {
	c.publish(false)
}

func (c *Coordinator) publishFailure() {
	c.publish(true)
}

// publish generates the next status snapshot. The notice field is consumed:
// each notice is reported exactly once.
func (c *Coordinator) publish(failed bool) {
	status := Status{
		State:      c.state,
		Episode:    c.episode,
		FPS:        c.meter.fps(),
		EventCount: c.eventCount,
		LastEvent:  c.lastEvent,
		Notice:     c.notice,
		Failed:     failed,
		Time:       time.Now(),
	}
	if c.haveFrame {
		status.Width = c.lastImage.Width
		status.Height = c.lastImage.Height
	}
	c.notice = ""
	c.hub.PublishStatus(status)
}

func (c *Coordinator) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
