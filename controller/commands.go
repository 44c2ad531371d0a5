// Package controller - This file contains the command surface: the typed
// commands a control surface can issue and the acknowledged dispatch into
// the coordinator loop.
package controller

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-motion/motion"
)

// ErrShuttingDown is returned for commands issued after Shutdown.
var ErrShuttingDown = errors.New("coordinator shutting down")

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdSetSensitivity
	cmdSetMinArea
	cmdSetDevice
	cmdSnapshot
)

type command struct {
	kind  commandKind
	fval  float64
	ival  int
	reply chan cmdResult
}

type cmdResult struct {
	cfg motion.Config
	err error
}

// dispatch sends a command into the loop and waits for its acknowledgement.
// Commands are applied atomically between cycles, never mid-cycle.
func (c *Coordinator) dispatch(cmd command) cmdResult {
	cmd.reply = make(chan cmdResult, 1)
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return cmdResult{err: ErrShuttingDown}
	}
	select {
	case res := <-cmd.reply:
		return res
	case <-c.done:
		return cmdResult{err: ErrShuttingDown}
	}
}

// Start acquires the configured camera and begins detecting. Fails with
// camera.ErrCameraUnavailable (and stays Idle) if the device cannot be
// opened, and rejects a Start while already running.
func (c *Coordinator) Start() error {
	return c.dispatch(command{kind: cmdStart}).err
}

// Stop ends the Running episode: the in-flight cycle finishes, the camera is
// released, and a final status snapshot is published. A Stop while Idle is a
// no-op.
func (c *Coordinator) Stop() error {
	return c.dispatch(command{kind: cmdStop}).err
}

// SetSensitivity updates the detection sensitivity, clamped to [0, 1], and
// returns the applied value. Takes effect on the next cycle.
func (c *Coordinator) SetSensitivity(v float64) (float64, error) {
	res := c.dispatch(command{kind: cmdSetSensitivity, fval: v})
	return res.cfg.Sensitivity, res.err
}

// SetMinArea updates the minimum qualifying region area, clamped to >= 1,
// and returns the applied value. Takes effect on the next cycle.
func (c *Coordinator) SetMinArea(n int) (int, error) {
	res := c.dispatch(command{kind: cmdSetMinArea, ival: n})
	return res.cfg.MinArea, res.err
}

// SetDevice switches the capture device. While Running the current camera
// is released and the new device acquired immediately, beginning a fresh
// episode; on acquisition failure the coordinator drops to Idle and the
// error is returned.
func (c *Coordinator) SetDevice(index int) error {
	return c.dispatch(command{kind: cmdSetDevice, ival: index}).err
}

// SnapshotNow schedules an immediate snapshot of the most recent frame.
func (c *Coordinator) SnapshotNow() error {
	return c.dispatch(command{kind: cmdSnapshot}).err
}

// Config returns the current detection configuration as of the last applied
// command.
func (c *Coordinator) Config() motion.Config {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.cfg
}
