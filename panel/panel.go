// Package panel implements the interactive control surface as a terminal
// session: a command prompt driving the coordinator plus a live activity
// feed rendered from a shared-state-channel subscription.
//
// The panel is purely a consumer/producer against the coordinator's
// command and status contract; it never touches the camera or the pipeline.
package panel

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/nvr-ai/go-motion/controller"
)

// Panel drives a coordinator from a line-oriented input stream and renders
// status transitions and motion events to an output stream.
type Panel struct {
	ctrl *controller.Coordinator
	sub  *controller.Subscription
	in   io.Reader

	mu  sync.Mutex
	out io.Writer

	feedStop chan struct{}
	feedDone chan struct{}
}

// New creates a panel bound to a coordinator and a hub subscription.
func New(ctrl *controller.Coordinator, sub *controller.Subscription, in io.Reader, out io.Writer) *Panel {
	return &Panel{
		ctrl:     ctrl,
		sub:      sub,
		in:       in,
		out:      out,
		feedStop: make(chan struct{}),
		feedDone: make(chan struct{}),
	}
}

// Run processes commands until "quit" or end of input. The activity feed
// runs concurrently and is stopped before Run returns.
func (p *Panel) Run() error {
	go p.feed()
	defer func() {
		close(p.feedStop)
		<-p.feedDone
	}()

	p.printf("motion control panel - commands: start stop sensitivity <0..1> minarea <px> device <n> snapshot status quit")

	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if p.execute(line) {
			return nil
		}
	}
	return scanner.Err()
}

// execute runs one command line. Reports true when the session should end.
func (p *Panel) execute(line string) (done bool) {
	fields := strings.Fields(line)
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "start":
		if err := p.ctrl.Start(); err != nil {
			p.printf("start failed: %v", err)
		} else {
			p.printf("detection started")
		}
	case "stop":
		if err := p.ctrl.Stop(); err != nil {
			p.printf("stop failed: %v", err)
		} else {
			p.printf("detection stopped")
		}
	case "sensitivity":
		v, err := argFloat(args)
		if err != nil {
			p.printf("usage: sensitivity <0.0-1.0>")
			break
		}
		applied, err := p.ctrl.SetSensitivity(v)
		if err != nil {
			p.printf("sensitivity update failed: %v", err)
			break
		}
		p.printf("sensitivity set to %.2f", applied)
	case "minarea":
		n, err := argInt(args)
		if err != nil {
			p.printf("usage: minarea <pixels>")
			break
		}
		applied, err := p.ctrl.SetMinArea(n)
		if err != nil {
			p.printf("min-area update failed: %v", err)
			break
		}
		p.printf("min-area set to %d", applied)
	case "device":
		n, err := argInt(args)
		if err != nil {
			p.printf("usage: device <index>")
			break
		}
		if err := p.ctrl.SetDevice(n); err != nil {
			p.printf("device switch failed: %v", err)
			break
		}
		p.printf("device set to %d", n)
	case "snapshot":
		if err := p.ctrl.SnapshotNow(); err != nil {
			p.printf("snapshot failed: %v", err)
		} else {
			p.printf("snapshot scheduled")
		}
	case "status":
		p.printStatus()
	case "quit", "exit":
		return true
	default:
		p.printf("unknown command %q", verb)
	}
	return false
}

// feed renders published events and noteworthy status changes, the
// terminal equivalent of the GUI's activity log.
func (p *Panel) feed() {
	defer close(p.feedDone)

	lastState := controller.Idle
	for {
		select {
		case <-p.feedStop:
			return
		case <-p.sub.Notify():
		}

		for {
			event, ok := p.sub.NextEvent()
			if !ok {
				break
			}
			suffix := ""
			if event.Snapshot {
				suffix = " (snapshot scheduled)"
			}
			p.printf("[%s] MOTION DETECTED #%d: %d region(s)%s",
				event.Time.Format("15:04:05"), event.Sequence, len(event.Regions), suffix)
		}

		if status, ok := p.sub.Status(); ok {
			if status.Notice != "" {
				p.printf("[%s] %s", status.Time.Format("15:04:05"), status.Notice)
			}
			if status.State != lastState {
				p.printf("[%s] state: %s", status.Time.Format("15:04:05"), status.State)
				lastState = status.State
			}
		}
	}
}

func (p *Panel) printStatus() {
	cfg := p.ctrl.Config()
	status, ok := p.sub.Status()
	if !ok {
		p.printf("state: idle | sensitivity %.2f | min-area %d | device %d",
			cfg.Sensitivity, cfg.MinArea, cfg.DeviceIndex)
		return
	}
	p.printf("state: %s | %dx%d @ %.1f fps | events %d | sensitivity %.2f | min-area %d | device %d",
		status.State, status.Width, status.Height, status.FPS,
		status.EventCount, cfg.Sensitivity, cfg.MinArea, cfg.DeviceIndex)
}

func (p *Panel) printf(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func argFloat(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one argument")
	}
	return strconv.ParseFloat(args[0], 64)
}

func argInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one argument")
	}
	return strconv.Atoi(args[0])
}
