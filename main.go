// Command go-motion watches a camera for motion, emitting debounced motion
// events and snapshots. It runs either as a console printer (default) or as
// an interactive control panel (--gui).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nvr-ai/go-motion/camera"
	"github.com/nvr-ai/go-motion/controller"
	"github.com/nvr-ai/go-motion/motion"
	"github.com/nvr-ai/go-motion/panel"
)

const version = "1.0.0"

// DefaultSnapshotDir is where motion snapshots are written.
const DefaultSnapshotDir = "pics"

func main() {
	var (
		device      int
		sensitivity float64
		minArea     int
		verbose     bool
		gui         bool
		showVersion bool
	)
	flag.IntVar(&device, "device", 0, "Camera device index")
	flag.IntVar(&device, "d", 0, "Camera device index (shorthand)")
	flag.Float64Var(&sensitivity, "sensitivity", 0.3, "Motion detection sensitivity (0.0-1.0)")
	flag.Float64Var(&sensitivity, "s", 0.3, "Motion detection sensitivity (shorthand)")
	flag.IntVar(&minArea, "min-area", 500, "Minimum area in pixels for motion detection")
	flag.IntVar(&minArea, "m", 500, "Minimum area in pixels (shorthand)")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose output")
	flag.BoolVar(&verbose, "v", false, "Enable verbose output (shorthand)")
	flag.BoolVar(&gui, "gui", false, "Run the interactive control panel")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("go-motion %s\n", version)
		return
	}

	cfg := motion.Config{
		Sensitivity: sensitivity,
		MinArea:     minArea,
		DeviceIndex: device,
	}.Normalize()

	var logger *log.Logger
	if verbose {
		logger = log.New(os.Stderr, "motion: ", log.LstdFlags)
	}

	if verbose {
		fmt.Println("Motion Detector Starting...")
		fmt.Printf("Device: %d\n", cfg.DeviceIndex)
		fmt.Printf("Sensitivity: %.2f\n", cfg.Sensitivity)
		fmt.Printf("Min Area: %d\n", cfg.MinArea)
		listCameras()
	}

	hub := controller.NewHub()
	sub := hub.Subscribe(64)

	coord := controller.New(controller.Options{
		Opener: camera.NewOpener(),
		Saver:  &camera.JPEGSaver{Dir: DefaultSnapshotDir},
		Hub:    hub,
		Config: cfg,
		Logger: logger,
	})
	go coord.Run()

	if gui {
		if err := panel.New(coord, sub, os.Stdin, os.Stdout).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "panel error: %v\n", err)
		}
		coord.Shutdown()
		return
	}

	os.Exit(runCLI(coord, sub, verbose))
}

// runCLI starts detection immediately and prints events until interrupted.
// Exit code 0 on graceful shutdown, 1 on camera failure.
func runCLI(coord *controller.Coordinator, sub *controller.Subscription, verbose bool) int {
	if err := coord.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		coord.Shutdown()
		return 1
	}
	if verbose {
		fmt.Println("Motion detector active. Press Ctrl+C to stop.")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			_ = coord.Stop()
			coord.Shutdown()
			return 0

		case <-sub.Notify():
			for {
				event, ok := sub.NextEvent()
				if !ok {
					break
				}
				fmt.Printf("[%s] MOTION DETECTED! (#%d)\n",
					event.Time.Format("2006-01-02 15:04:05"), event.Sequence)
			}

			status, ok := sub.Status()
			if !ok {
				continue
			}
			if strings.HasPrefix(status.Notice, "snapshot saved: ") {
				fmt.Printf("  Snapshot saved: %s\n", strings.TrimPrefix(status.Notice, "snapshot saved: "))
			} else if verbose && status.Notice != "" {
				fmt.Printf("  %s\n", status.Notice)
			}
			if status.Failed {
				fmt.Fprintf(os.Stderr, "error: %s\n", status.Notice)
				coord.Shutdown()
				return 1
			}
		}
	}
}

// listCameras probes for capture devices, matching the original tool's
// verbose startup listing.
func listCameras() {
	devices := camera.ListDevices()
	if len(devices) == 0 {
		fmt.Println("Warning: no cameras detected")
		return
	}
	fmt.Println("Available cameras:")
	for _, d := range devices {
		fmt.Printf("  Camera %d - %s\n", d.Index, d.Label())
	}
}
