// Package camera - This file contains snapshot persistence: a JPEG saver
// with the motion_YYYYMMDD_HHMMSS naming convention and an asynchronous
// writer so disk I/O never blocks the next frame fetch.
package camera

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Saver persists a motion snapshot and returns the written path.
type Saver interface {
	Save(img image.Image, ts time.Time) (string, error)
}

// JPEGSaver writes snapshots as JPEG files named
// motion_YYYYMMDD_HHMMSS.jpg inside Dir, creating the directory on first
// use.
type JPEGSaver struct {
	// Dir is the output directory. Empty means the current working
	// directory.
	Dir string
	// Quality is the JPEG quality (1-100). Zero selects the encoder
	// default.
	Quality int
}

// Save encodes img to Dir with the timestamped naming convention. Failures
// are reported to the caller and never affect detection.
func (s *JPEGSaver) Save(img image.Image, ts time.Time) (string, error) {
	dir := s.Dir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrap(err, "create snapshot directory")
		}
	}

	name := fmt.Sprintf("motion_%s.jpg", ts.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create snapshot file")
	}
	defer f.Close()

	opt := &jpeg.Options{Quality: jpeg.DefaultQuality}
	if s.Quality > 0 {
		opt.Quality = s.Quality
	}
	if err := jpeg.Encode(f, img, opt); err != nil {
		return "", errors.Wrap(err, "encode snapshot")
	}
	return path, nil
}

// SnapshotResult reports the outcome of one asynchronous snapshot write.
type SnapshotResult struct {
	Path string
	Time time.Time
	Err  error
}

type snapshotJob struct {
	img image.Image
	ts  time.Time
}

// AsyncWriter persists snapshots on a background goroutine through a bounded
// queue. Enqueue never blocks: when the queue is full the snapshot is
// dropped and reported, since a lost snapshot is acceptable while a stalled
// detection loop is not.
type AsyncWriter struct {
	saver   Saver
	jobs    chan snapshotJob
	results chan SnapshotResult
	done    chan struct{}
}

// NewAsyncWriter starts a writer draining a queue of the given depth into
// saver. Depth values below 1 are raised to 1.
func NewAsyncWriter(saver Saver, depth int) *AsyncWriter {
	if depth < 1 {
		depth = 1
	}
	w := &AsyncWriter{
		saver:   saver,
		jobs:    make(chan snapshotJob, depth),
		results: make(chan SnapshotResult, depth),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for job := range w.jobs {
		path, err := w.saver.Save(job.img, job.ts)
		result := SnapshotResult{Path: path, Time: job.ts, Err: err}
		select {
		case w.results <- result:
		default:
			// Nobody draining results; drop the oldest so the latest
			// outcome is always observable.
			select {
			case <-w.results:
			default:
			}
			select {
			case w.results <- result:
			default:
			}
		}
	}
}

// Enqueue schedules a snapshot write. Reports false if the queue is full and
// the snapshot was dropped.
func (w *AsyncWriter) Enqueue(img image.Image, ts time.Time) bool {
	select {
	case w.jobs <- snapshotJob{img: img, ts: ts}:
		return true
	default:
		return false
	}
}

// Results exposes write outcomes for status reporting.
func (w *AsyncWriter) Results() <-chan SnapshotResult {
	return w.results
}

// Close drains remaining jobs and stops the writer. In-flight writes finish
// before Close returns.
func (w *AsyncWriter) Close() {
	close(w.jobs)
	<-w.done
}
