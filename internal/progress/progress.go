// Package progress tracks transfer state and derives percentage,
// throughput and ETA figures for observers.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/porterbay/transit/transittypes"
)

// Tracker accumulates transferred bytes for one transfer. Updates are
// serialized, and the observer runs under the same lock so concurrent part
// uploads deliver snapshots in a consistent order.
type Tracker struct {
	mu          sync.Mutex
	total       int64
	transferred int64
	start       time.Time
	observer    transittypes.ProgressObserver
	now         func() time.Time
}

// NewTracker creates a tracker for a transfer of total bytes. The observer
// may be nil, in which case updates only accumulate state.
func NewTracker(total int64, observer transittypes.ProgressObserver) *Tracker {
	return &Tracker{
		total:    total,
		observer: observer,
		start:    time.Now(),
		now:      time.Now,
	}
}

// Update records n more transferred bytes and notifies the observer.
func (t *Tracker) Update(n int64) {
	if t == nil || n == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.transferred += n
	if t.observer != nil {
		t.observer.OnProgress(t.snapshotLocked())
	}
}

// Snapshot returns the current transfer state.
func (t *Tracker) Snapshot() transittypes.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() transittypes.ProgressSnapshot {
	elapsed := t.now().Sub(t.start)
	snap := transittypes.ProgressSnapshot{
		TotalBytes:       t.total,
		TransferredBytes: t.transferred,
		Elapsed:          elapsed,
	}

	if t.total > 0 {
		snap.Percentage = float64(t.transferred) / float64(t.total) * 100
	}

	if secs := elapsed.Seconds(); secs > 0 {
		snap.Throughput = float64(t.transferred) / secs
	}

	if snap.Throughput > 0 {
		remaining := float64(t.total - t.transferred)
		if remaining < 0 {
			remaining = 0
		}
		snap.ETA = time.Duration(remaining / snap.Throughput * float64(time.Second))
	}

	return snap
}

// Reader wraps an io.Reader and reports bytes read to a tracker.
type Reader struct {
	r       io.Reader
	tracker *Tracker
}

// NewReader creates a progress-reporting reader. A nil tracker leaves the
// reader transparent.
func NewReader(r io.Reader, tracker *Tracker) *Reader {
	return &Reader{r: r, tracker: tracker}
}

// Read implements io.Reader.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.tracker.Update(int64(n))
	}
	return n, err
}

// FormatBytes renders a byte count in human-readable units.
func FormatBytes(n int64) string {
	if n == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}

	if i == 0 {
		return fmt.Sprintf("%d %s", n, units[0])
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

// FormatETA renders a duration as MM:SS for display next to a transfer.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}

	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
