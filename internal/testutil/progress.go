package testutil

import (
	"sync"

	"github.com/porterbay/transit/transittypes"
)

// RecordingObserver captures every progress snapshot it receives. Safe for
// concurrent use, since multipart uploads report from several goroutines.
type RecordingObserver struct {
	mu        sync.Mutex
	snapshots []transittypes.ProgressSnapshot
}

// OnProgress implements transittypes.ProgressObserver.
func (r *RecordingObserver) OnProgress(snapshot transittypes.ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

// Snapshots returns a copy of everything observed so far.
func (r *RecordingObserver) Snapshots() []transittypes.ProgressSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]transittypes.ProgressSnapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Last returns the most recent snapshot, if any.
func (r *RecordingObserver) Last() (transittypes.ProgressSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return transittypes.ProgressSnapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

// Count returns how many snapshots were observed.
func (r *RecordingObserver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// Ensure RecordingObserver implements the observer interface
var _ transittypes.ProgressObserver = (*RecordingObserver)(nil)
