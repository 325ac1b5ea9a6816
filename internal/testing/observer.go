package testing

import (
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/stratus/internal/provisioning"
)

// RecordingObserver captures events for assertions. It is safe for concurrent use.
type RecordingObserver struct {
	mu       sync.Mutex
	events   []provisioning.Event
	progress []int
}

var _ provisioning.Observer = (*RecordingObserver)(nil)

// Event records event.
func (r *RecordingObserver) Event(event provisioning.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Progress records current.
func (r *RecordingObserver) Progress(_ string, current, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, current)
}

// WithFields returns r; fields are not recorded.
func (r *RecordingObserver) WithFields(map[string]string) provisioning.Observer {
	return r
}

// Logger returns a discarding logger.
func (r *RecordingObserver) Logger() logr.Logger {
	return logr.Discard()
}

// Events returns a copy of every recorded event.
func (r *RecordingObserver) Events() []provisioning.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]provisioning.Event(nil), r.events...)
}

// OfType returns the recorded events of type t.
func (r *RecordingObserver) OfType(t provisioning.EventType) []provisioning.Event {
	var out []provisioning.Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ProgressValues returns every reported progress value.
func (r *RecordingObserver) ProgressValues() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.progress...)
}
