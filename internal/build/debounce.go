package build

import (
	"sync"
	"time"
)

type fsEventKind int

const (
	eventCreate fsEventKind = iota
	eventModify
	eventRemove
)

// debouncer batches raw filesystem events behind a single quiescence timer,
// the same shape as the teacher's eventDebouncer (internal/indexing/watcher.go)
// with a configurable quiescence window (500ms by default, see
// internal/config): the latest event kind wins per path, and a flush
// processes removes, then modifies, then creates.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	events map[string]fsEventKind
	timer  *time.Timer
	coord  *Coordinator
}

func newDebouncer(window time.Duration, coord *Coordinator) *debouncer {
	return &debouncer{
		window: window,
		events: make(map[string]fsEventKind),
		coord:  coord,
	}
}

func (d *debouncer) addEvent(path string, kind fsEventKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.events[path] = kind
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// run blocks until stopCh closes. Pending events at shutdown are dropped
// rather than flushed, matching the teacher's rationale: flushing during
// shutdown can call back into state that's already being torn down.
func (d *debouncer) run(wg *sync.WaitGroup, stopCh <-chan struct{}) {
	defer wg.Done()
	<-stopCh

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]fsEventKind)
	d.mu.Unlock()
}

func (d *debouncer) flush() {
	d.mu.Lock()
	events := d.events
	d.events = make(map[string]fsEventKind)
	d.mu.Unlock()

	if len(events) == 0 {
		return
	}

	var removes, modifies, creates []string
	for path, kind := range events {
		switch kind {
		case eventRemove:
			removes = append(removes, path)
		case eventModify:
			modifies = append(modifies, path)
		case eventCreate:
			creates = append(creates, path)
		}
	}

	for _, path := range removes {
		d.coord.dispatchRemove(path)
	}
	for _, path := range modifies {
		d.coord.dispatchModify(path)
	}
	for _, path := range creates {
		d.coord.dispatchCreate(path)
	}
}
