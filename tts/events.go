package tts

import (
	"sync"
)

// Observer receives controller events. Any callback may be nil. Callbacks
// run on a single dispatch goroutine, one at a time, in emission order.
type Observer struct {
	OnStateChange    func(StateSnapshot)
	OnProgressChange func(current, total int)
	OnError          func(*TTSError)
}

// Event is one of StateEvent, ProgressEvent or ErrorEvent.
type Event interface {
	event()
}

// StateEvent carries a state change.
type StateEvent struct {
	Snapshot StateSnapshot
}

// ProgressEvent carries a playback position.
type ProgressEvent struct {
	Current int
	Total   int

	epoch uint64
}

// ErrorEvent carries an error report.
type ErrorEvent struct {
	Err *TTSError
}

func (StateEvent) event()    {}
func (ProgressEvent) event() {}
func (ErrorEvent) event()    {}

// emitter queues events without blocking the producer and delivers them
// from one goroutine. Progress events of a session that was stopped are
// dropped, even if they were queued before the stop.
type emitter struct {
	observer Observer

	mu     sync.Mutex
	queue  []Event
	cutoff uint64 // progress from epochs <= cutoff is stale
	closed bool
	signal chan struct{}
	done   chan struct{}
}

func newEmitter(observer Observer) *emitter {
	e := &emitter{
		observer: observer,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, ev)
	select {
	case e.signal <- struct{}{}:
	default:
	}
	e.mu.Unlock()
}

// cut marks every progress event of epoch and earlier as stale.
func (e *emitter) cut(epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if epoch > e.cutoff {
		e.cutoff = epoch
	}
	kept := e.queue[:0]
	for _, ev := range e.queue {
		if p, ok := ev.(ProgressEvent); ok && p.epoch <= e.cutoff {
			continue
		}
		kept = append(kept, ev)
	}
	e.queue = kept
}

// close stops accepting events. Events already queued are still delivered.
func (e *emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	close(e.signal)
}

func (e *emitter) next() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for len(e.queue) > 0 {
		ev := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		if p, ok := ev.(ProgressEvent); ok && p.epoch <= e.cutoff {
			continue
		}
		return ev, true
	}
	return nil, false
}

func (e *emitter) run() {
	defer close(e.done)

	for {
		for {
			ev, ok := e.next()
			if !ok {
				break
			}
			e.deliver(ev)
		}
		if _, ok := <-e.signal; !ok {
			// Closed: deliver what arrived between the last drain and close.
			for {
				ev, ok := e.next()
				if !ok {
					return
				}
				e.deliver(ev)
			}
		}
	}
}

func (e *emitter) deliver(ev Event) {
	switch ev := ev.(type) {
	case StateEvent:
		if e.observer.OnStateChange != nil {
			e.observer.OnStateChange(ev.Snapshot)
		}
	case ProgressEvent:
		if e.observer.OnProgressChange != nil {
			e.observer.OnProgressChange(ev.Current, ev.Total)
		}
	case ErrorEvent:
		if e.observer.OnError != nil {
			e.observer.OnError(ev.Err)
		}
	}
}
