package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medminder-app/medminder/internal/clock"
)

var ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")

// ReminderEvent is what the engine emits when a dose comes due. It carries
// enough to render a prompt without a storage round trip.
type ReminderEvent struct {
	DoseID         string
	MedicationName string
	Dosage         string
	Instructions   string
	TriggerAt      time.Time
}

type queueItem struct {
	event ReminderEvent
	seq   uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.TriggerAt.Before(pq[j].event.TriggerAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine fires reminder events at their trigger times. One timer tracks the
// head of a min-heap; scheduling or cancelling wakes the loop to re-aim it.
// Cancellation is lazy: stale heap entries are dropped when they surface.
type Engine struct {
	clock clock.Clock

	mu      sync.Mutex
	queue   priorityQueue
	armed   map[string]uint64
	nextSeq uint64
	out     chan ReminderEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(clk clock.Clock, bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		clock:  clk,
		queue:  make(priorityQueue, 0),
		armed:  make(map[string]uint64),
		out:    make(chan ReminderEvent, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan ReminderEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule arms a reminder for the event's dose. Scheduling a dose that is
// already armed replaces the earlier trigger.
func (e *Engine) Schedule(ev ReminderEvent) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	if ev.DoseID == "" {
		return errors.New("scheduler: event without dose id")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return errors.New("scheduler: engine stopped")
	}

	e.nextSeq++
	e.armed[ev.DoseID] = e.nextSeq
	heap.Push(&e.queue, queueItem{event: ev, seq: e.nextSeq})
	e.signalWakeup()
	return nil
}

// Cancel disarms the dose's reminder if one is pending. Unknown ids are a
// no-op, so callers never need to track whether a dose was armed.
func (e *Engine) Cancel(doseID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.armed[doseID]; !ok {
		return
	}
	delete(e.armed, doseID)
	e.signalWakeup()
}

// Rearm replaces any pending trigger for the event's dose with a new one.
func (e *Engine) Rearm(ev ReminderEvent) error {
	return e.Schedule(ev)
}

// Armed reports how many doses currently have a live trigger.
func (e *Engine) Armed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.armed)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.TriggerAt.Sub(e.clock.Now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := e.popDue(e.clock.Now())
			for _, ev := range due {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest live entry, discarding stale ones as it goes.
func (e *Engine) peek() (ReminderEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		head := e.queue[0]
		if e.armed[head.event.DoseID] == head.seq {
			return head.event, true
		}
		heap.Pop(&e.queue)
	}
	return ReminderEvent{}, false
}

func (e *Engine) popDue(now time.Time) []ReminderEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ReminderEvent, 0)
	for len(e.queue) > 0 {
		head := e.queue[0]
		if e.armed[head.event.DoseID] != head.seq {
			heap.Pop(&e.queue)
			continue
		}
		if head.event.TriggerAt.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		delete(e.armed, item.event.DoseID)
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
