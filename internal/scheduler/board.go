package scheduler

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrBoardClosed is returned when a batch is pushed after Close.
	ErrBoardClosed = errors.New("scheduler is closed")
)

// Status is a worker's position in the Idle/Busy/Dead lifecycle.
type Status int

const (
	StatusIdle Status = iota
	StatusBusy
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// WorkerInfo is a snapshot of one row of the worker table.
type WorkerInfo struct {
	ID        int
	Status    Status
	Completed int64
}

// Board holds the ready-queue and the worker-status table of a pool.
//
// All mutations of either structure go through the same mutex, and idle
// workers park on the condition variable tied to it. Nothing else in a pool
// is shared between workers.
//
// The queue is FIFO. Batches are appended in the order given; requeued
// items go to the front.
type Board[E any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	items []E
	head  int

	workers map[int]*WorkerInfo
	nextID  int
	live    int

	closed  bool // no new batches; workers drain and exit
	stopped bool // workers exit without draining
	closing chan struct{}
}

// NewBoard creates an empty board.
func NewBoard[E any]() *Board[E] {
	b := &Board[E]{
		workers: make(map[int]*WorkerInfo),
		closing: make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Register adds an idle worker to the table and returns its id.
func (b *Board[E]) Register() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.workers[id] = &WorkerInfo{ID: id, Status: StatusIdle}
	b.live++
	return id
}

// PushBatch appends all items at once. No worker can observe a prefix of
// the batch.
func (b *Board[E]) PushBatch(items []E) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.stopped {
		return ErrBoardClosed
	}
	if len(items) == 0 {
		return nil
	}

	b.compact()
	b.items = append(b.items, items...)

	if len(items) == 1 {
		b.cond.Signal()
	} else {
		b.cond.Broadcast()
	}
	return nil
}

// Next blocks until an item is available and hands it to workerID, marking
// the worker Busy. ok is false once the board is closed and empty, or
// stopped.
func (b *Board[E]) Next(workerID int) (item E, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.size() == 0 && !b.closed && !b.stopped {
		b.cond.Wait()
	}

	if b.stopped || b.size() == 0 {
		return item, false
	}

	item = b.items[b.head]
	var zero E
	b.items[b.head] = zero
	b.head++

	if w, found := b.workers[workerID]; found {
		w.Status = StatusBusy
	}
	return item, true
}

// Release returns workerID to Idle after finishing an item.
func (b *Board[E]) Release(workerID int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, found := b.workers[workerID]; found && w.Status == StatusBusy {
		w.Status = StatusIdle
		w.Completed++
	}
}

// Skip returns workerID to Idle after dropping an item without running it.
// Unlike Release it does not count the item as completed.
func (b *Board[E]) Skip(workerID int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, found := b.workers[workerID]; found && w.Status == StatusBusy {
		w.Status = StatusIdle
	}
}

// Retire marks workerID as Dead and, when requeue is true, puts item back
// at the front of the queue in the same critical section. It returns the
// number of workers still alive.
func (b *Board[E]) Retire(workerID int, item E, requeue bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, found := b.workers[workerID]; found && w.Status != StatusDead {
		w.Status = StatusDead
		b.live--
	}

	if requeue {
		b.pushFront(item)
		b.cond.Signal()
	}
	return b.live
}

// Close stops accepting batches. Workers drain what is queued, then Next
// reports false.
func (b *Board[E]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.markClosed()
	b.cond.Broadcast()
}

// Closing is closed once Close, Stop or Abandon has been called. Workers
// that are not parked in Next select on it.
func (b *Board[E]) Closing() <-chan struct{} {
	return b.closing
}

// Stop makes every Next call return false immediately, leaving queued
// items in place for Abandon.
func (b *Board[E]) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.markClosed()
	b.stopped = true
	b.cond.Broadcast()
}

// Abandon closes the board and removes every queued item, returning them in
// queue order so the caller can settle them.
func (b *Board[E]) Abandon() []E {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.markClosed()
	b.cond.Broadcast()

	out := make([]E, b.size())
	copy(out, b.items[b.head:])
	b.items = nil
	b.head = 0
	return out
}

// Purge removes queued items matching drop and returns them.
func (b *Board[E]) Purge(drop func(E) bool) []E {
	b.mu.Lock()
	defer b.mu.Unlock()

	var removed []E
	kept := make([]E, 0, b.size())
	for _, item := range b.items[b.head:] {
		if drop(item) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	b.items = kept
	b.head = 0
	return removed
}

// Len returns the number of queued items.
func (b *Board[E]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size()
}

// Live returns the number of workers that are not Dead.
func (b *Board[E]) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Closed reports whether Close, Stop or Abandon has been called.
func (b *Board[E]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Workers returns a snapshot of the worker table ordered by id.
func (b *Board[E]) Workers() []WorkerInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]WorkerInfo, 0, len(b.workers))
	for _, w := range b.workers {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// markClosed must be called with mu held.
func (b *Board[E]) markClosed() {
	if !b.closed {
		b.closed = true
		close(b.closing)
	}
}

func (b *Board[E]) size() int {
	return len(b.items) - b.head
}

func (b *Board[E]) pushFront(item E) {
	if b.head > 0 {
		b.head--
		b.items[b.head] = item
		return
	}

	items := make([]E, 0, b.size()+1)
	items = append(items, item)
	items = append(items, b.items[b.head:]...)
	b.items = items
}

// compact drops the consumed prefix once it dominates the backing array.
func (b *Board[E]) compact() {
	if b.head == 0 || b.head < len(b.items)/2 {
		return
	}
	n := copy(b.items, b.items[b.head:])
	var zero E
	for i := n; i < len(b.items); i++ {
		b.items[i] = zero
	}
	b.items = b.items[:n]
	b.head = 0
}
