package broadcast

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Bounded creates a broadcast channel that retains at most capacity
// undelivered messages. With the default policy a full channel applies
// backpressure: Send suspends and TrySend returns ErrFull until a receiver
// frees a slot. Enable WithOverflow to evict the oldest message instead.
//
// Panics if capacity is less than 1.
func Bounded[T any](capacity int, opts ...Option[T]) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		panic("broadcast: bounded channel capacity must be at least 1")
	}
	return newPair(newChannel[T](capacity), opts)
}

// Unbounded creates a broadcast channel without a capacity limit. Send never
// suspends and TrySend never returns ErrFull; memory grows with the number of
// messages the slowest receiver has not yet consumed.
func Unbounded[T any](opts ...Option[T]) (*Sender[T], *Receiver[T]) {
	return newPair(newChannel[T](0), opts)
}

func newPair[T any](c *channel[T], opts []Option[T]) (*Sender[T], *Receiver[T]) {
	for _, opt := range opts {
		opt(c)
	}
	return &Sender[T]{channel: c}, &Receiver[T]{channel: c}
}

// slot is one buffered message plus the number of active receivers that have
// not read it yet. Slots are freed strictly from the front of the buffer: the
// refcount of a slot can only reach zero once no receiver cursor points at or
// before it.
type slot[T any] struct {
	value     T
	remaining int
}

// sendWaiter parks one suspended Send call. The signal channel has capacity
// one so wakers never block; concurrent wakeups collapse into a single signal
// and the woken sender re-validates channel state under the lock.
type sendWaiter struct {
	signal chan struct{}
}

// channel is the shared state jointly owned by every Sender and Receiver
// handle of one broadcast channel. All bookkeeping happens under mu; payload
// duplication is deliberately performed outside of it so that an expensive
// clone function cannot block unrelated operations.
//
// Retained slots always cover the contiguous sequence range [oldest, next):
// slots[i] holds the message with sequence oldest+i.
type channel[T any] struct {
	mu sync.Mutex

	slots  []slot[T]
	oldest uint64 // sequence of slots[0]
	next   uint64 // next sequence to assign

	capacity int // 0 means unbounded
	overflow bool

	senders   int
	receivers int
	closed    bool

	// sendq holds suspended senders in arrival order; the head is admitted
	// first. recvNotify is closed and replaced to wake every suspended
	// receiver at once.
	sendq      []*sendWaiter
	recvNotify chan struct{}

	clone  func(T) T
	logger *slog.Logger
}

func newChannel[T any](capacity int) *channel[T] {
	return &channel[T]{
		capacity:   capacity,
		senders:    1,
		receivers:  1,
		recvNotify: make(chan struct{}),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// send appends value to the channel, suspending while a bounded buffer is
// full and overflow is disabled. Suspended sends resume in arrival order.
func (c *channel[T]) send(ctx context.Context, s *Sender[T], value T) error {
	c.mu.Lock()
	if s.released {
		c.mu.Unlock()
		return ErrHandleClosed
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	// Suspended senders are admitted strictly in arrival order, so a new
	// send queues up behind them even if a slot happens to be free.
	if len(c.sendq) == 0 && c.insertLocked(value) {
		c.mu.Unlock()
		return nil
	}
	w := &sendWaiter{signal: make(chan struct{}, 1)}
	c.sendq = append(c.sendq, w)
	c.mu.Unlock()

	for {
		select {
		case <-w.signal:
		case <-ctx.Done():
			c.mu.Lock()
			c.removeSendWaiterLocked(w)
			c.mu.Unlock()
			return ctx.Err()
		}

		c.mu.Lock()
		if c.closed {
			c.removeSendWaiterLocked(w)
			c.mu.Unlock()
			return ErrClosed
		}
		if s.released {
			c.removeSendWaiterLocked(w)
			c.mu.Unlock()
			return ErrHandleClosed
		}
		if c.sendq[0] == w && c.insertLocked(value) {
			c.sendq = c.sendq[1:]
			if len(c.sendq) > 0 {
				// Capacity may still be free; let the next waiter try.
				c.wakeSendersLocked()
			}
			c.mu.Unlock()
			return nil
		}
		// Woken out of turn or still full: a wakeup is a hint, not a
		// guarantee. Park again.
		c.mu.Unlock()
	}
}

// trySend is the non-suspending counterpart of send.
func (c *channel[T]) trySend(s *Sender[T], value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released {
		return ErrHandleClosed
	}
	if c.closed {
		return ErrClosed
	}
	// Queued senders are admitted first; jumping ahead of them would break
	// the arrival-order admission contract.
	if len(c.sendq) > 0 || !c.insertLocked(value) {
		return ErrFull
	}
	return nil
}

// insertLocked stores value as the next slot if the channel can accept it
// right now, waking suspended receivers. It reports false when a bounded
// buffer is full and overflow is disabled.
func (c *channel[T]) insertLocked(value T) bool {
	if c.receivers == 0 {
		// Delivered to nobody: the message is treated as consumed and no
		// slot is stored.
		return true
	}
	if c.capacity > 0 && len(c.slots) >= c.capacity {
		if !c.overflow {
			return false
		}
		// Evict the oldest retained message regardless of how many
		// receivers still had to read it; lagging receivers report the gap
		// on their next receive.
		var zero slot[T]
		c.slots[0] = zero
		c.slots = c.slots[1:]
		c.oldest++
		c.logger.Debug("oldest message evicted on overflow",
			slog.Uint64("sequence", c.oldest-1))
	}
	c.slots = append(c.slots, slot[T]{value: value, remaining: c.receivers})
	c.next++
	c.wakeReceiversLocked()
	return true
}

// recv returns the message under r's cursor, suspending while no unread
// message exists and the channel is still open.
func (c *channel[T]) recv(ctx context.Context, r *Receiver[T]) (T, error) {
	var zero T
	for {
		c.mu.Lock()
		if r.released {
			c.mu.Unlock()
			return zero, ErrHandleClosed
		}
		value, wait, err := c.takeLocked(r)
		if !wait {
			c.mu.Unlock()
			if err != nil {
				return zero, err
			}
			return c.duplicate(value), nil
		}
		notify := c.recvNotify
		c.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// tryRecv is the non-suspending counterpart of recv.
func (c *channel[T]) tryRecv(r *Receiver[T]) (T, error) {
	var zero T

	c.mu.Lock()
	if r.released {
		c.mu.Unlock()
		return zero, ErrHandleClosed
	}
	value, wait, err := c.takeLocked(r)
	c.mu.Unlock()

	if wait {
		return zero, ErrEmpty
	}
	if err != nil {
		return zero, err
	}
	return c.duplicate(value), nil
}

// takeLocked advances r past any overflow gap and consumes the slot under its
// cursor when one is retained. wait reports that the receiver has to suspend
// for new data.
func (c *channel[T]) takeLocked(r *Receiver[T]) (value T, wait bool, err error) {
	if r.cursor < c.oldest {
		skipped := c.oldest - r.cursor
		r.cursor = c.oldest
		return value, false, &LaggedError{Skipped: skipped}
	}
	if r.cursor < c.next {
		s := &c.slots[r.cursor-c.oldest]
		if s.remaining <= 0 {
			panic("broadcast: slot refcount underflow")
		}
		value = s.value
		s.remaining--
		r.cursor++
		if c.freeFrontLocked() {
			c.wakeSendersLocked()
		}
		return value, false, nil
	}
	if c.closed {
		return value, false, ErrClosed
	}
	return value, true, nil
}

// freeFrontLocked drops fully consumed slots from the front of the buffer and
// reports whether any were released.
func (c *channel[T]) freeFrontLocked() bool {
	freed := false
	for len(c.slots) > 0 && c.slots[0].remaining == 0 {
		var zero slot[T]
		c.slots[0] = zero // release the payload reference
		c.slots = c.slots[1:]
		c.oldest++
		freed = true
	}
	if len(c.slots) == 0 {
		c.slots = nil
	}
	return freed
}

// closeLocked transitions the channel to closing: no further sends are
// accepted and every suspended operation is woken to observe the closure.
// Receivers still drain buffered messages before seeing ErrClosed.
func (c *channel[T]) closeLocked() {
	c.closed = true
	c.wakeReceiversLocked()
	c.wakeSendersLocked()
	c.logger.Info("broadcast channel closed",
		slog.Int("buffered", len(c.slots)),
		slog.Int("receivers", c.receivers))
}

// wakeReceiversLocked wakes every receiver suspended in Recv by closing the
// current notification channel and installing a fresh one. Waking is
// level-triggered: woken receivers re-check their cursor under the lock.
func (c *channel[T]) wakeReceiversLocked() {
	close(c.recvNotify)
	c.recvNotify = make(chan struct{})
}

// wakeSendersLocked signals every suspended sender. Admission stays in
// arrival order: a woken sender proceeds only once it reaches the head of the
// queue.
func (c *channel[T]) wakeSendersLocked() {
	for _, w := range c.sendq {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

// removeSendWaiterLocked drops w from the queue, wherever it is. A suspended
// send abandoned this way has no effect on channel state. Removing the head
// promotes the next waiter, so the remaining waiters are re-signaled.
func (c *channel[T]) removeSendWaiterLocked(w *sendWaiter) {
	for i, q := range c.sendq {
		if q == w {
			c.sendq = append(c.sendq[:i], c.sendq[i+1:]...)
			if i == 0 {
				c.wakeSendersLocked()
			}
			return
		}
	}
}

// slotIndexLocked returns the index into slots of the first retained slot at
// or after cursor.
func (c *channel[T]) slotIndexLocked(cursor uint64) int {
	if cursor < c.oldest {
		return 0
	}
	return int(cursor - c.oldest)
}

// duplicate runs the configured clone function outside the critical section.
func (c *channel[T]) duplicate(value T) T {
	if c.clone != nil {
		return c.clone(value)
	}
	return value
}
