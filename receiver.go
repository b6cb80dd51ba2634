package broadcast

import "context"

// Receiver is the consumer-side handle of a broadcast channel. Each receiver
// tracks its own cursor through the shared buffer and consumes every message
// exactly once, in the same global order as every other receiver.
//
// A Receiver must not be shared between goroutines that call Recv or TryRecv
// concurrently with each other; clone a handle per consumer instead. All
// other methods are safe for concurrent use.
type Receiver[T any] struct {
	channel *channel[T]

	// cursor is the next sequence this receiver has not consumed yet.
	// Both fields are guarded by channel.mu.
	cursor   uint64
	released bool
}

// Recv returns the next message for this receiver. With nothing buffered it
// suspends until a send arrives, the channel closes, or ctx is canceled.
// Once the channel is closed and this receiver has drained every buffered
// message, Recv returns ErrClosed.
//
// If overflow evicted messages this receiver never read, Recv returns a
// LaggedError carrying the skip count and repositions the cursor at the
// oldest retained message; the next call resumes from there.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	return r.channel.recv(ctx, r)
}

// TryRecv is the non-suspending counterpart of Recv: it returns ErrEmpty
// where Recv would suspend.
func (r *Receiver[T]) TryRecv() (T, error) {
	return r.channel.tryRecv(r)
}

// Clone returns a new receiver starting at this receiver's cursor: it
// observes exactly the messages the original has not consumed yet, in the
// same order, independently of the original's pace.
//
// Panics if the handle has already been released.
func (r *Receiver[T]) Clone() *Receiver[T] {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.released {
		panic("broadcast: clone of a closed receiver")
	}
	c.receivers++
	// The clone shares the obligation for every already-buffered message it
	// will read, so those slots gain a reference.
	for i := c.slotIndexLocked(r.cursor); i < len(c.slots); i++ {
		c.slots[i].remaining++
	}
	return &Receiver[T]{channel: c, cursor: r.cursor}
}

// Close releases this handle, dropping its claim on every message it had not
// consumed. Freed capacity unblocks suspended senders, and a Recv suspended
// on this handle is aborted with ErrHandleClosed. Returns ErrHandleClosed on
// a repeated Close.
func (r *Receiver[T]) Close() error {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.released {
		return ErrHandleClosed
	}
	r.released = true
	c.receivers--
	for i := c.slotIndexLocked(r.cursor); i < len(c.slots); i++ {
		c.slots[i].remaining--
	}
	if c.freeFrontLocked() || c.receivers == 0 {
		c.wakeSendersLocked()
	}
	// A Recv suspended on this handle has to notice the release.
	c.wakeReceiversLocked()
	return nil
}

// Len returns the number of messages buffered for this receiver.
func (r *Receiver[T]) Len() int {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots) - c.slotIndexLocked(r.cursor)
}

// IsEmpty reports whether no unread message is buffered for this receiver.
func (r *Receiver[T]) IsEmpty() bool {
	return r.Len() == 0
}

// IsClosed reports whether the channel no longer accepts sends. Buffered
// messages remain readable after the channel closes.
func (r *Receiver[T]) IsClosed() bool {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SenderCount returns the number of active sender handles.
func (r *Receiver[T]) SenderCount() int {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.senders
}

// ReceiverCount returns the number of active receiver handles.
func (r *Receiver[T]) ReceiverCount() int {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receivers
}
