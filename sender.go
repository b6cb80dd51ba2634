package broadcast

import "context"

// Sender is the producer-side handle of a broadcast channel. Handles are
// cheap to clone and safe for concurrent use; each clone must be released
// with Close. The channel closes once the last sender handle is gone.
type Sender[T any] struct {
	channel *channel[T]

	// released is guarded by channel.mu.
	released bool
}

// Send delivers value to every active receiver. On a full bounded channel
// with overflow disabled it suspends until a receiver frees a slot, the
// channel closes (ErrClosed), or ctx is canceled. Suspended sends are
// admitted in arrival order.
//
// With zero active receivers the message is treated as delivered to nobody
// and discarded; Send still reports success.
func (s *Sender[T]) Send(ctx context.Context, value T) error {
	return s.channel.send(ctx, s, value)
}

// TrySend is the non-suspending counterpart of Send: it returns ErrFull
// where Send would suspend.
func (s *Sender[T]) TrySend(value T) error {
	return s.channel.trySend(s, value)
}

// Clone returns a new independent sender handle for the same channel.
//
// Panics if the handle has already been released.
func (s *Sender[T]) Clone() *Sender[T] {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released {
		panic("broadcast: clone of a closed sender")
	}
	c.senders++
	return &Sender[T]{channel: c}
}

// Close releases this handle. When the last sender handle is released the
// channel closes: receivers drain the remaining buffered messages and then
// observe ErrClosed. A Send suspended on this handle is aborted with
// ErrHandleClosed. Returns ErrHandleClosed on a repeated Close.
func (s *Sender[T]) Close() error {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.released {
		return ErrHandleClosed
	}
	s.released = true
	c.senders--
	if c.senders == 0 && !c.closed {
		c.closeLocked()
	} else {
		// A Send suspended on this handle has to notice the release.
		c.wakeSendersLocked()
	}
	return nil
}

// Shutdown closes the channel immediately without waiting for the remaining
// sender handles to be released. It reports whether this call performed the
// transition; repeated calls return false. Buffered messages stay readable
// until drained.
//
// Shutdown is channel-level and works even after Close on this handle.
func (s *Sender[T]) Shutdown() bool {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.closeLocked()
	return true
}

// SenderCount returns the number of active sender handles.
func (s *Sender[T]) SenderCount() int {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.senders
}

// ReceiverCount returns the number of active receiver handles.
func (s *Sender[T]) ReceiverCount() int {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receivers
}

// Len returns the number of messages currently retained in the channel
// buffer, i.e. not yet consumed by the slowest receiver.
func (s *Sender[T]) Len() int {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Capacity returns the channel capacity, or 0 for an unbounded channel.
func (s *Sender[T]) Capacity() int {
	return s.channel.capacity
}

// IsClosed reports whether the channel no longer accepts sends.
func (s *Sender[T]) IsClosed() bool {
	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
