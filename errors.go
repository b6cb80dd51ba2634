package broadcast

import (
	"errors"
	"fmt"
)

var (
	// ErrFull is returned by TrySend when a bounded channel is at capacity
	// and overflow is disabled.
	ErrFull = errors.New("broadcast channel is full")

	// ErrEmpty is returned by TryRecv when no unread message is buffered.
	ErrEmpty = errors.New("broadcast channel is empty")

	// ErrClosed is returned by sends after the channel has closed, and by
	// receives once the channel has closed and every buffered message has
	// been drained.
	ErrClosed = errors.New("broadcast channel is closed")

	// ErrHandleClosed is returned when operating on a Sender or Receiver
	// handle that has already been released with Close.
	ErrHandleClosed = errors.New("broadcast handle is closed")
)

// LaggedError reports that a receiver fell behind an overflowing bounded
// channel: the message its cursor pointed at was evicted to admit newer
// sends. The receiver is repositioned at the oldest retained message, so the
// next receive resumes there. Match with errors.As to read the skip count.
type LaggedError struct {
	// Skipped is the number of messages this receiver will never observe.
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast receiver lagged behind: %d messages skipped", e.Skipped)
}
