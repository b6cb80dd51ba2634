package broadcast

import "log/slog"

// Option configures a broadcast channel at construction time.
type Option[T any] func(*channel[T])

// WithOverflow makes a full bounded channel evict its oldest retained message
// to admit a new send instead of suspending the sender. Receivers that had
// not read an evicted message report the gap through a LaggedError.
//
// Ignored on unbounded channels, where overflow never applies.
func WithOverflow[T any]() Option[T] {
	return func(c *channel[T]) {
		if c.capacity > 0 {
			c.overflow = true
		}
	}
}

// WithLogger configures structured logging for channel lifecycle events.
// Logging is disabled by default.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(c *channel[T]) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCloneFunc sets the function used to duplicate a message for each
// receiver before delivery. Use it when T holds shared references that every
// receiver must own independently. The function runs outside the channel's
// critical section, so an expensive copy cannot block other operations.
//
// By default messages are duplicated by plain value assignment.
func WithCloneFunc[T any](fn func(T) T) Option[T] {
	return func(c *channel[T]) {
		if fn != nil {
			c.clone = fn
		}
	}
}
