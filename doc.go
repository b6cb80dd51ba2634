// Package broadcast provides an in-process multi-producer multi-consumer
// broadcast channel: every message accepted from any sender is delivered to
// every active receiver exactly once, in a single global order shared by all
// receivers.
//
// The package uses Go generics for compile-time type safety and a pull-based
// cursor design: messages are buffered in shared slots and each receiver
// advances through them at its own pace. A slot is reclaimed as soon as the
// last receiver obligated to read it has done so.
//
// # Features
//
//   - Thread-safe multi-producer multi-consumer broadcasting
//   - Single total delivery order observed identically by every receiver
//   - Cloneable Sender and Receiver handles with independent lifetimes
//   - Bounded channels with sender backpressure or oldest-first overflow
//   - Unbounded channels for fire-and-forget fan-out
//   - Lag reporting when overflow evicts messages a receiver never read
//   - Context-based cancellation of blocking operations
//   - Optional per-message deep copy via a caller-supplied clone function
//
// # Basic Usage
//
// Create a channel, clone handles for additional producers and consumers, and
// exchange messages:
//
//	import "github.com/dmitrymomot/broadcast"
//
//	sender1, receiver1 := broadcast.Unbounded[int]()
//	sender2 := sender1.Clone()
//	receiver2 := receiver1.Clone()
//
//	_ = sender1.TrySend(1)
//	_ = sender2.TrySend(2)
//
//	// Both receivers observe 1 then 2.
//	v, _ := receiver1.TryRecv() // 1
//	v, _ = receiver1.TryRecv()  // 2
//	v, _ = receiver2.TryRecv()  // 1
//	v, _ = receiver2.TryRecv()  // 2
//	_ = v
//
// # Bounded Channels and Backpressure
//
// A bounded channel retains at most capacity undelivered messages. When the
// buffer is full, Send suspends until a receiver frees a slot and TrySend
// returns ErrFull:
//
//	sender, receiver := broadcast.Bounded[string](2)
//
//	_ = sender.TrySend("a")
//	_ = sender.TrySend("b")
//	err := sender.TrySend("c") // ErrFull
//
//	msg, _ := receiver.Recv(ctx) // "a", frees one slot
//	err = sender.TrySend("c")    // nil
//
// Suspended senders are admitted in arrival order, so sustained contention
// cannot starve an early sender.
//
// # Overflow Mode
//
// With WithOverflow enabled a full bounded channel never suspends senders.
// Instead the oldest retained message is evicted to admit the new one. A
// receiver whose cursor pointed at an evicted message learns about the gap
// through a LaggedError carrying the number of skipped messages, then resumes
// from the oldest retained message:
//
//	sender, receiver := broadcast.Bounded(2, broadcast.WithOverflow[int]())
//
//	for i := 1; i <= 5; i++ {
//		_ = sender.TrySend(i)
//	}
//
//	_, err := receiver.Recv(ctx) // LaggedError{Skipped: 3}
//	v, _ := receiver.Recv(ctx)   // 4
//
// # Cloning Handles
//
// Clone creates an independent handle sharing the same channel. A cloned
// receiver starts at the original's cursor and observes exactly the messages
// the original had not yet read, in the same order. Every handle must be
// released with Close; the channel closes once the last sender is gone.
//
// # Closing
//
// Closing the last Sender (or calling Shutdown on any of them) transitions
// the channel to a draining state: no further sends are accepted, but every
// receiver can still read all buffered messages. Only after a receiver has
// drained everything does Recv return ErrClosed:
//
//	sender, receiver := broadcast.Unbounded[string]()
//	_ = sender.TrySend("last words")
//	_ = sender.Close()
//
//	msg, _ := receiver.Recv(ctx)  // "last words"
//	_, err := receiver.Recv(ctx)  // ErrClosed
//
// # Error Handling
//
// All failures are ordinary error values: ErrFull and ErrEmpty from the
// non-blocking paths, ErrClosed once the channel is closed, ErrHandleClosed
// for operations on a released handle, and LaggedError (matched with
// errors.As) when overflow skipped messages for a receiver.
package broadcast
