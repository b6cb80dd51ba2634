package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broadcast"
)

func TestReceiverRecv(t *testing.T) {
	t.Parallel()

	t.Run("try recv on empty channel", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()
		defer receiver.Close()

		_, err := receiver.TryRecv()
		require.ErrorIs(t, err, broadcast.ErrEmpty)
	})

	t.Run("recv suspends until a send arrives", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[string]()
		defer sender.Close()
		defer receiver.Close()

		done := make(chan string, 1)
		go func() {
			got, err := receiver.Recv(context.Background())
			if err != nil {
				done <- err.Error()
				return
			}
			done <- got
		}()
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, sender.TrySend("wake up"))

		select {
		case got := <-done:
			assert.Equal(t, "wake up", got)
		case <-time.After(time.Second):
			t.Fatal("receive did not observe the send")
		}
	})

	t.Run("canceled recv consumes nothing", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()
		defer receiver.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := receiver.Recv(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		// A later send is still delivered to this receiver.
		require.NoError(t, sender.TrySend(5))
		got, err := receiver.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, got)
	})

	t.Run("recv on a closed handle fails", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()

		require.NoError(t, receiver.Close())
		_, err := receiver.Recv(context.Background())
		require.ErrorIs(t, err, broadcast.ErrHandleClosed)
		_, err = receiver.TryRecv()
		require.ErrorIs(t, err, broadcast.ErrHandleClosed)
	})
}

func TestReceiverClone(t *testing.T) {
	t.Parallel()

	t.Run("clone observes the unread backlog", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()
		defer receiver.Close()

		for i := 1; i <= 5; i++ {
			require.NoError(t, sender.TrySend(i))
		}

		// Advance the original past the first two messages, then clone.
		for i := 0; i < 2; i++ {
			_, err := receiver.TryRecv()
			require.NoError(t, err)
		}
		clone := receiver.Clone()
		defer clone.Close()

		assert.Equal(t, 3, clone.Len())
		for want := 3; want <= 5; want++ {
			got, err := clone.TryRecv()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := clone.TryRecv()
		require.ErrorIs(t, err, broadcast.ErrEmpty)

		// The original is unaffected by the clone's reads.
		got, err := receiver.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, 3, got)
	})

	t.Run("clone shares responsibility for buffered slots", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Bounded[string](3)
		defer sender.Close()
		defer receiver.Close()

		require.NoError(t, sender.TrySend("a"))
		require.NoError(t, sender.TrySend("b"))
		require.NoError(t, sender.TrySend("c"))

		clone := receiver.Clone()
		defer clone.Close()

		// A slot frees only after every obligated receiver consumed it.
		_, err := receiver.TryRecv()
		require.NoError(t, err)
		require.ErrorIs(t, sender.TrySend("d"), broadcast.ErrFull)

		_, err = clone.TryRecv()
		require.NoError(t, err)
		require.NoError(t, sender.TrySend("d"))
	})

	t.Run("increments receiver count", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()
		defer receiver.Close()

		clone := receiver.Clone()
		assert.Equal(t, 2, receiver.ReceiverCount())
		assert.Equal(t, 2, sender.ReceiverCount())
		require.NoError(t, clone.Close())
		assert.Equal(t, 1, receiver.ReceiverCount())
	})

	t.Run("panics when cloning a closed handle", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()

		require.NoError(t, receiver.Close())
		require.Panics(t, func() {
			receiver.Clone()
		})
	})
}

func TestReceiverClose(t *testing.T) {
	t.Parallel()

	t.Run("releases unread slots", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Bounded[int](2)
		defer sender.Close()

		clone := receiver.Clone()
		defer clone.Close()

		require.NoError(t, sender.TrySend(1))
		require.NoError(t, sender.TrySend(2))
		require.ErrorIs(t, sender.TrySend(3), broadcast.ErrFull)

		// Closing one receiver is not enough: the other still holds claims.
		_, err := clone.TryRecv()
		require.NoError(t, err)
		require.ErrorIs(t, sender.TrySend(3), broadcast.ErrFull)

		require.NoError(t, receiver.Close())
		require.NoError(t, sender.TrySend(3))
	})

	t.Run("repeated close returns handle error", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()

		require.NoError(t, receiver.Close())
		require.ErrorIs(t, receiver.Close(), broadcast.ErrHandleClosed)
	})
}

func TestReceiverIntrospection(t *testing.T) {
	t.Parallel()

	t.Run("len tracks the unread backlog", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer sender.Close()
		defer receiver.Close()

		assert.Equal(t, 0, receiver.Len())
		assert.True(t, receiver.IsEmpty())

		require.NoError(t, sender.TrySend(1))
		require.NoError(t, sender.TrySend(2))
		assert.Equal(t, 2, receiver.Len())
		assert.False(t, receiver.IsEmpty())

		_, err := receiver.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, 1, receiver.Len())
	})

	t.Run("is closed reflects the channel state", func(t *testing.T) {
		t.Parallel()

		sender, receiver := broadcast.Unbounded[int]()
		defer receiver.Close()

		assert.False(t, receiver.IsClosed())
		require.NoError(t, sender.Close())
		assert.True(t, receiver.IsClosed())
	})
}

func TestDrainOnClose(t *testing.T) {
	t.Parallel()

	t.Run("every receiver drains the full backlog", func(t *testing.T) {
		t.Parallel()

		sender, receiver1 := broadcast.Unbounded[int]()
		receiver2 := receiver1.Clone()
		receiver3 := receiver1.Clone()
		defer receiver1.Close()
		defer receiver2.Close()
		defer receiver3.Close()

		for i := 1; i <= 10; i++ {
			require.NoError(t, sender.TrySend(i))
		}
		require.NoError(t, sender.Close())

		for _, receiver := range []*broadcast.Receiver[int]{receiver1, receiver2, receiver3} {
			for want := 1; want <= 10; want++ {
				got, err := receiver.Recv(context.Background())
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			_, err := receiver.Recv(context.Background())
			require.ErrorIs(t, err, broadcast.ErrClosed)
		}
	})
}
