package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/btcname-indexer/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishDeliversPendingValues(t *testing.T) {
	ctx := context.Background()
	ch := make(chan int)
	s := NewSubscription(ch)
	client := s.Client()

	for i := 0; i < SubscriptionBufferSize; i++ {
		require.NoError(t, s.Send(ctx, i))
	}
	s.Finish()

	received := make([]int, 0, SubscriptionBufferSize)
	for {
		select {
		case v := <-ch:
			received = append(received, v)
			continue
		case <-client.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("subscription not done")
		}
		break
	}
	assert.Len(t, received, SubscriptionBufferSize)
	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, s.Send(ctx, 1), errs.Closed)
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	ch := make(chan int)
	s := NewSubscription(ch)
	require.NoError(t, s.Send(ctx, 1))

	// nobody reads ch, pending values are dropped
	s.Client().Unsubscribe()
	assert.True(t, s.IsClosed())
	assert.ErrorIs(t, s.SendError(ctx, errs.InternalError), errs.Closed)

	// no-op once closed
	s.Finish()
	s.Unsubscribe()
}

func TestPendingErr(t *testing.T) {
	ctx := context.Background()
	s := NewSubscription(make(chan int))
	client := s.Client()
	assert.NoError(t, client.PendingErr())

	require.NoError(t, s.SendError(ctx, errs.Timeout))
	s.Finish()
	<-client.Done()
	assert.ErrorIs(t, client.PendingErr(), errs.Timeout)
}
