package subscription

import "context"

// ClientSubscription is the consumer side of a subscription.
type ClientSubscription[T any] struct {
	subscription *Subscription[T]
}

func (c *ClientSubscription[T]) Unsubscribe() {
	c.subscription.Unsubscribe()
}

func (c *ClientSubscription[T]) UnsubscribeWithContext(ctx context.Context) (err error) {
	return c.subscription.UnsubscribeWithContext(ctx)
}

// Err returns the error channel of the subscription.
func (c *ClientSubscription[T]) Err() <-chan error {
	return c.subscription.Err()
}

// Done is closed once no more values will be delivered.
func (c *ClientSubscription[T]) Done() <-chan struct{} {
	return c.subscription.Done()
}

// IsClosed returns status of the subscription
func (c *ClientSubscription[T]) IsClosed() bool {
	return c.subscription.IsClosed()
}

// PendingErr returns an error sent by the producer that has not been received yet, or nil.
// Clients call it once Done is closed, since both channels may be ready at the same time.
func (c *ClientSubscription[T]) PendingErr() error {
	select {
	case err := <-c.subscription.Err():
		return err
	default:
		return nil
	}
}
