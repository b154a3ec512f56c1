package subscription

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/btcname-indexer/common/errs"
)

// SubscriptionBufferSize is the buffer size of the subscription channel.
// It is used to prevent blocking the producer when the client is slow to consume values.
var SubscriptionBufferSize = 8

// Subscription forwards values from a producer to the client channel.
// It has two channels: one for values, and one for errors.
//
// The producer ends the stream with Finish, every value sent before is still delivered.
// The client ends the stream with Unsubscribe, pending values are dropped.
type Subscription[T any] struct {
	// The channel which the subscription sends values.
	channel chan<- T

	// The in channel receives values from the producer.
	in chan T

	// The error channel receives the error from the producer.
	err chan error

	quitOnce   sync.Once
	finishOnce sync.Once

	// quit and finish are closed to stop the forwarding loop,
	// which closes quitDone once it has stopped sending to the client channel.
	quit     chan struct{}
	finish   chan struct{}
	quitDone chan struct{}
}

func NewSubscription[T any](channel chan<- T) *Subscription[T] {
	subscription := &Subscription[T]{
		channel:  channel,
		in:       make(chan T, SubscriptionBufferSize),
		err:      make(chan error, SubscriptionBufferSize),
		quit:     make(chan struct{}),
		finish:   make(chan struct{}),
		quitDone: make(chan struct{}),
	}
	go subscription.run()
	return subscription
}

func (s *Subscription[T]) Unsubscribe() {
	_ = s.UnsubscribeWithContext(context.Background())
}

// UnsubscribeWithContext stops forwarding and waits until the forwarding loop is done.
func (s *Subscription[T]) UnsubscribeWithContext(ctx context.Context) error {
	s.quitOnce.Do(func() {
		close(s.quit)
	})
	select {
	case <-s.quitDone:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Finish marks the end of the stream. Values already sent are delivered before Done is closed.
// Send must not be called after Finish.
func (s *Subscription[T]) Finish() {
	s.finishOnce.Do(func() {
		close(s.finish)
	})
}

// Client returns a client subscription for this subscription.
func (s *Subscription[T]) Client() *ClientSubscription[T] {
	return &ClientSubscription[T]{
		subscription: s,
	}
}

// Err returns the error channel of the subscription.
func (s *Subscription[T]) Err() <-chan error {
	return s.err
}

// Done returns the done channel of the subscription
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.quitDone
}

// IsClosed returns status of the subscription
func (s *Subscription[T]) IsClosed() bool {
	select {
	case <-s.quitDone:
		return true
	default:
		return false
	}
}

// Send sends a value to the subscription channel. If the subscription is closed, it returns errs.Closed.
func (s *Subscription[T]) Send(ctx context.Context, value T) error {
	if s.IsClosed() {
		return errors.Wrap(errs.Closed, "subscription is closed")
	}
	select {
	case s.in <- value:
	case <-s.quitDone:
		return errors.Wrap(errs.Closed, "subscription is closed")
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
	return nil
}

// SendError sends an error to the subscription error channel. If the subscription is closed, it returns errs.Closed.
func (s *Subscription[T]) SendError(ctx context.Context, err error) error {
	if s.IsClosed() {
		return errors.Wrap(errs.Closed, "subscription is closed")
	}
	select {
	case s.err <- err:
	case <-s.quitDone:
		return errors.Wrap(errs.Closed, "subscription is closed")
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
	return nil
}

// run starts the forwarding loop for the subscription.
func (s *Subscription[T]) run() {
	defer close(s.quitDone)

	for {
		select {
		case <-s.quit:
			return
		case value := <-s.in:
			if !s.forward(value) {
				return
			}
		case <-s.finish:
			// drain values sent before Finish
			for {
				select {
				case value := <-s.in:
					if !s.forward(value) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (s *Subscription[T]) forward(value T) bool {
	select {
	case s.channel <- value:
		return true
	case <-s.quit:
		return false
	}
}
