package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []EventType
	d.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		got = append(got, event.Type)
		return nil
	})
	d.Subscribe(EventTicketResolved, func(_ context.Context, event Event) error {
		got = append(got, event.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventPaymentFailed}))

	assert.Equal(t, []EventType{EventTicketCreated, EventTicketCreated}, got)
}

func TestDispatcherHandlerErrorsDoNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var second bool
	d.Subscribe(EventPaymentSucceeded, func(context.Context, Event) error {
		return errors.New("handler broke")
	})
	d.Subscribe(EventPaymentSucceeded, func(context.Context, Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventPaymentSucceeded}))
	assert.True(t, second)
}
