package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherPublishReachesSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventIssueCreated, func(_ context.Context, e Event) error {
		seen = append(seen, e.IssueID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueCreated, IssueID: "iss-1"}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueDeleted, IssueID: "iss-2"}))

	assert.Equal(t, []string{"iss-1"}, seen)
}

func TestDispatcherUnsubscribeStopsDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	unsubscribe := d.Subscribe(EventIssueEscalated, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueEscalated}))
	unsubscribe()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueEscalated}))

	assert.Equal(t, 1, calls)
}
