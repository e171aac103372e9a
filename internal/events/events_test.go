package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventTaskCreated, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := TaskEventPayload{TaskID: "t-1", Title: "Fix printer", Status: "new"}
	require.NoError(t, bus.PublishJSON(EventTaskCreated, payload))

	require.Len(t, received, 1)
	var got TaskEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, "t-1", got.TaskID)
	assert.False(t, received[0].CreatedAt.IsZero())
}

func TestEventBus_SubscribersAreTypeScoped(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	bus.Subscribe(EventTaskStatusChanged, func(event *Event) error {
		calls++
		return nil
	})

	require.NoError(t, bus.PublishJSON(EventTaskCreated, TaskEventPayload{TaskID: "t-1"}))
	assert.Equal(t, 0, calls)

	require.NoError(t, bus.PublishJSON(EventTaskStatusChanged, TaskEventPayload{TaskID: "t-1"}))
	assert.Equal(t, 1, calls)
}

func TestEventBus_NilBusIsNoop(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventTaskCreated, TaskEventPayload{}))
}
