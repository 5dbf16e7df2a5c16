package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()

	var received []Event
	bus.Subscribe(DrawRoundCompleted, func(_ context.Context, e Event) error {
		received = append(received, e)
		return nil
	})

	eventID := uuid.New()
	err := bus.Publish(context.Background(), NewDrawRoundCompletedEvent(eventID, 1, []int{123456, 654321}, 0))
	require.NoError(t, err)

	require.Len(t, received, 1)
	payload, ok := received[0].Payload.(DrawRoundCompletedPayloadV1)
	require.True(t, ok)
	assert.Equal(t, eventID, payload.EventID)
	assert.Equal(t, []int{123456, 654321}, payload.WinnerShortIDs)
}

func TestMemoryBusNoSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	err := bus.Publish(context.Background(), NewDrawStartedEvent(uuid.New(), 2))
	assert.NoError(t, err)
}

func TestMemoryBusCollectsHandlerErrors(t *testing.T) {
	bus := NewMemoryBus()

	calls := 0
	bus.Subscribe(ParticipantRegistered, func(_ context.Context, _ Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Subscribe(ParticipantRegistered, func(_ context.Context, _ Event) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), NewParticipantRegisteredEvent(uuid.New(), 111111, uuid.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 handler error(s)")
	assert.Equal(t, 2, calls, "second handler should still run after the first fails")
}
