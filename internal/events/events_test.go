package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FansOutToAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var first, second []Event
	bus.Subscribe(func(ctx context.Context, event Event) { first = append(first, event) })
	bus.Subscribe(func(ctx context.Context, event Event) { second = append(second, event) })

	event := Event{Action: ActionLogin, UserID: "user-1", IP: "10.0.0.1"}
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, event, first[0])
	assert.Equal(t, event, second[0])
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	assert.NoError(t, bus.Publish(context.Background(), Event{Action: ActionLogout}))
}

type stubPublisher struct {
	seen []Event
	err  error
}

func (s *stubPublisher) Publish(ctx context.Context, event Event) error {
	s.seen = append(s.seen, event)
	return s.err
}

func TestFanout_AttemptsAllAndReturnsFirstError(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broker down")
	a := &stubPublisher{err: errBroken}
	b := &stubPublisher{err: errors.New("second failure")}
	c := &stubPublisher{}

	err := Fanout{a, b, c}.Publish(context.Background(), Event{Action: ActionUserCreated})
	assert.ErrorIs(t, err, errBroken)

	// The failing publisher does not short-circuit the rest.
	assert.Len(t, a.seen, 1)
	assert.Len(t, b.seen, 1)
	assert.Len(t, c.seen, 1)
}

func TestFanout_AllHealthy(t *testing.T) {
	t.Parallel()

	a := &stubPublisher{}
	b := &stubPublisher{}

	require.NoError(t, Fanout{a, b}.Publish(context.Background(), Event{Action: ActionRoleChanged}))
	assert.Len(t, a.seen, 1)
	assert.Len(t, b.seen, 1)
}
