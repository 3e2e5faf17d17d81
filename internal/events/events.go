package events

import (
	"context"
	"sync"
)

// Actions recorded in the audit trail. Role events carry the previous and
// new role ids in Details.
const (
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionUserCreated     = "user_created"
	ActionUserUpdated     = "user_updated"
	ActionUserDeactivated = "user_deactivated"
	ActionRoleChanged     = "user_role_changed"
	ActionRoleDeleted     = "user_role_deleted"
)

type Event struct {
	Action    string         `json:"action"`
	UserID    string         `json:"user_id"`
	Details   map[string]any `json:"details,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus fans events out to in-process subscribers. Subscribers run
// synchronously on the publishing goroutine, which keeps test assertions
// deterministic; slow consumers should hand off internally.
type Bus struct {
	mu   sync.RWMutex
	subs []func(ctx context.Context, event Event)
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(fn func(ctx context.Context, event Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ctx, event)
	}
	return nil
}

// Fanout publishes to every underlying publisher, returning the first
// error after all have been attempted.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
