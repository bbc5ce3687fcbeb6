package testutil

import (
	"context"
	"sync"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
)

// Call records one invocation of the fake remote service.
type Call struct {
	Op         string // "save" | "delete" | "snapshot"
	EntityType domain.EntityType
	EntityID   string
	Payload    map[string]any
}

// FakeService is a scripted remote.Service for tests. Errors are
// programmed per entity id (or "*" for every call); everything else
// succeeds and is recorded.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeService struct {
	mu       sync.Mutex
	calls    []Call
	failWith map[string]error // keyed by entity id, "*" matches all
	snapshot remote.Snapshot
}

// NewFakeService creates a fake that succeeds on every call and returns
// an empty snapshot.
func NewFakeService() *FakeService {
	return &FakeService{
		failWith: make(map[string]error),
		snapshot: remote.Snapshot{},
	}
}

// FailWith programs an error for calls targeting the given entity id.
// Use id "*" to fail every call. Pass nil to clear.
func (f *FakeService) FailWith(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failWith, id)
		return
	}
	f.failWith[id] = err
}

// SetSnapshot programs the payload FetchSnapshot returns.
func (f *FakeService) SetSnapshot(snap remote.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snap
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsFor returns the recorded calls targeting one entity id.
func (f *FakeService) CallsFor(id string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.EntityID == id {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeService) errFor(id string) error {
	if err, ok := f.failWith["*"]; ok {
		return err
	}
	return f.failWith[id]
}

func (f *FakeService) Save(_ context.Context, _ string, entityType domain.EntityType, payload map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := payload["id"].(string)
	f.calls = append(f.calls, Call{Op: "save", EntityType: entityType, EntityID: id, Payload: payload})
	if err := f.errFor(id); err != nil {
		return nil, err
	}
	return payload, nil
}

func (f *FakeService) Delete(_ context.Context, _ string, entityType domain.EntityType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "delete", EntityType: entityType, EntityID: id})
	return f.errFor(id)
}

func (f *FakeService) FetchSnapshot(_ context.Context, _ string) (remote.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "snapshot"})
	if err := f.errFor("*"); err != nil {
		return nil, err
	}
	return f.snapshot, nil
}

// FakeChannel is a scripted remote.Channel. Tests push events with Emit
// and close the feed with Close.
type FakeChannel struct {
	events chan remote.Event
	once   sync.Once
}

// NewFakeChannel creates a channel with a buffered event feed.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{events: make(chan remote.Event, 64)}
}

// Emit delivers one event to the consumer.
func (c *FakeChannel) Emit(ev remote.Event) {
	c.events <- ev
}

func (c *FakeChannel) Events() <-chan remote.Event {
	return c.events
}

func (c *FakeChannel) Close() error {
	c.once.Do(func() { close(c.events) })
	return nil
}
