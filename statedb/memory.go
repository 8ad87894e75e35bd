package statedb

import (
	"context"
	"sync"

	"github.com/ruteri/image-copyright-registry/interfaces"
)

// MemoryJournal keeps events in a slice. It is used by tests and ephemeral runs.
type MemoryJournal struct {
	mu     sync.RWMutex
	events []interfaces.RegistryEvent
}

var _ interfaces.EventJournal = (*MemoryJournal)(nil)

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Append(ctx context.Context, ev interfaces.RegistryEvent) (interfaces.RegistryEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	ev.Seq = uint64(len(j.events)) + 1
	j.events = append(j.events, ev)
	return ev, nil
}

func (j *MemoryJournal) Replay(ctx context.Context, fn func(interfaces.RegistryEvent) error) error {
	j.mu.RLock()
	events := make([]interfaces.RegistryEvent, len(j.events))
	copy(events, j.events)
	j.mu.RUnlock()

	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (j *MemoryJournal) Since(ctx context.Context, afterSeq uint64, limit int) ([]interfaces.RegistryEvent, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := []interfaces.RegistryEvent{}
	if afterSeq >= uint64(len(j.events)) {
		return result, nil
	}
	for _, ev := range j.events[afterSeq:] {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, ev)
	}
	return result, nil
}

func (j *MemoryJournal) Close() error {
	return nil
}
