package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// ErrCorruptJournal is returned when a replayed journal does not describe a valid history.
var ErrCorruptJournal = errors.New("registry journal is inconsistent")

// Registry is the in-process, authoritative image copyright registry.
//
// Mutations are serialized by mu. Each one is validated, appended to the
// journal and only then applied in memory, so a failed call leaves no trace.
// Notifications are sent under notifyMu, which is taken before mu is
// released: subscribers observe events in commit order while readers are
// not blocked by slow subscribers.
type Registry struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex

	records []interfaces.ImageRecord // records[i].ID == i+1
	byHash  map[string]uint64

	journal interfaces.EventJournal
	feed    event.FeedOf[interfaces.RegistryEvent]
	now     func() time.Time
	log     *slog.Logger
}

var _ interfaces.ImageRegistry = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the source of registration timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a registry backed by journal and rebuilds its state from
// the events already stored there.
func NewRegistry(ctx context.Context, journal interfaces.EventJournal, log *slog.Logger, opts ...Option) (*Registry, error) {
	r := &Registry{
		byHash:  make(map[string]uint64),
		journal: journal,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(r)
	}

	var replayed int
	err := journal.Replay(ctx, func(ev interfaces.RegistryEvent) error {
		if err := r.validateReplay(ev); err != nil {
			return fmt.Errorf("event %d: %w", ev.Seq, err)
		}
		r.apply(ev)
		replayed++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not replay journal: %w", err)
	}

	log.Info("registry loaded", "events", replayed, "images", len(r.records))
	return r, nil
}

func (r *Registry) validateReplay(ev interfaces.RegistryEvent) error {
	switch ev.Kind {
	case interfaces.EventRegistered:
		if ev.ID != uint64(len(r.records))+1 {
			return fmt.Errorf("%w: expected image id %d, got %d", ErrCorruptJournal, len(r.records)+1, ev.ID)
		}
		if _, taken := r.byHash[ev.ContentHash]; taken {
			return fmt.Errorf("%w: duplicate content hash %s", ErrCorruptJournal, ev.ContentHash)
		}
	case interfaces.EventUpdated:
		if ev.ID == 0 || ev.ID > uint64(len(r.records)) {
			return fmt.Errorf("%w: update of unknown image %d", ErrCorruptJournal, ev.ID)
		}
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrCorruptJournal, ev.Kind)
	}
	return nil
}

// apply mutates in-memory state. Callers hold mu and have validated ev.
func (r *Registry) apply(ev interfaces.RegistryEvent) {
	switch ev.Kind {
	case interfaces.EventRegistered:
		r.records = append(r.records, interfaces.ImageRecord{
			ID:          ev.ID,
			ContentHash: ev.ContentHash,
			Title:       ev.Title,
			Description: ev.Description,
			Author:      ev.Author,
			CreatedAt:   ev.CreatedAt,
		})
		r.byHash[ev.ContentHash] = ev.ID
	case interfaces.EventUpdated:
		rec := &r.records[ev.ID-1]
		rec.Title = ev.Title
		rec.Description = ev.Description
	}
}

// commit journals ev, applies it and notifies subscribers. It must be called
// with mu held for writing and always releases it.
func (r *Registry) commit(ctx context.Context, ev interfaces.RegistryEvent) (interfaces.RegistryEvent, error) {
	stored, err := r.journal.Append(ctx, ev)
	if err != nil {
		r.mu.Unlock()
		return ev, fmt.Errorf("could not journal %s event: %w", ev.Kind, err)
	}
	r.apply(stored)

	r.notifyMu.Lock()
	r.mu.Unlock()
	r.feed.Send(stored)
	r.notifyMu.Unlock()

	return stored, nil
}

// Register records a new image authored by caller and returns its id. The
// first registration of a content hash wins; later ones fail with
// ErrDuplicateContent.
func (r *Registry) Register(ctx context.Context, contentHash, title, description string, caller interfaces.Identity) (uint64, error) {
	if contentHash == "" {
		return 0, fmt.Errorf("%w: content hash cannot be empty", interfaces.ErrInvalidArgument)
	}
	if title == "" {
		return 0, fmt.Errorf("%w: title cannot be empty", interfaces.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	if existing, taken := r.byHash[contentHash]; taken {
		r.mu.Unlock()
		return 0, fmt.Errorf("%w: %s is image %d", interfaces.ErrDuplicateContent, contentHash, existing)
	}

	stored, err := r.commit(ctx, interfaces.RegistryEvent{
		Kind:        interfaces.EventRegistered,
		ID:          uint64(len(r.records)) + 1,
		ContentHash: contentHash,
		Title:       title,
		Description: description,
		Author:      caller,
		CreatedAt:   r.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		r.log.Error("registration failed", "err", err, "contentHash", contentHash)
		return 0, err
	}

	r.log.Info("image registered", "id", stored.ID, "contentHash", contentHash, "author", caller.String())
	return stored.ID, nil
}

// Update replaces the title and description of image id. Only the author may
// update; the title must not be empty.
func (r *Registry) Update(ctx context.Context, id uint64, title, description string, caller interfaces.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if id == 0 || id > uint64(len(r.records)) {
		r.mu.Unlock()
		return fmt.Errorf("%w: image %d", interfaces.ErrNotFound, id)
	}
	if r.records[id-1].Author != caller {
		r.mu.Unlock()
		return fmt.Errorf("%w: image %d", interfaces.ErrUnauthorized, id)
	}
	if title == "" {
		r.mu.Unlock()
		return fmt.Errorf("%w: title cannot be empty", interfaces.ErrInvalidArgument)
	}

	_, err := r.commit(ctx, interfaces.RegistryEvent{
		Kind:        interfaces.EventUpdated,
		ID:          id,
		Title:       title,
		Description: description,
		Author:      caller,
	})
	if err != nil {
		r.log.Error("update failed", "err", err, "id", id)
		return err
	}

	r.log.Info("image updated", "id", id)
	return nil
}

// GetByID returns a copy of the record with the given id.
func (r *Registry) GetByID(ctx context.Context, id uint64) (*interfaces.ImageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == 0 || id > uint64(len(r.records)) {
		return nil, fmt.Errorf("%w: image %d", interfaces.ErrNotFound, id)
	}
	rec := r.records[id-1]
	return &rec, nil
}

// GetByHash returns a copy of the record registered for contentHash.
func (r *Registry) GetByHash(ctx context.Context, contentHash string) (*interfaces.ImageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[contentHash]
	if !ok {
		return nil, fmt.Errorf("%w: content hash %s", interfaces.ErrNotFound, contentHash)
	}
	rec := r.records[id-1]
	return &rec, nil
}

// Exists reports whether contentHash is registered.
func (r *Registry) Exists(ctx context.Context, contentHash string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byHash[contentHash]
	return ok, nil
}

// ListAll returns every record in id order.
func (r *Registry) ListAll(ctx context.Context) ([]interfaces.ImageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]interfaces.ImageRecord, len(r.records))
	copy(result, r.records)
	return result, nil
}

// ListByAuthor returns the records registered by author, in id order.
func (r *Registry) ListByAuthor(ctx context.Context, author interfaces.Identity) ([]interfaces.ImageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []interfaces.ImageRecord{}
	for _, rec := range r.records {
		if rec.Author == author {
			result = append(result, rec)
		}
	}
	return result, nil
}

// Stats returns the total number of records and the number authored by caller.
func (r *Registry) Stats(ctx context.Context, caller interfaces.Identity) (interfaces.RegistryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := interfaces.RegistryStats{TotalCount: uint64(len(r.records))}
	for _, rec := range r.records {
		if rec.Author == caller {
			stats.CallerCount++
		}
	}
	return stats, nil
}

// Subscribe registers ch for notifications. Delivery is synchronous: a
// subscriber that stops reading stalls every later mutation until it
// unsubscribes.
func (r *Registry) Subscribe(ch chan<- interfaces.RegistryEvent) event.Subscription {
	return r.feed.Subscribe(ch)
}

// History returns up to limit journaled events with a sequence number above afterSeq.
func (r *Registry) History(ctx context.Context, afterSeq uint64, limit int) ([]interfaces.RegistryEvent, error) {
	return r.journal.Since(ctx, afterSeq, limit)
}

// Bound adapts the registry to a fixed caller, for in-process clients.
func (r *Registry) Bound(caller interfaces.Identity) interfaces.RegistryProvider {
	return &boundRegistry{registry: r, caller: caller}
}

type boundRegistry struct {
	registry *Registry
	caller   interfaces.Identity
}

func (b *boundRegistry) Register(ctx context.Context, contentHash, title, description string) (uint64, error) {
	return b.registry.Register(ctx, contentHash, title, description, b.caller)
}

func (b *boundRegistry) Update(ctx context.Context, id uint64, title, description string) error {
	return b.registry.Update(ctx, id, title, description, b.caller)
}

func (b *boundRegistry) GetByID(ctx context.Context, id uint64) (*interfaces.ImageRecord, error) {
	return b.registry.GetByID(ctx, id)
}

func (b *boundRegistry) GetByHash(ctx context.Context, contentHash string) (*interfaces.ImageRecord, error) {
	return b.registry.GetByHash(ctx, contentHash)
}

func (b *boundRegistry) Exists(ctx context.Context, contentHash string) (bool, error) {
	return b.registry.Exists(ctx, contentHash)
}

func (b *boundRegistry) ListAll(ctx context.Context) ([]interfaces.ImageRecord, error) {
	return b.registry.ListAll(ctx)
}

func (b *boundRegistry) ListByAuthor(ctx context.Context, author interfaces.Identity) ([]interfaces.ImageRecord, error) {
	return b.registry.ListByAuthor(ctx, author)
}

func (b *boundRegistry) Stats(ctx context.Context) (interfaces.RegistryStats, error) {
	return b.registry.Stats(ctx, b.caller)
}
