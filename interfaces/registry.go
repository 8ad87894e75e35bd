package interfaces

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/event"
)

var (
	// ErrInvalidArgument is returned when a required field is empty or malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDuplicateContent is returned when a content hash is already registered.
	// The first registration of a hash wins and is never overridden.
	ErrDuplicateContent = errors.New("content hash already registered")

	// ErrNotFound is returned when a referenced id or content hash does not exist.
	ErrNotFound = errors.New("image not found")

	// ErrUnauthorized is returned when a caller other than the author tries to update a record.
	ErrUnauthorized = errors.New("only the author can update the image")
)

// ImageRegistry is the authoritative copyright registry.
//
// Mutating calls take the caller identity explicitly: it has already been
// authenticated by an IdentityVerifier and is only compared, never checked.
type ImageRegistry interface {
	// Register claims contentHash for caller and returns the new record id.
	Register(ctx context.Context, contentHash, title, description string, caller Identity) (uint64, error)

	// Update replaces title and description of a record authored by caller.
	Update(ctx context.Context, id uint64, title, description string, caller Identity) error

	GetByID(ctx context.Context, id uint64) (*ImageRecord, error)
	GetByHash(ctx context.Context, contentHash string) (*ImageRecord, error)

	// Exists is a membership test and does not fail on a miss.
	Exists(ctx context.Context, contentHash string) (bool, error)

	// ListAll returns every record in ascending id order.
	ListAll(ctx context.Context) ([]ImageRecord, error)

	// ListByAuthor returns the records of author in ascending id order.
	ListByAuthor(ctx context.Context, author Identity) ([]ImageRecord, error)

	Stats(ctx context.Context, caller Identity) (RegistryStats, error)

	// Subscribe delivers notifications committed after the call.
	Subscribe(ch chan<- RegistryEvent) event.Subscription

	// History returns journaled notifications with Seq greater than afterSeq.
	History(ctx context.Context, afterSeq uint64, limit int) ([]RegistryEvent, error)
}

// RegistryProvider is the registry surface seen by a client whose identity is
// implied by its signer (HTTP API client, on-chain contract client).
type RegistryProvider interface {
	Register(ctx context.Context, contentHash, title, description string) (uint64, error)
	Update(ctx context.Context, id uint64, title, description string) error
	GetByID(ctx context.Context, id uint64) (*ImageRecord, error)
	GetByHash(ctx context.Context, contentHash string) (*ImageRecord, error)
	Exists(ctx context.Context, contentHash string) (bool, error)
	ListAll(ctx context.Context) ([]ImageRecord, error)
	ListByAuthor(ctx context.Context, author Identity) ([]ImageRecord, error)
	Stats(ctx context.Context) (RegistryStats, error)
}

// EventJournal is the durable, ordered log of committed registry mutations.
type EventJournal interface {
	// Append durably stores ev. The journal assigns ev.Seq if it is zero.
	Append(ctx context.Context, ev RegistryEvent) (RegistryEvent, error)

	// Replay calls fn for every stored event in sequence order.
	Replay(ctx context.Context, fn func(RegistryEvent) error) error

	// Since returns up to limit events with Seq greater than afterSeq. A
	// non-positive limit returns everything.
	Since(ctx context.Context, afterSeq uint64, limit int) ([]RegistryEvent, error)

	Close() error
}

// Signer represents a wallet able to authorize mutating calls.
type Signer interface {
	Identity() Identity
	SignRequest(method, path string, body []byte, timestamp int64) ([]byte, error)
}

// IdentityVerifier authenticates the caller of an HTTP request.
type IdentityVerifier interface {
	// Authenticate verifies the request signature and returns the signer.
	Authenticate(r *http.Request, body []byte) (Identity, error)

	// Claimed returns the caller identity asserted by the request without
	// verifying it, for read calls that only need a point of view.
	Claimed(r *http.Request) (Identity, bool)
}
