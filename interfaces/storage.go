package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ComputeContentHash returns the content address of data: a CIDv1 with the raw
// codec over a sha2-256 multihash, in its default base32 string form.
// Identical bytes always produce the same address.
func ComputeContentHash(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("could not hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}

// ParseContentHash validates that contentHash is a well formed CID (v0 or v1).
func ParseContentHash(contentHash string) (cid.Cid, error) {
	c, err := cid.Decode(contentHash)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: malformed content hash %q: %v", ErrInvalidArgument, contentHash, err)
	}
	return c, nil
}

// StorageBackendLocation represents URI for a content store backend.
type StorageBackendLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewStorageBackendLocation creates a new storage location from a URI string with validation.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := parsed.Scheme
	switch scheme {
	case "file", "s3", "ipfs", "vault":
	default:
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported storage scheme: %s", ErrInvalidLocationURI, scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StorageBackendLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StorageBackendLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}

var (
	// ErrContentNotFound is returned when requested content cannot be found in the content store.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a content store backend is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// ContentStore is the content-addressed store images are uploaded to. The
// registry never inspects file contents, only the hash returned by Put.
type ContentStore interface {
	// Put stores data and returns its content hash.
	Put(ctx context.Context, data []byte) (string, error)

	// Fetch retrieves data by content hash.
	Fetch(ctx context.Context, contentHash string) ([]byte, error)

	// Resolve returns a location the content can be retrieved from.
	Resolve(contentHash string) string

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// ContentStoreFactory creates content stores.
type ContentStoreFactory interface {
	// StoreFor creates a content store from a URI.
	// Supports file://, s3://, ipfs://, vault://
	StoreFor(location StorageBackendLocation) (ContentStore, error)

	// CreateMultiStore creates an aggregated content store.
	CreateMultiStore(locations []StorageBackendLocation) (ContentStore, error)
}
