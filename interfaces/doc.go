// Package interfaces defines core interfaces and types for the image copyright
// registry, separating interface definitions from implementations.
//
// # Registry Interfaces
//
// ImageRegistry: the authoritative registry of image claims. Mutating calls
// receive the already-authenticated caller identity; the registry only
// authorizes (compares authors), it never authenticates.
//
// RegistryProvider: the same surface as seen by a client whose identity is
// implied by its signer, implemented by the HTTP client and the on-chain client.
//
// EventJournal: the durable ordered log of committed mutations that the
// registry state is rebuilt from on start.
//
// # Storage Interfaces
//
// ContentStore: content-addressed storage for image bytes across multiple
// backend types (file, S3, IPFS, Vault).
//
// ContentStoreFactory: creates content stores from URI strings and manages
// multi-backend configurations for redundant storage.
//
// # Identity Interfaces
//
// Signer and IdentityVerifier: request signing on the client and signature
// recovery on the server.
//
// # Errors
//
// ErrInvalidArgument, ErrDuplicateContent, ErrNotFound and ErrUnauthorized
// form the registry error taxonomy. Implementations wrap them with %w so that
// callers can classify failures with errors.Is at any layer.
package interfaces
