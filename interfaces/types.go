// Package interfaces defines the core interfaces and types for the image copyright registry.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ContractAddress represents an Ethereum contract address.
type ContractAddress [20]byte

// NewContractAddressFromBytes creates a contract address from a 20-byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex parses a 40-character hex address, with or without 0x prefix.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	addrBytes, err := decodeAddressHex(addr)
	if err != nil {
		return ContractAddress{}, err
	}
	return NewContractAddressFromBytes(addrBytes)
}

// String returns the hex string representation of the contract address.
func (addr ContractAddress) String() string {
	return hex.EncodeToString(addr[:])
}

// Identity is the authenticated account address of a registry caller.
// The registry treats it as opaque and only compares it for equality.
type Identity [20]byte

// NewIdentityFromBytes creates an identity from a 20-byte slice.
func NewIdentityFromBytes(addr []byte) (Identity, error) {
	if len(addr) != 20 {
		return Identity{}, errors.New("invalid identity length: must be 20 bytes")
	}

	var res Identity
	copy(res[:], addr)
	return res, nil
}

// NewIdentityFromHex parses a 40-character hex address, with or without 0x prefix.
func NewIdentityFromHex(addr string) (Identity, error) {
	addrBytes, err := decodeAddressHex(addr)
	if err != nil {
		return Identity{}, err
	}
	return NewIdentityFromBytes(addrBytes)
}

// String returns the EIP-55 checksummed hex form of the identity.
func (id Identity) String() string {
	return common.Address(id).Hex()
}

// IsZero reports whether the identity is the zero address.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := NewIdentityFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func decodeAddressHex(addr string) ([]byte, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(clean) != 40 {
		return nil, errors.New("invalid address length: hex string must be 40 characters")
	}

	addrBytes, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}
	return addrBytes, nil
}

// ImageRecord is one registered image claim.
//
// ID, ContentHash, Author and CreatedAt never change after registration.
// Title and Description may be replaced by the author.
type ImageRecord struct {
	ID          uint64    `json:"id"`
	ContentHash string    `json:"content_hash"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      Identity  `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegistryStats summarises the registry from the point of view of one caller.
type RegistryStats struct {
	TotalCount  uint64 `json:"total_count"`
	CallerCount uint64 `json:"caller_count"`
}

// EventKind distinguishes registry notifications.
type EventKind string

const (
	// EventRegistered is emitted after a successful registration.
	EventRegistered EventKind = "registered"
	// EventUpdated is emitted after a successful title/description update.
	EventUpdated EventKind = "updated"
)

// RegistryEvent is a committed registry mutation. It doubles as the durable
// journal entry the registry state is rebuilt from.
//
// Registered events carry ID, ContentHash, Title, Description, Author and CreatedAt.
// Updated events carry ID, Title, Description and the updating Author.
type RegistryEvent struct {
	Seq         uint64    `json:"seq"`
	Kind        EventKind `json:"kind"`
	ID          uint64    `json:"id"`
	ContentHash string    `json:"content_hash,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      Identity  `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// EncodeEvent serialises an event for journal storage.
func EncodeEvent(ev RegistryEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// DecodeEvent parses a journal entry produced by EncodeEvent.
func DecodeEvent(data []byte) (RegistryEvent, error) {
	var ev RegistryEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return RegistryEvent{}, fmt.Errorf("could not decode registry event: %w", err)
	}
	return ev, nil
}
