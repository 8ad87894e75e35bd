package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// DefaultMaxSkew bounds the difference between the signing time and the server clock.
const DefaultMaxSkew = 5 * time.Minute

// replayCacheSize bounds how many accepted request digests are remembered.
const replayCacheSize = 1 << 16

var (
	// ErrMissingCredentials is returned when a request carries no signature headers.
	ErrMissingCredentials = errors.New("missing request signature")

	// ErrInvalidSignature is returned when the signature is malformed, stale,
	// already used, or was not produced by the claimed address.
	ErrInvalidSignature = errors.New("invalid request signature")
)

// SignatureVerifier implements interfaces.IdentityVerifier for requests
// signed by SignHTTPRequest.
type SignatureVerifier struct {
	maxSkew time.Duration
	now     func() time.Time
	log     *slog.Logger

	// digests of accepted requests, kept while their timestamp is within skew
	seenMu sync.Mutex
	seen   *expirable.LRU[string, struct{}]
}

func NewSignatureVerifier(maxSkew time.Duration, log *slog.Logger) *SignatureVerifier {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	return &SignatureVerifier{
		maxSkew: maxSkew,
		now:     time.Now,
		log:     log,
		seen:    expirable.NewLRU[string, struct{}](replayCacheSize, nil, 2*maxSkew),
	}
}

// WithClock replaces the clock used for the skew check.
func (v *SignatureVerifier) WithClock(now func() time.Time) *SignatureVerifier {
	v.now = now
	return v
}

// Authenticate verifies the request signature over body and returns the signer.
func (v *SignatureVerifier) Authenticate(r *http.Request, body []byte) (interfaces.Identity, error) {
	addressStr := r.Header.Get(HeaderAddress)
	signatureStr := r.Header.Get(HeaderSignature)
	timestampStr := r.Header.Get(HeaderTimestamp)

	if addressStr == "" || signatureStr == "" || timestampStr == "" {
		return interfaces.Identity{}, ErrMissingCredentials
	}

	claimed, err := interfaces.NewIdentityFromHex(addressStr)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: bad address: %v", ErrInvalidSignature, err)
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: bad timestamp: %v", ErrInvalidSignature, err)
	}

	skew := v.now().Sub(time.Unix(timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		v.log.Warn("Authentication failed: stale signature",
			slog.String("author", claimed.String()),
			slog.Duration("skew", skew))
		return interfaces.Identity{}, fmt.Errorf("%w: timestamp outside allowed skew", ErrInvalidSignature)
	}

	signature, err := hex.DecodeString(strings.TrimPrefix(signatureStr, "0x"))
	if err != nil || len(signature) != crypto.SignatureLength {
		return interfaces.Identity{}, fmt.Errorf("%w: bad signature encoding", ErrInvalidSignature)
	}

	// wallets produce V as 27/28
	if signature[crypto.RecoveryIDOffset] >= 27 {
		signature[crypto.RecoveryIDOffset] -= 27
	}

	digest := RequestDigest(r.Method, r.URL.Path, body, timestamp)
	pubKey, err := crypto.SigToPub(digest, signature)
	if err != nil {
		return interfaces.Identity{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	signer := interfaces.Identity(crypto.PubkeyToAddress(*pubKey))
	if signer != claimed {
		v.log.Warn("Authentication failed: signer mismatch",
			slog.String("author", claimed.String()),
			slog.String("signer", signer.String()))
		return interfaces.Identity{}, fmt.Errorf("%w: signer does not match address", ErrInvalidSignature)
	}

	// keyed by digest so a re-encoded signature over the same request is caught too
	key := signer.String() + ":" + hex.EncodeToString(digest)
	v.seenMu.Lock()
	defer v.seenMu.Unlock()
	if v.seen.Contains(key) {
		v.log.Warn("Authentication failed: request replayed",
			slog.String("author", signer.String()),
			slog.Int64("timestamp", timestamp))
		return interfaces.Identity{}, fmt.Errorf("%w: request already used", ErrInvalidSignature)
	}
	v.seen.Add(key, struct{}{})

	return signer, nil
}

// Claimed returns the address header without verifying it.
func (v *SignatureVerifier) Claimed(r *http.Request) (interfaces.Identity, bool) {
	addressStr := r.Header.Get(HeaderAddress)
	if addressStr == "" {
		return interfaces.Identity{}, false
	}
	claimed, err := interfaces.NewIdentityFromHex(addressStr)
	if err != nil {
		return interfaces.Identity{}, false
	}
	return claimed, true
}
