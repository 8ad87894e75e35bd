package identity

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

const (
	HeaderAddress   = "X-Registry-Address"
	HeaderSignature = "X-Registry-Signature"
	HeaderTimestamp = "X-Registry-Timestamp"
)

// KeySigner signs registry requests with a local secp256k1 key.
type KeySigner struct {
	key      *ecdsa.PrivateKey
	identity interfaces.Identity
}

// NewKeySigner wraps an existing private key.
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:      key,
		identity: interfaces.Identity(crypto.PubkeyToAddress(key.PublicKey)),
	}
}

// NewKeySignerFromHex loads a hex encoded private key, with or without 0x prefix.
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeySigner(key), nil
}

// GenerateKeySigner creates a signer with a fresh random key.
func GenerateKeySigner() (*KeySigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKeySigner(key), nil
}

func (s *KeySigner) Identity() interfaces.Identity {
	return s.identity
}

// PrivateKey exposes the key for building on-chain transactors.
func (s *KeySigner) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// PrivateKeyHex returns the hex encoding of the key without 0x prefix.
func (s *KeySigner) PrivateKeyHex() string {
	return hex.EncodeToString(crypto.FromECDSA(s.key))
}

// SignRequest signs the request digest. The result is in [R || S || V]
// form with V being 0 or 1.
func (s *KeySigner) SignRequest(method, path string, body []byte, timestamp int64) ([]byte, error) {
	signature, err := crypto.Sign(RequestDigest(method, path, body, timestamp), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return signature, nil
}

// RequestDigest returns the EIP-191 hash a request signature is made over.
func RequestDigest(method, path string, body []byte, timestamp int64) []byte {
	bodyHash := sha256.Sum256(body)
	message := strings.Join([]string{
		strings.ToUpper(method),
		path,
		strconv.FormatInt(timestamp, 10),
		hex.EncodeToString(bodyHash[:]),
	}, "\n")
	return accounts.TextHash([]byte(message))
}

// SignHTTPRequest adds authentication headers to req using the current time.
// The request body is read and restored.
func SignHTTPRequest(req *http.Request, signer interfaces.Signer) error {
	return SignHTTPRequestAt(req, signer, time.Now())
}

// SignHTTPRequestAt is SignHTTPRequest with an explicit signing time.
func SignHTTPRequestAt(req *http.Request, signer interfaces.Signer, now time.Time) error {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	timestamp := now.Unix()
	signature, err := signer.SignRequest(req.Method, req.URL.Path, body, timestamp)
	if err != nil {
		return err
	}

	req.Header.Set(HeaderAddress, signer.Identity().String())
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderSignature, hex.EncodeToString(signature))
	return nil
}
