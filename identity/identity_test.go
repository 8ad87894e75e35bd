package identity

import (
	"bytes"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func testVerifier(now time.Time) *SignatureVerifier {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSignatureVerifier(0, log).WithClock(func() time.Time { return now })
}

func signedRequest(t *testing.T, signer *KeySigner, method, path string, body []byte, at time.Time) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, SignHTTPRequestAt(req, signer, at))
	return req
}

func TestKeySigner(t *testing.T) {
	signer, err := NewKeySignerFromHex("0x" + testKeyHex)
	require.NoError(t, err)

	expected := crypto.PubkeyToAddress(signer.PrivateKey().PublicKey)
	assert.Equal(t, interfaces.Identity(expected), signer.Identity())
	assert.Equal(t, testKeyHex, signer.PrivateKeyHex())

	_, err = NewKeySignerFromHex("zz")
	assert.Error(t, err)

	generated, err := GenerateKeySigner()
	require.NoError(t, err)
	assert.NotEqual(t, signer.Identity(), generated.Identity())
}

func TestSignHTTPRequestRestoresBody(t *testing.T) {
	signer, err := GenerateKeySigner()
	require.NoError(t, err)

	body := []byte(`{"title":"Sunset"}`)
	req := signedRequest(t, signer, http.MethodPost, "/api/images", body, time.Now())

	restored, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, body, restored)
	assert.Equal(t, signer.Identity().String(), req.Header.Get(HeaderAddress))
	assert.Len(t, req.Header.Get(HeaderSignature), 2*crypto.SignatureLength)
}

func TestSignatureVerifier_Authenticate(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer, err := NewKeySignerFromHex(testKeyHex)
	require.NoError(t, err)
	other, err := GenerateKeySigner()
	require.NoError(t, err)

	body := []byte(`{"content_hash":"bafkrei","title":"Sunset"}`)

	t.Run("valid", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		caller, err := testVerifier(now).Authenticate(req, body)
		require.NoError(t, err)
		assert.Equal(t, signer.Identity(), caller)
	})

	t.Run("wallet style recovery id", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		sig, err := hex.DecodeString(req.Header.Get(HeaderSignature))
		require.NoError(t, err)
		sig[crypto.RecoveryIDOffset] += 27
		req.Header.Set(HeaderSignature, "0x"+hex.EncodeToString(sig))

		caller, err := testVerifier(now).Authenticate(req, body)
		require.NoError(t, err)
		assert.Equal(t, signer.Identity(), caller)
	})

	t.Run("missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/images", nil)
		_, err := testVerifier(now).Authenticate(req, nil)
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		_, err := testVerifier(now).Authenticate(req, []byte(`{"title":"Other"}`))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("different path", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPut, "/api/images/1", body, now)
		req.URL.Path = "/api/images/2"
		_, err := testVerifier(now).Authenticate(req, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("claimed address of someone else", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		req.Header.Set(HeaderAddress, other.Identity().String())
		_, err := testVerifier(now).Authenticate(req, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now.Add(-10*time.Minute))
		_, err := testVerifier(now).Authenticate(req, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("future timestamp within skew", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now.Add(2*time.Minute))
		_, err := testVerifier(now).Authenticate(req, body)
		assert.NoError(t, err)
	})

	t.Run("malformed fields", func(t *testing.T) {
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		req.Header.Set(HeaderSignature, "abcd")
		_, err := testVerifier(now).Authenticate(req, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)

		req = signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		req.Header.Set(HeaderTimestamp, "yesterday")
		_, err = testVerifier(now).Authenticate(req, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)

		req = signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		req.Header.Set(HeaderAddress, "0x1234")
		_, err = testVerifier(now).Authenticate(req, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("resent request", func(t *testing.T) {
		v := testVerifier(now)
		req := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		_, err := v.Authenticate(req, body)
		require.NoError(t, err)

		resent := signedRequest(t, signer, http.MethodPost, "/api/images", body, now)
		_, err = v.Authenticate(resent, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)

		// same request re-encoded with a wallet style recovery id
		sig, err := hex.DecodeString(resent.Header.Get(HeaderSignature))
		require.NoError(t, err)
		sig[crypto.RecoveryIDOffset] += 27
		resent.Header.Set(HeaderSignature, "0x"+hex.EncodeToString(sig))
		_, err = v.Authenticate(resent, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)

		later := signedRequest(t, signer, http.MethodPost, "/api/images", body, now.Add(time.Second))
		caller, err := v.Authenticate(later, body)
		require.NoError(t, err)
		assert.Equal(t, signer.Identity(), caller)

		// another author sending the same body is unaffected
		theirs := signedRequest(t, other, http.MethodPost, "/api/images", body, now)
		_, err = v.Authenticate(theirs, body)
		assert.NoError(t, err)
	})
}

func TestSignatureVerifier_Claimed(t *testing.T) {
	signer, err := GenerateKeySigner()
	require.NoError(t, err)
	v := testVerifier(time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	_, ok := v.Claimed(req)
	assert.False(t, ok)

	req.Header.Set(HeaderAddress, signer.Identity().String())
	claimed, ok := v.Claimed(req)
	assert.True(t, ok)
	assert.Equal(t, signer.Identity(), claimed)

	req.Header.Set(HeaderAddress, "garbage")
	_, ok = v.Claimed(req)
	assert.False(t, ok)
}

func TestRequestDigestIsStable(t *testing.T) {
	a := RequestDigest("post", "/api/images", []byte("x"), 42)
	b := RequestDigest("POST", "/api/images", []byte("x"), 42)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, RequestDigest("POST", "/api/images", []byte("x"), 43))
}
