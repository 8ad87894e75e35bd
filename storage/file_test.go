package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "images")

	store, err := NewFileStore(dir, discardLogger())
	require.NoError(t, err)
	assert.True(t, store.Available(ctx))

	data := pngFixture()
	contentHash, err := store.Put(ctx, data)
	require.NoError(t, err)

	expected, err := interfaces.ComputeContentHash(data)
	require.NoError(t, err)
	assert.Equal(t, expected, contentHash)

	t.Run("put is idempotent", func(t *testing.T) {
		again, err := store.Put(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, contentHash, again)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("fetch round trip", func(t *testing.T) {
		fetched, err := store.Fetch(ctx, contentHash)
		require.NoError(t, err)
		assert.Equal(t, data, fetched)
	})

	t.Run("fetch missing", func(t *testing.T) {
		missing, err := interfaces.ComputeContentHash([]byte("never stored"))
		require.NoError(t, err)

		_, err = store.Fetch(ctx, missing)
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
	})

	t.Run("fetch malformed hash", func(t *testing.T) {
		_, err := store.Fetch(ctx, "not-a-cid")
		assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
	})

	t.Run("corrupt file is detected", func(t *testing.T) {
		other := []byte("tampered")
		otherHash, err := store.Put(ctx, other)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, otherHash), []byte("swapped"), 0644))

		_, err = store.Fetch(ctx, otherHash)
		assert.ErrorIs(t, err, ErrContentMismatch)
	})

	t.Run("resolve", func(t *testing.T) {
		assert.Equal(t, "file://"+filepath.Join(dir, contentHash), store.Resolve(contentHash))
	})
}

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
		wantErr  bool
	}{
		{name: "png", data: pngFixture(), expected: "image/png"},
		{name: "jpeg", data: []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00"), expected: "image/jpeg"},
		{name: "gif", data: []byte("GIF89a\x01\x00\x01\x00"), expected: "image/gif"},
		{name: "text", data: []byte("hello world"), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mediaType, err := DetectImageType(tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mediaType)
		})
	}
}

func pngFixture() []byte {
	return append([]byte("\x89PNG\x0D\x0A\x1A\x0A"), []byte("\x00\x00\x00\x0DIHDR")...)
}
