package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/image-copyright-registry/api/handlers"
	"github.com/ruteri/image-copyright-registry/identity"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/ruteri/image-copyright-registry/registry"
	"github.com/ruteri/image-copyright-registry/statedb"
	"github.com/ruteri/image-copyright-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := registry.NewRegistry(context.Background(), statedb.NewMemoryJournal(), logger)
	require.NoError(t, err)
	store, err := storage.NewFileStore(t.TempDir(), logger)
	require.NoError(t, err)

	handler := handlers.NewHandler(reg, store, identity.NewSignatureVerifier(0, logger), logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterStreamRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, reg
}

func newSigner(t *testing.T) *identity.KeySigner {
	t.Helper()
	signer, err := identity.GenerateKeySigner()
	require.NoError(t, err)
	return signer
}

func TestRegistryClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	srv, _ := setupServer(t)

	alice := newSigner(t)
	bob := newSigner(t)
	aliceClient := NewRegistryClient(srv.URL, alice)
	bobClient := NewRegistryClient(srv.URL, bob)
	readOnly := NewRegistryClient(srv.URL+"/", nil)

	records, err := readOnly.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	id, err := aliceClient.Register(ctx, "QmSunset", "Sunset", "Dusk")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	_, err = bobClient.Register(ctx, "QmSunset", "Mine now", "")
	assert.ErrorIs(t, err, interfaces.ErrDuplicateContent)

	_, err = aliceClient.Register(ctx, "QmNoTitle", "", "")
	assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)

	_, err = readOnly.Register(ctx, "QmAnon", "Anon", "")
	assert.ErrorIs(t, err, ErrNoSigner)

	err = bobClient.Update(ctx, id, "Hijacked", "")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	err = aliceClient.Update(ctx, 42, "Missing", "")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, aliceClient.Update(ctx, id, "Sunset (edit)", "Golden hour"))

	record, err := readOnly.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sunset (edit)", record.Title)
	assert.Equal(t, "Golden hour", record.Description)
	assert.Equal(t, alice.Identity(), record.Author)

	byHash, err := readOnly.GetByHash(ctx, "QmSunset")
	require.NoError(t, err)
	assert.Equal(t, record, byHash)

	_, err = readOnly.GetByHash(ctx, "QmMissing")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	exists, err := readOnly.Exists(ctx, "QmSunset")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = readOnly.Exists(ctx, "QmMissing")
	require.NoError(t, err)
	assert.False(t, exists)

	verified, err := readOnly.Verify(ctx, "QmSunset")
	require.NoError(t, err)
	assert.True(t, verified.Registered)
	assert.Equal(t, alice.Identity(), verified.Record.Author)

	_, err = bobClient.Register(ctx, "QmHarbor", "Harbor", "")
	require.NoError(t, err)

	mine, err := readOnly.ListByAuthor(ctx, bob.Identity())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Harbor", mine[0].Title)

	stats, err := aliceClient.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.RegistryStats{TotalCount: 2, CallerCount: 1}, stats)

	stats, err = readOnly.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, interfaces.RegistryStats{TotalCount: 2, CallerCount: 0}, stats)

	history, err := readOnly.History(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, history.Events, 3)
	assert.Equal(t, interfaces.EventUpdated, history.Events[1].Kind)
	assert.Equal(t, uint64(3), history.NextAfter)
}

func TestRegistryClient_Upload(t *testing.T) {
	ctx := context.Background()
	srv, reg := setupServer(t)
	client := NewRegistryClient(srv.URL, newSigner(t))

	png := []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")
	resp, err := client.Upload(ctx, "pixel.png", png, "Pixel", "")
	require.NoError(t, err)

	expected, err := interfaces.ComputeContentHash(png)
	require.NoError(t, err)
	assert.Equal(t, expected, resp.ContentHash)
	assert.NotEmpty(t, resp.URL)

	exists, err := reg.Exists(ctx, expected)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = client.Upload(ctx, "notes.txt", []byte("just text"), "Notes", "")
	assert.ErrorIs(t, err, interfaces.ErrInvalidArgument)
}

func TestRegistryClient_Watch(t *testing.T) {
	srv, reg := setupServer(t)
	author := newSigner(t)
	client := NewRegistryClient(srv.URL, author)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.Register(ctx, "QmFirst", "First", "")
	require.NoError(t, err)

	sink := make(chan interfaces.RegistryEvent, 8)
	watchCtx, stopWatch := context.WithCancel(ctx)
	done := make(chan error, 1)
	var lastSeq uint64
	go func() {
		var err error
		lastSeq, err = client.Watch(watchCtx, 0, sink)
		done <- err
	}()

	// the subscription races the first registrations
	var first interfaces.RegistryEvent
	require.Eventually(t, func() bool {
		if _, err := reg.Register(ctx, "QmLive-"+time.Now().Format(time.RFC3339Nano), "Live", "", author.Identity()); err != nil {
			return false
		}
		select {
		case first = <-sink:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, interfaces.EventRegistered, first.Kind)
	assert.Equal(t, "Live", first.Title)

	stopWatch()
	err = <-done
	assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
	assert.GreaterOrEqual(t, lastSeq, first.Seq)

	// resuming delivers what was missed while disconnected
	_, err = client.Register(ctx, "QmWhileAway", "Away", "")
	require.NoError(t, err)

	resumeCtx, stopResume := context.WithCancel(ctx)
	defer stopResume()
	resumed := make(chan interfaces.RegistryEvent, 64)
	go client.Watch(resumeCtx, lastSeq, resumed)

	for {
		select {
		case ev := <-resumed:
			assert.Greater(t, ev.Seq, lastSeq)
			if ev.ContentHash == "QmWhileAway" {
				return
			}
		case <-ctx.Done():
			t.Fatal("missed event was not replayed")
		}
	}
}
