package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/image-copyright-registry/interfaces"
)

// MultiContentStore writes to every available store and reads from the first
// store that has the content.
type MultiContentStore struct {
	stores []interfaces.ContentStore
	log    *slog.Logger
}

func NewMultiContentStore(stores []interfaces.ContentStore, logger *slog.Logger) *MultiContentStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiContentStore{
		stores: stores,
		log:    logger,
	}
}

func (m *MultiContentStore) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable",
				slog.String("store", store.Name()),
				slog.String("contentHash", contentHash))
			continue
		}

		data, err := store.Fetch(ctx, contentHash)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("store", store.Name()),
				slog.String("contentHash", contentHash),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
		m.log.Debug("Failed to fetch from store",
			slog.String("store", store.Name()),
			slog.String("contentHash", contentHash),
			"err", err)
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrBackendUnavailable
	}

	joined := errors.Join(errs...)
	if allNotFound(errs) {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrContentNotFound, joined)
	}
	return nil, fmt.Errorf("all stores failed to fetch %s: %w", contentHash, joined)
}

// Put stores data in all available stores and returns the hash reported by
// the first store that succeeded.
func (m *MultiContentStore) Put(ctx context.Context, data []byte) (string, error) {
	start := time.Now()
	var result string
	var errs []error

	for _, store := range m.stores {
		if !store.Available(ctx) {
			m.log.Debug("Store unavailable", slog.String("store", store.Name()))
			continue
		}

		contentHash, err := store.Put(ctx, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.Name(), err))
			m.log.Debug("Failed to put to store",
				slog.String("store", store.Name()),
				"err", err)
			continue
		}

		if result == "" {
			result = contentHash
			m.log.Info("Stored content",
				slog.String("store", store.Name()),
				slog.String("contentHash", contentHash),
				slog.Duration("duration", time.Since(start)))
		} else if result != contentHash {
			// chunked IPFS DAGs hash differently from the raw content address
			m.log.Warn("Inconsistent hashes from stores",
				slog.String("store", store.Name()),
				slog.String("expected", result),
				slog.String("actual", contentHash))
		}
	}

	if result == "" {
		m.log.Error("All stores failed to store data",
			slog.Int("failed_stores", len(errs)),
			slog.Duration("duration", time.Since(start)))
		if len(errs) == 0 {
			return "", interfaces.ErrBackendUnavailable
		}
		return "", fmt.Errorf("all stores failed to store data: %w", errors.Join(errs...))
	}

	return result, nil
}

// Resolve uses the first configured store.
func (m *MultiContentStore) Resolve(contentHash string) string {
	if len(m.stores) == 0 {
		return ""
	}
	return m.stores[0].Resolve(contentHash)
}

// Available checks if any store is available
func (m *MultiContentStore) Available(ctx context.Context) bool {
	for _, store := range m.stores {
		if store.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiContentStore) Name() string {
	return "multi-store"
}

func (m *MultiContentStore) LocationURI() string {
	var locations []string
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}

func allNotFound(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			return false
		}
	}
	return true
}
