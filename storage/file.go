package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/image-copyright-registry/interfaces"
)

// FileStore implements a content store on the local file system. Each
// object is a file named after its content hash.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file content store rooted at baseDir, creating the directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

func (b *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	contentHash, err := interfaces.ComputeContentHash(data)
	if err != nil {
		return "", err
	}

	filePath := b.filePath(contentHash)
	if _, err := os.Stat(filePath); err == nil {
		b.log.Debug("Content already stored", slog.String("contentHash", contentHash))
		return contentHash, nil
	}

	// readers never observe a partially written object
	tmp, err := os.CreateTemp(b.baseDir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	b.log.Debug("Stored content in file",
		slog.String("path", filePath),
		slog.String("contentHash", contentHash))

	return contentHash, nil
}

// Fetch returns ErrContentNotFound if no file exists for contentHash.
func (b *FileStore) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	if _, err := interfaces.ParseContentHash(contentHash); err != nil {
		return nil, err
	}

	filePath := b.filePath(contentHash)
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := verifyContent(contentHash, data); err != nil {
		b.log.Error("Stored file is corrupt", slog.String("path", filePath), "err", err)
		return nil, err
	}

	b.log.Debug("Fetched content from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

func (b *FileStore) Resolve(contentHash string) string {
	return "file://" + b.filePath(contentHash)
}

// Available checks if the base directory exists.
func (b *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

func (b *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

func (b *FileStore) LocationURI() string {
	return b.locationURI
}

func (b *FileStore) filePath(contentHash string) string {
	return filepath.Join(b.baseDir, filepath.Base(contentHash))
}
