package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// VaultStore implements a content store on a HashiCorp Vault KV v2 mount.
// Objects are kept base64 encoded under <mount>/data/<path>/<contentHash>.
type VaultStore struct {
	client      *api.Client
	address     string
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault content store. An empty token falls back to
// the VAULT_TOKEN environment variable.
func NewVaultStore(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		address:     address,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

func (b *VaultStore) secretPath(contentHash string) string {
	if b.dataPath == "" {
		return fmt.Sprintf("%s/data/%s", b.mountPath, contentHash)
	}
	return fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, contentHash)
}

func (b *VaultStore) Put(ctx context.Context, data []byte) (string, error) {
	start := time.Now()
	contentHash, err := interfaces.ComputeContentHash(data)
	if err != nil {
		return "", err
	}
	path := b.secretPath(contentHash)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			"err", err)
		return "", fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Info("Stored content in Vault",
		slog.String("contentHash", contentHash),
		slog.Duration("duration", time.Since(start)))

	return contentHash, nil
}

func (b *VaultStore) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	if _, err := interfaces.ParseContentHash(contentHash); err != nil {
		return nil, err
	}
	path := b.secretPath(contentHash)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrContentNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}
	encoded, ok := data["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content key not found in Vault data")
	}

	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid content encoding in Vault data: %w", err)
	}
	if err := verifyContent(contentHash, content); err != nil {
		return nil, err
	}

	return content, nil
}

// Resolve returns the Vault location of the object.
func (b *VaultStore) Resolve(contentHash string) string {
	return fmt.Sprintf("%s/v1/%s", strings.TrimSuffix(b.address, "/"), b.secretPath(contentHash))
}

// Available checks that Vault is initialized and unsealed.
func (b *VaultStore) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}
	return true
}

func (b *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

func (b *VaultStore) LocationURI() string {
	return b.locationURI
}
