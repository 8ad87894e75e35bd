package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/image-copyright-registry/interfaces"
)

const (
	defaultIPFSPort    = "5001"
	defaultIPFSTimeout = 30 * time.Second
	defaultS3Region    = "us-east-1"
)

// ContentStoreFactory creates content stores from location URIs.
type ContentStoreFactory struct {
	log *slog.Logger
}

func NewContentStoreFactory(logger *slog.Logger) *ContentStoreFactory {
	return &ContentStoreFactory{log: logger}
}

// StoreFor creates a content store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node API, resolved through a gateway
//   - vault:// - HashiCorp Vault KV v2 mount
func (sf *ContentStoreFactory) StoreFor(location interfaces.StorageBackendLocation) (interfaces.ContentStore, error) {
	switch strings.ToLower(location.Scheme) {
	case "ipfs":
		return sf.createIPFSStore(location)
	case "s3":
		return sf.createS3Store(location)
	case "file":
		return sf.createFileStore(location)
	case "vault":
		return sf.createVaultStore(location)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, location.Scheme)
	}
}

// CreateMultiStore creates a content store writing to every valid location.
// Locations that fail to parse into a store are logged and skipped.
func (sf *ContentStoreFactory) CreateMultiStore(locations []interfaces.StorageBackendLocation) (interfaces.ContentStore, error) {
	stores := make([]interfaces.ContentStore, 0, len(locations))

	for _, location := range locations {
		store, err := sf.StoreFor(location)
		if err != nil {
			sf.log.Warn("Failed to create content store",
				"err", err,
				slog.String("locationURI", location.String()))
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("no valid content stores created")
	}

	return NewMultiContentStore(stores, sf.log), nil
}

// ipfs://host:port/?gateway=http://gw.example.com&timeout=30s
func (sf *ContentStoreFactory) createIPFSStore(loc interfaces.StorageBackendLocation) (interfaces.ContentStore, error) {
	sf.log.Debug("Creating IPFS store", slog.String("uri", loc.String()))

	host, port, found := strings.Cut(loc.Host, ":")
	if host == "" {
		return nil, fmt.Errorf("%w: missing IPFS host", interfaces.ErrInvalidLocationURI)
	}
	if !found || port == "" {
		port = defaultIPFSPort
	}

	timeout := defaultIPFSTimeout
	if raw := loc.GetParam("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout %q: %v", interfaces.ErrInvalidLocationURI, raw, err)
		}
		timeout = parsed
	}

	return NewIPFSStore(host, port, loc.GetParam("gateway"), timeout, sf.log)
}

// s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=http://minio:9000
func (sf *ContentStoreFactory) createS3Store(loc interfaces.StorageBackendLocation) (interfaces.ContentStore, error) {
	sf.log.Debug("Creating S3 store", slog.String("bucket", loc.Host))

	if loc.Host == "" {
		return nil, fmt.Errorf("%w: missing S3 bucket", interfaces.ErrInvalidLocationURI)
	}

	region := loc.GetParam("region")
	if region == "" {
		region = defaultS3Region
	}

	var accessKey, secretKey string
	if loc.Auth != "" {
		accessKey, secretKey, _ = strings.Cut(loc.Auth, ":")
	}

	return NewS3Store(loc.Host, strings.TrimPrefix(loc.Path, "/"), region, loc.GetParam("endpoint"), accessKey, secretKey, sf.log)
}

// file:///absolute/path/ or file://./relative/path/
func (sf *ContentStoreFactory) createFileStore(loc interfaces.StorageBackendLocation) (interfaces.ContentStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", loc.String()))

	path := loc.Path
	if loc.Host != "" {
		path = loc.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, loc.String())
	}

	return NewFileStore(path, sf.log)
}

// vault://vault.example.com:8200/secret/images?token=...&tls=false
// The first path element is the KV v2 mount, the rest is the path inside it.
func (sf *ContentStoreFactory) createVaultStore(loc interfaces.StorageBackendLocation) (interfaces.ContentStore, error) {
	sf.log.Debug("Creating Vault store", slog.String("host", loc.Host))

	if loc.Host == "" {
		return nil, fmt.Errorf("%w: missing Vault host", interfaces.ErrInvalidLocationURI)
	}

	mount, dataPath, _ := strings.Cut(strings.Trim(loc.Path, "/"), "/")
	if mount == "" {
		mount = "secret"
	}

	scheme := "https"
	if loc.GetParam("tls") == "false" {
		scheme = "http"
	}

	return NewVaultStore(fmt.Sprintf("%s://%s", scheme, loc.Host), mount, dataPath, loc.GetParam("token"), sf.log)
}
