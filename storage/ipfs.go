package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// DefaultIPFSGateway is used to resolve content when the location URI names no gateway.
const DefaultIPFSGateway = "http://localhost:8080"

// IPFSStore implements a content store backed by an IPFS node's HTTP API.
type IPFSStore struct {
	shell       *shell.Shell
	host        string
	port        string
	gateway     string
	timeout     time.Duration
	log         *slog.Logger
	locationURI string
}

// NewIPFSStore connects to the IPFS API at host:port. Content is resolved
// through gateway.
func NewIPFSStore(host, port, gateway string, timeout time.Duration, log *slog.Logger) (*IPFSStore, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}

	sh := shell.NewShell(apiURL)
	sh.SetTimeout(timeout)

	return &IPFSStore{
		shell:       sh,
		host:        host,
		port:        port,
		gateway:     strings.TrimSuffix(gateway, "/"),
		timeout:     timeout,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?gateway=%s&timeout=%s", apiURL, gateway, timeout),
	}, nil
}

// Put adds data to IPFS as CIDv1 with raw leaves and pins it. Payloads that
// fit in a single chunk get the same hash as interfaces.ComputeContentHash.
func (b *IPFSStore) Put(ctx context.Context, data []byte) (string, error) {
	start := time.Now()

	if !b.shell.IsUp() {
		return "", interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(data), shell.CidVersion(1), shell.RawLeaves(true), shell.Pin(true))
	if err != nil {
		b.log.Error("Failed to add data to IPFS", "err", err, slog.Duration("duration", time.Since(start)))
		return "", fmt.Errorf("failed to add data to IPFS: %w", err)
	}

	b.log.Debug("Stored content in IPFS",
		slog.String("contentHash", cid),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return cid, nil
}

// Fetch retrieves content by CID. Returns ErrContentNotFound if the node
// cannot resolve it or ErrBackendUnavailable if the node is not accessible.
func (b *IPFSStore) Fetch(ctx context.Context, contentHash string) ([]byte, error) {
	start := time.Now()
	if _, err := interfaces.ParseContentHash(contentHash); err != nil {
		return nil, err
	}

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.shell.Request("cat", contentHash).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer resp.Close()

	if resp.Error != nil {
		if strings.Contains(resp.Error.Message, "not found") || strings.Contains(resp.Error.Message, "no link named") {
			b.log.Debug("Content not found in IPFS", slog.String("contentHash", contentHash))
			return nil, interfaces.ErrContentNotFound
		}
		b.log.Error("Failed to fetch data from IPFS",
			slog.String("contentHash", contentHash),
			"err", resp.Error,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", resp.Error)
	}

	data, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("contentHash", contentHash),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Resolve returns the gateway URL of the content.
func (b *IPFSStore) Resolve(contentHash string) string {
	return fmt.Sprintf("%s/ipfs/%s", b.gateway, contentHash)
}

// Available checks if the IPFS node is accessible.
func (b *IPFSStore) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

func (b *IPFSStore) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

func (b *IPFSStore) LocationURI() string {
	return b.locationURI
}
