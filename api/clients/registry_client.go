package clients

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/image-copyright-registry/api"
	"github.com/ruteri/image-copyright-registry/identity"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// ErrNoSigner is returned by mutating calls on a client created without a signer.
var ErrNoSigner = errors.New("client has no signer")

// RegistryClient implements interfaces.RegistryProvider against the registry
// HTTP API. Mutating requests are signed with the client's signer, whose
// identity becomes the author of registered images.
type RegistryClient struct {
	baseURL      string
	signer       interfaces.Signer
	httpClient   *http.Client
	streamClient *http.Client
}

var _ interfaces.RegistryProvider = (*RegistryClient)(nil)

// NewRegistryClient creates a client for the API at baseURL (e.g.
// "http://localhost:8080"). signer may be nil for a read-only client.
func NewRegistryClient(baseURL string, signer interfaces.Signer, timeout ...time.Duration) *RegistryClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &RegistryClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		signer:  signer,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
		streamClient: &http.Client{},
	}
}

func (c *RegistryClient) Register(ctx context.Context, contentHash, title, description string) (uint64, error) {
	var resp api.RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/images", api.RegisterRequest{
		ContentHash: contentHash,
		Title:       title,
		Description: description,
	}, true, &resp)
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// Upload sends image bytes to the server's content store and registers the
// resulting hash in one call.
func (c *RegistryClient) Upload(ctx context.Context, filename string, data []byte, title, description string) (*api.RegisterResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.WriteField("title", title); err != nil {
		return nil, err
	}
	if err := mw.WriteField("description", description); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp api.RegisterResponse
	if err := c.send(req, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RegistryClient) Update(ctx context.Context, id uint64, title, description string) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/images/%d", id), api.UpdateRequest{
		Title:       title,
		Description: description,
	}, true, nil)
}

func (c *RegistryClient) GetByID(ctx context.Context, id uint64) (*interfaces.ImageRecord, error) {
	var record interfaces.ImageRecord
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/images/%d", id), nil, false, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RegistryClient) GetByHash(ctx context.Context, contentHash string) (*interfaces.ImageRecord, error) {
	var record interfaces.ImageRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/images/hash/"+url.PathEscape(contentHash), nil, false, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *RegistryClient) Exists(ctx context.Context, contentHash string) (bool, error) {
	var resp api.ExistsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/images/hash/"+url.PathEscape(contentHash)+"/exists", nil, false, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

func (c *RegistryClient) Verify(ctx context.Context, contentHash string) (*api.VerifyResponse, error) {
	var resp api.VerifyResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/images/hash/"+url.PathEscape(contentHash)+"/verify", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *RegistryClient) ListAll(ctx context.Context) ([]interfaces.ImageRecord, error) {
	records := []interfaces.ImageRecord{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/images", nil, false, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *RegistryClient) ListByAuthor(ctx context.Context, author interfaces.Identity) ([]interfaces.ImageRecord, error) {
	records := []interfaces.ImageRecord{}
	path := "/api/images?author=" + url.QueryEscape(author.String())
	if err := c.doJSON(ctx, http.MethodGet, path, nil, false, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Stats reports totals from the point of view of the client's signer, or of
// the zero identity for a read-only client.
func (c *RegistryClient) Stats(ctx context.Context) (interfaces.RegistryStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/stats", nil)
	if err != nil {
		return interfaces.RegistryStats{}, fmt.Errorf("failed to create request: %w", err)
	}
	if c.signer != nil {
		req.Header.Set(identity.HeaderAddress, c.signer.Identity().String())
	}

	var stats interfaces.RegistryStats
	if err := c.send(req, false, &stats); err != nil {
		return interfaces.RegistryStats{}, err
	}
	return stats, nil
}

// History returns up to limit journaled events after afterSeq.
func (c *RegistryClient) History(ctx context.Context, afterSeq uint64, limit int) (*api.HistoryResponse, error) {
	query := url.Values{}
	query.Set("after", strconv.FormatUint(afterSeq, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp api.HistoryResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/events/history?"+query.Encode(), nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watch streams registry events into sink until ctx is cancelled or the
// server closes the stream. Events after afterSeq that were committed while
// the client was not connected are delivered first. Watch returns the
// sequence number of the last delivered event, so callers can resume.
func (c *RegistryClient) Watch(ctx context.Context, afterSeq uint64, sink chan<- interfaces.RegistryEvent) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return afterSeq, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	if afterSeq > 0 {
		req.Header.Set("Last-Event-ID", strconv.FormatUint(afterSeq, 10))
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return afterSeq, fmt.Errorf("event stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return afterSeq, responseError(resp)
	}

	lastSeq := afterSeq
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}

		ev, err := interfaces.DecodeEvent([]byte(data))
		if err != nil {
			return lastSeq, err
		}

		select {
		case sink <- ev:
			lastSeq = ev.Seq
		case <-ctx.Done():
			return lastSeq, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return lastSeq, err
	}
	if err := scanner.Err(); err != nil {
		return lastSeq, fmt.Errorf("event stream failed: %w", err)
	}
	return lastSeq, io.EOF
}

func (c *RegistryClient) doJSON(ctx context.Context, method, path string, body any, signed bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, signed, out)
}

func (c *RegistryClient) send(req *http.Request, signed bool, out any) error {
	if signed {
		if c.signer == nil {
			return ErrNoSigner
		}
		if err := identity.SignHTTPRequest(req, c.signer); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// responseError turns an API error response back into the registry error taxonomy.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	message := strings.TrimSpace(string(body))
	var parsed api.ErrorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		message = parsed.Error
	}

	var kind error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = interfaces.ErrInvalidArgument
	case http.StatusConflict:
		kind = interfaces.ErrDuplicateContent
	case http.StatusNotFound:
		kind = interfaces.ErrNotFound
	case http.StatusForbidden:
		kind = interfaces.ErrUnauthorized
	case http.StatusUnauthorized:
		kind = identity.ErrInvalidSignature
	default:
		return fmt.Errorf("request failed with code %d: %s", resp.StatusCode, message)
	}
	return fmt.Errorf("%w: %s", kind, message)
}
