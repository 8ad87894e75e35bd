package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/image-copyright-registry/api"
	"github.com/ruteri/image-copyright-registry/identity"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/ruteri/image-copyright-registry/storage"
)

const (
	// maxBodySize bounds JSON request bodies (1MB).
	maxBodySize = 1024 * 1024

	// maxUploadSize bounds multipart image uploads (32MB).
	maxUploadSize = 32 * 1024 * 1024

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000

	eventBufferSize = 64
)

// OperationObserver receives registry outcomes for metrics.
type OperationObserver interface {
	ObserveOperation(operation, outcome string)
	SubscriberAdded()
	SubscriberRemoved()
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string) {}
func (noopObserver) SubscriberAdded()                {}
func (noopObserver) SubscriberRemoved()              {}

// Handler serves the image registry API on top of an ImageRegistry.
// Mutating routes authenticate the caller with an IdentityVerifier; the
// verified identity is passed to the registry as is.
type Handler struct {
	registry interfaces.ImageRegistry
	store    interfaces.ContentStore
	verifier interfaces.IdentityVerifier
	observer OperationObserver
	log      *slog.Logger
}

// NewHandler creates the registry API handler. store may be nil, in which
// case uploads are rejected and clients must register hashes of content
// they stored themselves.
func NewHandler(registry interfaces.ImageRegistry, store interfaces.ContentStore, verifier interfaces.IdentityVerifier, log *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		store:    store,
		verifier: verifier,
		observer: noopObserver{},
		log:      log,
	}
}

// SetObserver installs a metrics sink for registry outcomes.
func (h *Handler) SetObserver(observer OperationObserver) {
	h.observer = observer
}

// RegisterRoutes configures the request/response routes of the registry API:
//   - POST /api/images
//   - POST /api/images/upload
//   - PUT /api/images/{id}
//   - GET /api/images[?author=0x...]
//   - GET /api/images/{id}
//   - GET /api/images/hash/{hash}
//   - GET /api/images/hash/{hash}/exists
//   - GET /api/images/hash/{hash}/verify
//   - GET /api/stats
//   - GET /api/events/history?after=N&limit=M
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/images", h.HandleRegister)
	r.Post("/api/images/upload", h.HandleUpload)
	r.Put("/api/images/{id}", h.HandleUpdate)
	r.Get("/api/images", h.HandleList)
	r.Get("/api/images/{id}", h.HandleGetByID)
	r.Get("/api/images/hash/{hash}", h.HandleGetByHash)
	r.Get("/api/images/hash/{hash}/exists", h.HandleExists)
	r.Get("/api/images/hash/{hash}/verify", h.HandleVerify)
	r.Get("/api/stats", h.HandleStats)
	r.Get("/api/events/history", h.HandleHistory)
}

// RegisterStreamRoutes configures long-lived streaming routes:
//   - GET /api/events
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/api/events", h.HandleEvents)
}

// HandleRegister claims a content hash for the authenticated caller.
//
// Request body: JSON api.RegisterRequest
// Response: 201 with api.RegisterResponse
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r, maxBodySize)
	if !ok {
		return
	}

	caller, err := h.verifier.Authenticate(r, body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.RegisterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, fmt.Errorf("%w: malformed request body: %v", interfaces.ErrInvalidArgument, err))
		return
	}

	id, err := h.registry.Register(r.Context(), req.ContentHash, req.Title, req.Description, caller)
	h.observe("register", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Image registered",
		slog.Uint64("id", id),
		slog.String("contentHash", req.ContentHash),
		slog.String("author", caller.String()))

	h.writeJSON(w, http.StatusCreated, api.RegisterResponse{ID: id, ContentHash: req.ContentHash})
}

// HandleUpload stores an image in the content store and registers its hash.
//
// Request body: multipart form with fields file, title and description. The
// signature covers the raw multipart body.
// Response: 201 with api.RegisterResponse including the content URL
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, http.StatusNotImplemented, api.ErrorResponse{Error: "no content store configured"})
		return
	}

	body, ok := h.readBody(w, r, maxUploadSize)
	if !ok {
		return
	}

	caller, err := h.verifier.Authenticate(r, body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, fmt.Errorf("%w: malformed multipart body: %v", interfaces.ErrInvalidArgument, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	title := r.FormValue("title")
	description := r.FormValue("description")
	if title == "" {
		h.writeError(w, fmt.Errorf("%w: title must not be empty", interfaces.ErrInvalidArgument))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: missing file: %v", interfaces.ErrInvalidArgument, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: unreadable file: %v", interfaces.ErrInvalidArgument, err))
		return
	}

	mediaType, err := storage.DetectImageType(data)
	if err != nil {
		h.writeError(w, err)
		return
	}

	contentHash, err := h.store.Put(r.Context(), data)
	h.observe("content_put", err)
	if err != nil {
		h.log.Error("Failed to store upload", "err", err, slog.String("store", h.store.Name()))
		h.writeJSON(w, http.StatusBadGateway, api.ErrorResponse{Error: "failed to store content"})
		return
	}

	id, err := h.registry.Register(r.Context(), contentHash, title, description, caller)
	h.observe("register", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Image uploaded and registered",
		slog.Uint64("id", id),
		slog.String("contentHash", contentHash),
		slog.String("mediaType", mediaType),
		slog.Int("size", len(data)),
		slog.String("author", caller.String()))

	h.writeJSON(w, http.StatusCreated, api.RegisterResponse{
		ID:          id,
		ContentHash: contentHash,
		URL:         h.store.Resolve(contentHash),
	})
}

// HandleUpdate replaces title and description of a record owned by the caller.
//
// Request body: JSON api.UpdateRequest
// Response: 200 with the updated interfaces.ImageRecord
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	body, ok := h.readBody(w, r, maxBodySize)
	if !ok {
		return
	}

	caller, err := h.verifier.Authenticate(r, body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req api.UpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, fmt.Errorf("%w: malformed request body: %v", interfaces.ErrInvalidArgument, err))
		return
	}

	err = h.registry.Update(r.Context(), id, req.Title, req.Description, caller)
	h.observe("update", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("Image updated", slog.Uint64("id", id), slog.String("author", caller.String()))
	h.writeJSON(w, http.StatusOK, record)
}

// HandleList returns every record, or only those of ?author=0x....
// An empty registry yields 200 with [].
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		records []interfaces.ImageRecord
		err     error
	)

	if authorHex := r.URL.Query().Get("author"); authorHex != "" {
		author, perr := interfaces.NewIdentityFromHex(authorHex)
		if perr != nil {
			h.writeError(w, fmt.Errorf("%w: author: %v", interfaces.ErrInvalidArgument, perr))
			return
		}
		records, err = h.registry.ListByAuthor(r.Context(), author)
	} else {
		records, err = h.registry.ListAll(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	if records == nil {
		records = []interfaces.ImageRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleGetByHash(w http.ResponseWriter, r *http.Request) {
	record, err := h.registry.GetByHash(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) HandleExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.registry.Exists(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.ExistsResponse{Exists: exists})
}

// HandleVerify reports whether a hash is registered and returns the owning
// record. An unregistered hash is a successful answer, not a 404.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	contentHash := chi.URLParam(r, "hash")
	resp := api.VerifyResponse{ContentHash: contentHash}

	record, err := h.registry.GetByHash(r.Context(), contentHash)
	switch {
	case err == nil:
		resp.Registered = true
		resp.Record = record
	case errors.Is(err, interfaces.ErrNotFound):
	default:
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleStats returns the registry totals from the point of view of the
// address in X-Registry-Address. The address is not verified since the
// answer discloses nothing that listing by author would not. Without an
// address, or with the zero address, caller_count is 0.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.verifier.Claimed(r)
	anonymous := !ok || caller.IsZero()

	stats, err := h.registry.Stats(r.Context(), caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if anonymous {
		stats.CallerCount = 0
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// HandleHistory pages through the durable notification log.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var after uint64
	if raw := query.Get("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: after: %v", interfaces.ErrInvalidArgument, err))
			return
		}
		after = parsed
	}

	limit := defaultHistoryLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, fmt.Errorf("%w: limit must be a positive integer", interfaces.ErrInvalidArgument))
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}

	events, err := h.registry.History(r.Context(), after, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := api.HistoryResponse{Events: events, NextAfter: after}
	if resp.Events == nil {
		resp.Events = []interfaces.RegistryEvent{}
	}
	if n := len(events); n > 0 {
		resp.NextAfter = events[n-1].Seq
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleEvents streams registry notifications as server-sent events. A
// client reconnecting with Last-Event-ID first receives the journaled events
// it missed. Streams that cannot keep up are closed and are expected to
// reconnect the same way.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	var lastSeq uint64
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: Last-Event-ID: %v", interfaces.ErrInvalidArgument, err))
			return
		}
		lastSeq = parsed
	}

	feed := make(chan interfaces.RegistryEvent)
	sub := h.registry.Subscribe(feed)
	defer sub.Unsubscribe()

	events := make(chan interfaces.RegistryEvent, eventBufferSize)
	overflow := make(chan struct{})
	go relayEvents(feed, sub.Err(), events, overflow)

	h.observer.SubscriberAdded()
	defer h.observer.SubscriberRemoved()

	// streams outlive the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if lastSeq > 0 {
		missed, err := h.registry.History(r.Context(), lastSeq, 0)
		if err != nil {
			h.log.Error("Failed to load missed events", "err", err)
			return
		}
		for _, ev := range missed {
			if err := writeEvent(w, ev); err != nil {
				return
			}
			lastSeq = ev.Seq
		}
	}
	if err := rc.Flush(); err != nil {
		h.log.Debug("Event stream not flushable", "err", err)
		return
	}

	h.log.Debug("Event stream opened", slog.String("remote", r.RemoteAddr))
	defer h.log.Debug("Event stream closed", slog.String("remote", r.RemoteAddr))

	for {
		select {
		case <-r.Context().Done():
			return
		case <-overflow:
			h.log.Warn("Event stream fell behind, closing", slog.String("remote", r.RemoteAddr), slog.Uint64("lastSeq", lastSeq))
			return
		case ev := <-events:
			if ev.Seq != 0 && ev.Seq <= lastSeq {
				continue
			}
			if err := writeEvent(w, ev); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
			lastSeq = ev.Seq
		}
	}
}

// relayEvents moves events from the registry feed to a bounded per-stream
// queue. The registry is never blocked by a slow stream: once the queue is
// full overflow is closed and further events are discarded until the
// subscription ends.
func relayEvents(in <-chan interfaces.RegistryEvent, done <-chan error, out chan<- interfaces.RegistryEvent, overflow chan<- struct{}) {
	overflowed := false
	for {
		select {
		case <-done:
			return
		case ev := <-in:
			if overflowed {
				continue
			}
			select {
			case out <- ev:
			default:
				overflowed = true
				close(overflow)
			}
		}
	}
}

func writeEvent(w io.Writer, ev interfaces.RegistryEvent) error {
	data, err := interfaces.EncodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Kind, data)
	return err
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		h.log.Error("Failed to read request body", "err", err)
		h.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}
	return body, true
}

func (h *Handler) observe(operation string, err error) {
	h.observer.ObserveOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, interfaces.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, interfaces.ErrDuplicateContent):
		return "duplicate"
	case errors.Is(err, interfaces.ErrNotFound):
		return "not_found"
	case errors.Is(err, interfaces.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}

// StatusFor maps registry and authentication errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrMissingCredentials), errors.Is(err, identity.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, interfaces.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrDuplicateContent):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
		message = "internal server error"
	}
	h.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid image id %q", interfaces.ErrInvalidArgument, raw)
	}
	return id, nil
}
