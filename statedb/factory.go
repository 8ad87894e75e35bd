package statedb

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ruteri/image-copyright-registry/interfaces"
)

// ErrInvalidJournalURI is returned for malformed or unsupported journal locations.
var ErrInvalidJournalURI = errors.New("invalid journal URI")

// maxSeq is the largest sequence number a journal stores, the SQLite INTEGER
// maximum. Since returns nothing for cursors at or past it.
const maxSeq = math.MaxInt64

// JournalFor opens the event journal identified by uri.
func JournalFor(uri string, log *slog.Logger) (interfaces.EventJournal, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJournalURI, err)
	}

	switch parsed.Scheme {
	case "memory":
		return NewMemoryJournal(), nil
	case "sqlite", "bolt":
		path := journalPath(parsed)
		if path == "" {
			return nil, fmt.Errorf("%w: %s journal requires a path", ErrInvalidJournalURI, parsed.Scheme)
		}
		if parsed.Scheme == "sqlite" {
			return NewSQLiteJournal(path, log)
		}
		return NewBoltJournal(path, log)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidJournalURI, parsed.Scheme)
	}
}

// journalPath accepts both sqlite:///abs/path and sqlite://relative/path.
func journalPath(u *url.URL) string {
	if u.Host == "" && u.Path == "" {
		return ""
	}
	if u.Host == "" {
		return filepath.Clean(u.Path)
	}
	return filepath.Join(u.Host, strings.TrimPrefix(u.Path, "/"))
}
