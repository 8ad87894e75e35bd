package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/image-copyright-registry/interfaces"
)

// ErrContentMismatch is returned when fetched bytes do not hash to the requested address.
var ErrContentMismatch = errors.New("content does not match its hash")

// verifyContent checks data against contentHash when the hash is one this
// package computes itself. Other CIDs (chunked IPFS DAGs, CIDv0) are accepted
// as is.
func verifyContent(contentHash string, data []byte) error {
	c, err := cid.Decode(contentHash)
	if err != nil || c.Version() != 1 || c.Type() != cid.Raw {
		return nil
	}

	computed, err := interfaces.ComputeContentHash(data)
	if err != nil {
		return err
	}
	if computed != contentHash {
		return fmt.Errorf("%w: expected %s, got %s", ErrContentMismatch, contentHash, computed)
	}
	return nil
}

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// DetectImageType sniffs the media type of data and rejects anything that is
// not a common raster image format.
func DetectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", interfaces.ErrInvalidArgument)
	}

	mediaType := http.DetectContentType(data)
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if !allowedImageTypes[mediaType] {
		return "", fmt.Errorf("%w: unsupported media type %s", interfaces.ErrInvalidArgument, mediaType)
	}
	return mediaType, nil
}
