package storage

import (
	"context"
	"errors"
	"io"
)

// MaxUploadSize is enforced by callers before the store is touched, so an
// oversized file never costs an upload attempt.
const MaxUploadSize = 10 << 20 // 10 MiB

var (
	ErrFileTooLarge = errors.New("file exceeds the 10 MiB attachment limit")
	ErrNotManaged   = errors.New("url does not belong to this store")
)

// Store keeps attachment blobs and hands out stable public URLs.
type Store interface {
	Upload(ctx context.Context, ownerID, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
