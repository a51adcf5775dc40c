package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bucket is the directory under the store root holding all attachments;
// objects inside are keyed <ownerID>/<timestamp>-<random><ext>.
const Bucket = "ticket-attachments"

// Disk is a local-filesystem blob store serving public URLs through the
// API's /attachments route.
type Disk struct {
	root    string
	baseURL string
	log     zerolog.Logger
}

func NewDisk(root, baseURL string, log zerolog.Logger) *Disk {
	return &Disk{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log.With().Str("component", "storage").Logger(),
	}
}

// Root returns the directory the /attachments file server should expose.
func (d *Disk) Root() string { return filepath.Join(d.root, Bucket) }

func (d *Disk) Upload(ctx context.Context, ownerID, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("%s/%d-%s%s", ownerID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)

	dst := filepath.Join(d.Root(), filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// The caller checks the size cap up front; the reader is still bounded
	// in case the declared size lied.
	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	if n > MaxUploadSize {
		_ = os.Remove(dst)
		return "", ErrFileTooLarge
	}

	url := d.baseURL + "/attachments/" + key
	d.log.Debug().Str("key", key).Int64("bytes", n).Msg("attachment stored")
	return url, nil
}

func (d *Disk) Delete(_ context.Context, url string) error {
	prefix := d.baseURL + "/attachments/"
	if !strings.HasPrefix(url, prefix) {
		return ErrNotManaged
	}
	key := strings.TrimPrefix(url, prefix)
	if strings.Contains(key, "..") {
		return ErrNotManaged
	}
	return os.Remove(filepath.Join(d.Root(), filepath.FromSlash(key)))
}
