package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUploadWritesUnderOwnerPrefix(t *testing.T) {
	dir := t.TempDir()
	d := NewDisk(dir, "http://localhost:8080/", zerolog.Nop())

	url, err := d.Upload(context.Background(), "u1", "screenshot.PNG", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/attachments/u1/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	key := strings.TrimPrefix(url, "http://localhost:8080/attachments/")
	data, err := os.ReadFile(filepath.Join(dir, Bucket, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestDiskDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	d := NewDisk(dir, "http://localhost:8080", zerolog.Nop())

	url, err := d.Upload(context.Background(), "u1", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, d.Delete(context.Background(), url))

	key := strings.TrimPrefix(url, "http://localhost:8080/attachments/")
	_, err = os.Stat(filepath.Join(dir, Bucket, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskDeleteRejectsForeignURL(t *testing.T) {
	d := NewDisk(t.TempDir(), "http://localhost:8080", zerolog.Nop())
	assert.ErrorIs(t, d.Delete(context.Background(), "http://elsewhere/attachments/u1/a.txt"), ErrNotManaged)
	assert.ErrorIs(t, d.Delete(context.Background(), "http://localhost:8080/attachments/../../etc/passwd"), ErrNotManaged)
}

func TestDiskUploadBoundsRunawayReader(t *testing.T) {
	d := NewDisk(t.TempDir(), "http://localhost:8080", zerolog.Nop())

	huge := strings.NewReader(strings.Repeat("a", MaxUploadSize+1))
	_, err := d.Upload(context.Background(), "u1", "huge.bin", huge)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
