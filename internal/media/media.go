// Package media handles uploaded files: spooling an incoming multipart file
// to a local temp path and pushing it to the external media store.
//
// The temp file is a resource scoped to one request: SaveTemp acquires it
// when the file arrives, and the Uploader releases it unconditionally at the
// end of the upload attempt — success or failure. Nothing outside this
// package touches the local path.
package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// Uploader pushes a local file to the external media store and returns its
// public URL. Implementations must remove localPath before returning,
// whether or not the upload succeeded.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// SaveTemp writes an incoming multipart file under dir with an unguessable
// xid-based name, preserving the original extension. The caller hands the
// returned path to an Uploader, which owns its cleanup from then on.
func SaveTemp(file multipart.File, filename, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("media: creating temp dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, xid.New().String()+filepath.Ext(filename))

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("media: creating temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("media: writing temp file: %w", err)
	}

	return path, nil
}
