// Package media transfers image assets to a remote media store and hands back
// stable public URLs. The transport detail of where the bytes came from (temp
// file, in-memory buffer, or stream) is hidden behind Payload so the upload
// path is the same for all of them.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Payload is a readable image byte source handed to an Uploader.
type Payload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	// TempPath, when non-empty, points at the temporary local file backing
	// Reader. The uploader removes it after a successful transfer; on failure
	// the caller stays responsible for cleanup.
	TempPath string
}

// PayloadFromBytes wraps an in-memory buffer as an upload payload.
func PayloadFromBytes(filename, contentType string, data []byte) *Payload {
	return &Payload{
		Reader:      bytes.NewReader(data),
		Filename:    filename,
		ContentType: contentType,
	}
}

// PayloadFromFile opens a temporary local file as an upload payload. The file
// is deleted by the uploader after a successful transfer.
func PayloadFromFile(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload file %s: %w", path, err)
	}
	return &Payload{
		Reader:   f,
		Filename: filepath.Base(path),
		TempPath: path,
	}, nil
}

// Close releases the underlying reader when it holds an open file handle.
func (p *Payload) Close() error {
	if closer, ok := p.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Uploader transfers image payloads to the remote media store.
type Uploader interface {
	// Upload transfers the payload into the given logical folder and returns
	// the asset's stable public URL.
	Upload(ctx context.Context, payload *Payload, folder string) (string, error)
	// Delete requests removal of the asset behind the URL. Callers treat it
	// as best-effort and must not fail their own operation when it errors.
	Delete(ctx context.Context, url string) error
}
