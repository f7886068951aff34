// Package media talks to the external media host. Uploads go to an
// S3-compatible object store; callers keep the obligation to remove their
// local temporary files after the attempt.
package media

import (
	"context"
	"errors"
)

var ErrUploadFailed = errors.New("media upload failed")

// Uploader is the contract the session layer consumes: push a local file to
// the media host and get back its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}
