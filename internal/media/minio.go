package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AllowedMimeTypes defines which file types the media host accepts from us.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"video/webm": true,
}

// Internal adapter interface to enable mocking without a real object store.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type minioWrapper struct{ c *minio.Client }

func (w minioWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}

var _ Uploader = (*Client)(nil)

// Client uploads local files to a bucket and returns their public URL.
// Every upload runs under the configured timeout so a slow media host fails
// the caller's request cleanly instead of hanging it.
type Client struct {
	api           objectAPI
	bucket        string
	publicBaseURL string
	timeout       time.Duration
}

type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
	Timeout       time.Duration
}

// NewClient creates a media client backed by a real object store.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}
	return NewClientWithAPI(ctx, minioWrapper{c: mc}, opts)
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(ctx context.Context, api objectAPI, opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		api:           api,
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		timeout:       timeout,
	}
	if err := c.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return c, nil
}

func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// UploadFile pushes a local file to the media host and returns its public
// URL. The local file is left in place; removing it is the caller's job.
func (c *Client) UploadFile(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", ErrUploadFailed
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUploadFailed)
	}

	mimeType, err := sniffMimeType(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if !AllowedMimeTypes[mimeType] {
		return "", fmt.Errorf("%w: unsupported content type %s", ErrUploadFailed, mimeType)
	}

	key := uuid.New().String() + filepath.Ext(localPath)

	uploadCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err = c.api.PutObject(uploadCtx, c.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return c.publicBaseURL + "/" + key, nil
}

// Remove deletes an object by its public URL, best effort.
func (c *Client) Remove(ctx context.Context, publicURL string) error {
	if !strings.HasPrefix(publicURL, c.publicBaseURL+"/") {
		return fmt.Errorf("url %q does not belong to this bucket", publicURL)
	}
	key := strings.TrimPrefix(publicURL, c.publicBaseURL+"/")
	return c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
}

// Detect MIME from the first 512 bytes, then rewind for the upload.
func sniffMimeType(f *os.File) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	mimeType := http.DetectContentType(buf[:n])
	mimeType = strings.Split(mimeType, ";")[0]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mimeType, nil
}
