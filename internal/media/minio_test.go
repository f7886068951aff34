package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func testOptions() Options {
	return Options{
		Bucket:        "videotube-media",
		PublicBaseURL: "http://localhost:9000/videotube-media",
		Timeout:       5 * time.Second,
	}
}

// Minimal PNG header so content sniffing sees image/png.
func writeTempPNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatar.png")
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newTestClient(t *testing.T, api *mockObjectAPI) *Client {
	t.Helper()
	api.On("BucketExists", mock.Anything, "videotube-media").Return(true, nil)
	c, err := NewClientWithAPI(context.Background(), api, testOptions())
	require.NoError(t, err)
	return c
}

func TestNewClientWithAPI_CreatesMissingBucket(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "videotube-media").Return(false, nil)
	api.On("MakeBucket", mock.Anything, "videotube-media", mock.Anything).Return(nil)

	_, err := NewClientWithAPI(context.Background(), api, testOptions())
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestUploadFile_Success(t *testing.T) {
	api := new(mockObjectAPI)
	c := newTestClient(t, api)

	api.On("PutObject", mock.Anything, "videotube-media", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	url, err := c.UploadFile(context.Background(), writeTempPNG(t))
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/videotube-media/")
	assert.Contains(t, url, ".png")
}

func TestUploadFile_EmptyPath(t *testing.T) {
	api := new(mockObjectAPI)
	c := newTestClient(t, api)

	_, err := c.UploadFile(context.Background(), "")
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestUploadFile_MissingFile(t *testing.T) {
	api := new(mockObjectAPI)
	c := newTestClient(t, api)

	_, err := c.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestUploadFile_RejectsUnsupportedType(t *testing.T) {
	api := new(mockObjectAPI)
	c := newTestClient(t, api)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text, not media"), 0o600))

	_, err := c.UploadFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrUploadFailed)
	api.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadFile_StoreError(t *testing.T) {
	api := new(mockObjectAPI)
	c := newTestClient(t, api)

	api.On("PutObject", mock.Anything, "videotube-media", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection refused"))

	_, err := c.UploadFile(context.Background(), writeTempPNG(t))
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestRemove_ForeignURL(t *testing.T) {
	api := new(mockObjectAPI)
	c := newTestClient(t, api)

	err := c.Remove(context.Background(), "http://other-host/file.png")
	assert.Error(t, err)
}
