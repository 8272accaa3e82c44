package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir)

	err := store.Put(context.Background(), "D1/extracted_text/page_0001_fitz.md", []byte("# Page 1 - FITZ\n\nhello"), "text/markdown; charset=utf-8")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "D1/extracted_text/page_0001_fitz.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Page 1 - FITZ\n\nhello", string(got))
	assert.Equal(t, dir, store.BaseURI())
}

func TestNewSelectsBackendByPrefix(t *testing.T) {
	store, err := New(context.Background(), t.TempDir())
	require.NoError(t, err)
	_, isLocal := store.(*LocalStore)
	assert.True(t, isLocal)
}

type fakeS3Client struct {
	lastInput *s3.PutObjectInput
	err       error
}

func (f *fakeS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePutUsesBucketAndPrefix(t *testing.T) {
	fake := &fakeS3Client{}
	store := &S3Store{client: fake}
	bucket, prefix := parseS3URI("s3://my-bucket/service1-output")
	store.bucket = bucket
	store.prefix = prefix
	store.uri = "s3://my-bucket/service1-output"

	err := store.Put(context.Background(), "D1/extracted_text/page_0001_fitz.md", []byte("body"), "text/markdown; charset=utf-8")
	require.NoError(t, err)
	require.NotNil(t, fake.lastInput)
	assert.Equal(t, "my-bucket", *fake.lastInput.Bucket)
	assert.Equal(t, "service1-output/D1/extracted_text/page_0001_fitz.md", *fake.lastInput.Key)
	assert.Equal(t, "s3://my-bucket/service1-output", store.BaseURI())
}

func TestS3StorePutWrapsStorageError(t *testing.T) {
	fake := &fakeS3Client{err: assertError("boom")}
	store := &S3Store{client: fake, bucket: "b"}

	err := store.Put(context.Background(), "k", []byte("x"), "text/markdown")
	require.Error(t, err)
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
}

type assertError string

func (e assertError) Error() string { return string(e) }
