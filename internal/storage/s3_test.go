package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory s3API that can fail the first N calls.
type fakeS3 struct {
	objects  map[string][]byte
	failures int
	calls    int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) fail() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("transient network error")
	}
	return nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func withFastRetry(t *testing.T) {
	t.Helper()
	prev := retryBackoff
	retryBackoff = time.Millisecond
	t.Cleanup(func() { retryBackoff = prev })
}

func TestS3Store_RoundTrip(t *testing.T) {
	withFastRetry(t)
	ctx := context.Background()
	fake := newFakeS3()
	store := newS3Store(fake, "bucket", "https://cdn.test/bucket/")

	url, err := store.Put(ctx, "company_logos/u_1.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/bucket/company_logos/u_1.png", url)
	assert.Equal(t, "company_logos/u_1.png", KeyFromURL(store.PublicURL(), url))

	data, err := store.Get(ctx, "company_logos/u_1.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Delete(ctx, "company_logos/u_1.png"))
	_, err = store.Get(ctx, "company_logos/u_1.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_RetriesTransientErrors(t *testing.T) {
	withFastRetry(t)
	fake := newFakeS3()
	fake.failures = 2
	store := newS3Store(fake, "bucket", "https://cdn.test")

	_, err := store.Put(context.Background(), "resumes/a.pdf", "application/pdf", strings.NewReader("pdf"))
	require.NoError(t, err)
	assert.Equal(t, 3, fake.calls)
}

func TestS3Store_GivesUp(t *testing.T) {
	withFastRetry(t)
	fake := newFakeS3()
	fake.failures = 5
	store := newS3Store(fake, "bucket", "https://cdn.test")

	_, err := store.Put(context.Background(), "resumes/a.pdf", "application/pdf", strings.NewReader("pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestS3Store_NotFoundIsNotRetried(t *testing.T) {
	withFastRetry(t)
	fake := newFakeS3()
	store := newS3Store(fake, "bucket", "https://cdn.test")

	_, err := store.Get(context.Background(), "resumes/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, fake.calls)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
