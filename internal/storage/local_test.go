package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(root, "/uploads/")
	require.NoError(t, err)

	url, err := store.Put(ctx, "resumes/u_1.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/resumes/u_1.pdf", url)

	_, err = os.Stat(filepath.Join(root, "resumes", "u_1.pdf"))
	require.NoError(t, err)

	data, err := store.Get(ctx, "resumes/u_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(ctx, "resumes/u_1.pdf"))
	_, err = store.Get(ctx, "resumes/u_1.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "resumes/u_1.pdf"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Get(context.Background(), "resumes/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewLocalStore_EmptyRoot(t *testing.T) {
	_, err := NewLocalStore("", "/uploads")
	assert.Error(t, err)
}
