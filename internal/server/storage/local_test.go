package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/jobhub/internal/filex"
)

func TestLocalBackend_PutURLDelete(t *testing.T) {
	root := t.TempDir()
	b, err := NewLocalBackend(root, "http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "local", b.Name())

	ctx := context.Background()
	key := "cv/42/1-My_Resume.pdf"

	require.NoError(t, b.Put(ctx, key, []byte("%PDF"), "application/pdf", nil))

	got, err := os.ReadFile(filepath.Join(root, "cv", "42", "1-My_Resume.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(got))

	u, err := b.URL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/cv/42/1-My_Resume.pdf", u)

	require.NoError(t, b.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "cv", "42", "1-My_Resume.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalBackend_NoOverwrite(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir(), "http://x")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "image/1/1-a.png", []byte("one"), "image/png", nil))
	assert.Error(t, b.Put(ctx, "image/1/1-a.png", []byte("two"), "image/png", nil))
}

func TestLocalBackend_DeleteMissing(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir(), "http://x")
	require.NoError(t, err)
	assert.NoError(t, b.Delete(context.Background(), "cv/1/never-uploaded.pdf"))
}

func TestLocalBackend_Traversal(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir(), "http://x")
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, b.Put(ctx, "../../etc/passwd", []byte("x"), "", nil), filex.ErrOutsideRoot)
	assert.ErrorIs(t, b.Delete(ctx, "../x"), filex.ErrOutsideRoot)
	_, err = b.URL(ctx, "..", 0)
	assert.ErrorIs(t, err, filex.ErrOutsideRoot)
}

func TestLocalBackend_CanceledContext(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir(), "http://x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Put(ctx, "cv/1/1-a.pdf", []byte("x"), "", nil), context.Canceled)
}
