package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptreel/server/internal/port/outbound"
)

func TestArtifactStore_PutOpen(t *testing.T) {
	root := t.TempDir()
	store, err := NewArtifactStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "videos/task-1.mp4", []byte("video"), "video/mp4"))
	_, err = os.Stat(filepath.Join(root, "videos", "task-1.mp4"))
	require.NoError(t, err)

	obj, err := store.Open(ctx, "videos/task-1.mp4")
	require.NoError(t, err)
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))
	assert.Equal(t, int64(5), obj.Size)
	assert.Equal(t, "video/mp4", obj.ContentType)

	// Overwrite replaces the content.
	require.NoError(t, store.Put(ctx, "videos/task-1.mp4", []byte("v2"), "video/mp4"))
	obj2, err := store.Open(ctx, "videos/task-1.mp4")
	require.NoError(t, err)
	defer obj2.Body.Close()
	assert.Equal(t, int64(2), obj2.Size)
}

func TestArtifactStore_Errors(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Open(ctx, "videos/missing.mp4")
	assert.ErrorIs(t, err, outbound.ErrObjectNotFound)

	_, err = store.PresignedURL(ctx, "videos/task-1.mp4", time.Minute)
	assert.ErrorIs(t, err, outbound.ErrPresignUnsupported)

	assert.Error(t, store.Put(ctx, "", []byte("x"), ""))

	_, err = NewArtifactStore("")
	assert.Error(t, err)
}

func TestArtifactStore_KeysStayBelowRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewArtifactStore(filepath.Join(root, "store"))
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "../../escape.mp4", []byte("x"), ""))
	_, err = os.Stat(filepath.Join(root, "escape.mp4"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "store", "escape.mp4"))
	assert.NoError(t, err)
}
