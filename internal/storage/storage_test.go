package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	disk, err := Open(context.Background(), Options{Driver: "local", UploadDir: dir, BaseURL: "http://pos.test/"})
	require.NoError(t, err)

	url, err := disk.Put(context.Background(), "product-images/latte.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://pos.test/uploads/product-images/latte.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "product-images", "latte.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, disk.Delete(context.Background(), "product-images/latte.png"))
	require.NoError(t, disk.Delete(context.Background(), "product-images/latte.png"))
}

func TestLocalKeepsKeysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	disk, err := NewLocal(filepath.Join(dir, "uploads"), "http://pos.test/uploads")
	require.NoError(t, err)

	_, err = disk.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.txt"))
	assert.NoError(t, err)

	_, err = disk.Put(context.Background(), "", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestImageHelpers(t *testing.T) {
	ext, ok := ImageExt("image/JPEG")
	assert.True(t, ok)
	assert.Equal(t, ".jpg", ext)
	_, ok = ImageExt("application/pdf")
	assert.False(t, ok)

	key := ImageKey("category-images", ".png", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(key, "category-images/2026/10/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "ftp"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Options{Driver: "s3"})
	assert.Error(t, err)
}
