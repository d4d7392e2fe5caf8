package filestorage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveAndDeleteImage(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	url, err := storage.SaveImage(newFileHeader(t, "logo.PNG", []byte("png-bytes")), "societies/3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/societies/3/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	full := storage.GetFullPath(url)
	assert.Equal(t, filepath.Join(dir, "societies", "3", filepath.Base(url)), full)
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, storage.DeleteFile(url))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, storage.DeleteFile(url))
}

func TestSaveImageRejectsOtherTypes(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = storage.SaveImage(newFileHeader(t, "notes.pdf", []byte("%PDF")), "news")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestGetFullPathStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir, "/uploads")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "etc", "passwd"), storage.GetFullPath("/uploads/../../etc/passwd"))
	assert.Equal(t, "", storage.GetFullPath("/uploads/"))
}
