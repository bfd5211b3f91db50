package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	doc, err := ReadDocument(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, Document{Name: "form.pdf", Data: []byte("content")}, doc)

	_, err = ReadDocument(path, 3)
	assert.ErrorContains(t, err, "file too large")

	_, err = ReadDocument(filepath.Join(dir, "missing.pdf"), 1024)
	assert.ErrorContains(t, err, "does not exist")

	_, err = ReadDocument(dir, 1024)
	assert.ErrorContains(t, err, "is a directory")
}

func TestReadDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notes.txt", "combined_files.zip"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	docs, err := ReadDirectory(dir, 1024, filepath.Join(dir, "combined_files.zip"))
	require.NoError(t, err)

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "notes.txt"}, names)
	assert.Equal(t, []byte("a.pdf"), docs[0].Data)
	assert.Nil(t, docs[2].Data, "non-PDF files are not read")

	_, err = ReadDirectory(filepath.Join(dir, "missing"), 1024)
	assert.Error(t, err)
}

func TestReadDirectory_OversizedFilesDoNotFailTheBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("small"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.pdf"), make([]byte, 2048), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video.mp4"), make([]byte, 2048), 0o644))

	docs, err := ReadDirectory(dir, 1024)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, Document{Name: "a.pdf", Data: []byte("small")}, docs[0])

	assert.Equal(t, "big.pdf", docs[1].Name)
	assert.Nil(t, docs[1].Data)
	assert.ErrorContains(t, docs[1].ReadErr, "file too large")

	assert.Equal(t, Document{Name: "video.mp4"}, docs[2])
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	doc := LoadDocument(filepath.Join(dir, "missing.pdf"), 1024)
	assert.Equal(t, "missing.pdf", doc.Name)
	assert.ErrorContains(t, doc.ReadErr, "does not exist")

	doc = LoadDocument(filepath.Join(dir, "missing.txt"), 1024)
	assert.Equal(t, Document{Name: "missing.txt"}, doc)
}
