package batch

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadDocument loads one file from disk as a Document named by its base name
func ReadDocument(path string, maxFileSize int64) (Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Document{}, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return Document{}, fmt.Errorf("file too large: %s is %d bytes (max: %d bytes)",
			path, info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Document{Name: filepath.Base(path), Data: data}, nil
}

// ReadDirectory loads every regular file directly inside dir, sorted by name,
// through LoadDocument. Paths listed in exclude are left out. Only a failure
// to list dir is returned as an error.
func ReadDirectory(dir string, maxFileSize int64, exclude ...string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		skip[filepath.Clean(p)] = true
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if skip[path] {
			continue
		}
		docs = append(docs, LoadDocument(path, maxFileSize))
	}
	return docs, nil
}

// LoadDocument prepares path for a batch. Files without a .pdf name are not
// read, as the batch skips them by name. A PDF that cannot be read comes
// back with ReadErr set instead of failing the batch.
func LoadDocument(path string, maxFileSize int64) Document {
	name := filepath.Base(path)
	if !IsPDFName(name) {
		return Document{Name: name}
	}
	doc, err := ReadDocument(path, maxFileSize)
	if err != nil {
		return Document{Name: name, ReadErr: err}
	}
	return doc
}
