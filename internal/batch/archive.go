package batch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
)

// archiveEntries accumulates named entries; writing an existing name
// replaces its content in place
type archiveEntries struct {
	order []string
	data  map[string][]byte
}

func newArchiveEntries() *archiveEntries {
	return &archiveEntries{data: make(map[string][]byte)}
}

// put stores data under name and reports whether an earlier entry was replaced
func (a *archiveEntries) put(name string, data []byte) bool {
	_, exists := a.data[name]
	if !exists {
		a.order = append(a.order, name)
	}
	a.data[name] = data
	return exists
}

func (a *archiveEntries) documents() []RenamedDocument {
	docs := make([]RenamedDocument, 0, len(a.order))
	for _, name := range a.order {
		docs = append(docs, RenamedDocument{Name: name, Data: a.data[name]})
	}
	return docs
}

// writeZip encodes docs as a complete deflate-compressed zip archive
func writeZip(docs []RenamedDocument, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	for _, doc := range docs {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: doc.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", doc.Name, err)
		}
		if _, err := w.Write(doc.Data); err != nil {
			return nil, fmt.Errorf("failed to write entry %s: %w", doc.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func joinLog(lines []string) string {
	return strings.Join(lines, "\n")
}
