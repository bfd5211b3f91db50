package web

import (
	"archive/zip"
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-renamer/internal/batch"
)

const robinsonText = "ELBERT W. ROBINSON\n" +
	"Some Address\n" +
	"Some City, ST ZIP\n" +
	"Date of Birth: 08/06/1972\n" +
	"First Phone: 281-111-1111\n" +
	"Second Phone: (832)882-4384\n"

type textDecoder struct{}

func (textDecoder) DecodePages(data []byte) ([]string, error) {
	return []string{string(data)}, nil
}

type upload struct {
	name    string
	content string
}

func newTestHandler(t *testing.T, maxUploadSize int64) http.Handler {
	t.Helper()
	processor, err := batch.NewProcessor(nil, textDecoder{}, batch.DefaultOptions())
	require.NoError(t, err)
	return NewHandler(processor, nil, maxUploadSize).Routes()
}

func multipartRequest(t *testing.T, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		w, err := mw.CreateFormFile(FormField, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = content
	}
	return out
}

func TestHandler_Form(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `name="files"`)
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)
}

func TestHandler_SingleValidPDF(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rec, multipartRequest(t, upload{"test.pdf", robinsonText}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="combined_files.zip"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	outer := unzip(t, rec.Body.Bytes())
	renamed := unzip(t, outer[batch.DefaultRenamedArchiveName])
	assert.Equal(t, robinsonText, string(renamed["robinson_1972_8328824384.pdf"]))

	logs := unzip(t, outer[batch.DefaultLogArchiveName])
	assert.Equal(t, "Renamed file test.pdf to: robinson_1972_8328824384.pdf",
		string(logs[batch.DefaultLogReportName]))
}

func TestHandler_VeryLargePDF(t *testing.T) {
	large := "ELBERT W. ROBINSON\n" + strings.Repeat("A", 1_000_000) + "\n" +
		"Date of Birth: 08/06/1972\nFirst Phone: 281-111-1111\nSecond Phone: (832)882-4384\n"

	rec := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rec, multipartRequest(t, upload{"large_test.pdf", large}))

	require.Equal(t, http.StatusOK, rec.Code)
	outer := unzip(t, rec.Body.Bytes())
	renamed := unzip(t, outer[batch.DefaultRenamedArchiveName])
	assert.Len(t, renamed, 1)
}

func TestHandler_BulkUpload(t *testing.T) {
	files := make([]upload, 500)
	for i := range files {
		files[i] = upload{name: "test.pdf", content: robinsonText}
	}

	rec := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rec, multipartRequest(t, files...))

	require.Equal(t, http.StatusOK, rec.Code)
	outer := unzip(t, rec.Body.Bytes())
	logs := unzip(t, outer[batch.DefaultLogArchiveName])
	assert.Len(t, strings.Split(string(logs[batch.DefaultLogReportName]), "\n"), 500)
}

func TestHandler_NoFiles(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rec, multipartRequest(t, upload{"", ""}))

	require.Equal(t, http.StatusOK, rec.Code)
	outer := unzip(t, rec.Body.Bytes())
	assert.Empty(t, unzip(t, outer[batch.DefaultRenamedArchiveName]))
	logs := unzip(t, outer[batch.DefaultLogArchiveName])
	assert.Equal(t, batch.NoFilesMessage, string(logs[batch.DefaultLogReportName]))
}

func TestHandler_Rejections(t *testing.T) {
	h := newTestHandler(t, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UploadTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t, 1024).ServeHTTP(rec, multipartRequest(t, upload{"big.pdf", strings.Repeat("A", 4096)}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body too large")
}

func TestHandler_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}
