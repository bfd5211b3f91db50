package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/a3tai/mcp-pdf-renamer/internal/batch"
)

// FormField is the multipart field carrying the uploaded files
const FormField = "files"

const maxMemory = 32 << 20

const uploadForm = `<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>PDF Renamer</title>
  <style>
    body { font-family: sans-serif; background: #f3f4f6; }
    .card { background: #fff; max-width: 28rem; margin: 3rem auto; padding: 1.5rem; border-radius: .5rem; }
    input[type=submit] { width: 100%; padding: .5rem; background: #2563eb; color: #fff; border: 0; border-radius: .25rem; }
  </style>
</head>
<body>
  <h1 style="text-align:center">PDF Renamer</h1>
  <div class="card">
    <form method="post" action="/" enctype="multipart/form-data">
      <p><label>Select PDF Files<br><input type="file" name="files" multiple></label></p>
      <p><input type="submit" value="Upload and Process"></p>
    </form>
  </div>
</body>
</html>
`

// Handler serves the upload form and turns uploads into a renamed archive
type Handler struct {
	processor     *batch.Processor
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates an upload handler. maxUploadSize caps the whole
// request body; zero disables the cap.
func NewHandler(processor *batch.Processor, logger *slog.Logger, maxUploadSize int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{processor: processor, logger: logger, maxUploadSize: maxUploadSize}
}

// Routes returns the mux for the upload server
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.serveRoot)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

func (h *Handler) serveRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, uploadForm)
	case http.MethodPost:
		h.upload(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	docs, err := readUpload(r)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.logger.Warn("web.upload.rejected", "err", err, "status", status)
		http.Error(w, err.Error(), status)
		return
	}

	bundle, err := h.processor.Process(docs)
	if err != nil {
		h.logger.Error("web.upload.failed", "err", err)
		http.Error(w, "failed to build archive", http.StatusInternalServerError)
		return
	}

	h.logger.Info("web.upload.done", "batch_id", bundle.ID, "files", len(docs), "renamed", len(bundle.Renamed))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", bundle.ArchiveName))
	w.Header().Set("Content-Length", strconv.Itoa(len(bundle.Archive)))
	_, _ = w.Write(bundle.Archive)
}

// readUpload returns the uploaded files in form order. Parts without a file
// name are ignored, as browsers send one when nothing was selected.
func readUpload(r *http.Request) ([]batch.Document, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("expected multipart/form-data upload: %w", err)
		}
		return nil, fmt.Errorf("failed to parse upload: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[FormField]
	docs := make([]batch.Document, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		docs = append(docs, batch.Document{Name: fh.Filename, Data: data})
	}
	return docs, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}
