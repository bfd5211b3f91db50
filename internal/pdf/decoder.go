package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrDecode is matched by every failure to turn PDF bytes into page text
var ErrDecode = errors.New("cannot decode PDF")

// DecodeError describes why a document could not be decoded
type DecodeError struct {
	Stage string // "header", "validate", "open" or "page"
	Page  int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports ErrDecode as the category of every DecodeError
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Decoder turns in-memory PDF bytes into per-page plain text
type Decoder struct {
	validate bool
}

// NewDecoder creates a decoder. When validate is set every document is
// first checked structurally with pdfcpu before text extraction.
func NewDecoder(validate bool) *Decoder {
	return &Decoder{validate: validate}
}

// DecodePages returns the text of every page in page order, one line per
// visual row. Pages without content yield an empty string so page positions
// are kept.
func (d *Decoder) DecodePages(data []byte) (pages []string, err error) {
	// both parsers can panic on malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &DecodeError{Stage: "open", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return nil, &DecodeError{Stage: "header", Err: errors.New("empty document")}
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\n\f\r "), []byte("%PDF-")) {
		return nil, &DecodeError{Stage: "header", Err: errors.New("missing %PDF- header")}
	}

	if d.validate {
		if err := validateStructure(data); err != nil {
			return nil, &DecodeError{Stage: "validate", Err: err}
		}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &DecodeError{Stage: "open", Err: err}
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := pageText(page)
		if err != nil {
			return nil, &DecodeError{Stage: "page", Page: pageNum, Err: err}
		}
		pages = append(pages, text)
	}

	return pages, nil
}

// validateStructure reads and validates the document with pdfcpu in relaxed mode
func validateStructure(data []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("failed to ensure page count: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("structural validation failed: %w", err)
	}
	return nil
}
