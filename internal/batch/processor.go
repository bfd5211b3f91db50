package batch

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-pdf-renamer/internal/fields"
)

// Decoder turns PDF bytes into per-page text
type Decoder interface {
	DecodePages(data []byte) ([]string, error)
}

// Processor renames a batch of uploaded documents and packages the result.
// It holds no per-batch state and may be shared between requests.
type Processor struct {
	logger  *slog.Logger
	decoder Decoder
	opts    Options
}

// NewProcessor creates a processor that decodes with decoder
func NewProcessor(logger *slog.Logger, decoder Decoder, opts Options) (*Processor, error) {
	if decoder == nil {
		return nil, fmt.Errorf("decoder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:  logger,
		decoder: decoder,
		opts:    opts.withDefaults(),
	}, nil
}

// Options returns the archive options in effect
func (p *Processor) Options() Options {
	return p.opts
}

// Process handles docs in order. A document that cannot be decoded or
// renamed is logged and left out; only archive encoding errors are returned.
func (p *Processor) Process(docs []Document) (*Bundle, error) {
	id := uuid.NewString()
	logger := p.logger.With("batch_id", id)
	logger.Info("batch.started", "documents", len(docs))

	results := make([]Result, 0, len(docs))
	logLines := make([]string, 0, len(docs))
	entries := newArchiveEntries()

	if len(docs) == 0 {
		logLines = append(logLines, NoFilesMessage)
	}

	for i, doc := range docs {
		docLogger := logger.With("index", i, "name", doc.Name)
		res := p.processDocument(docLogger, doc)

		if res.Outcome == OutcomeRenamed {
			if entries.put(res.NewName, doc.Data) {
				docLogger.Warn("batch.document.overwritten", "new_name", res.NewName)
			}
		}

		results = append(results, res)
		logLines = append(logLines, logLine(res))
	}

	bundle, err := p.assemble(id, results, entries.documents(), logLines)
	if err != nil {
		logger.Error("batch.archive.failed", "err", err)
		return nil, err
	}

	logger.Info("batch.finished",
		"documents", len(docs),
		"renamed", len(bundle.Renamed),
		"archive_bytes", len(bundle.Archive),
	)
	return bundle, nil
}

func (p *Processor) processDocument(logger *slog.Logger, doc Document) Result {
	res := Result{Name: doc.Name}

	if !IsPDFName(doc.Name) {
		res.Outcome = OutcomeSkippedNonPDF
		logger.Info("batch.document.skipped", "outcome", res.Outcome)
		return res
	}

	if doc.ReadErr != nil {
		res.Outcome = OutcomeReadFailure
		res.Err = doc.ReadErr
		logger.Warn("batch.document.read_failed", "err", doc.ReadErr)
		return res
	}

	logger.Debug("batch.document.decoding", "bytes", len(doc.Data))
	pages, err := p.decoder.DecodePages(doc.Data)
	if err != nil {
		res.Outcome = OutcomeDecodeFailure
		res.Err = err
		logger.Warn("batch.document.decode_failed", "err", err)
		return res
	}

	found, err := fields.NewExtractor(logger).Extract(pages)
	if err != nil {
		res.Outcome = OutcomeExtractionFailure
		res.Err = err
		logger.Info("batch.document.extraction_failed", "err", err)
		return res
	}

	res.Outcome = OutcomeRenamed
	res.Fields = found
	res.NewName = found.Filename()
	logger.Info("batch.document.renamed", "new_name", res.NewName)
	return res
}

func (p *Processor) assemble(id string, results []Result, renamed []RenamedDocument, logLines []string) (*Bundle, error) {
	renamedArchive, err := writeZip(renamed, p.opts.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("renamed archive: %w", err)
	}

	logArchive, err := writeZip([]RenamedDocument{
		{Name: p.opts.LogReportName, Data: []byte(joinLog(logLines))},
	}, p.opts.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("log archive: %w", err)
	}

	archive, err := writeZip([]RenamedDocument{
		{Name: p.opts.RenamedArchiveName, Data: renamedArchive},
		{Name: p.opts.LogArchiveName, Data: logArchive},
	}, p.opts.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("combined archive: %w", err)
	}

	return &Bundle{
		ID:             id,
		Results:        results,
		Renamed:        renamed,
		Log:            logLines,
		ArchiveName:    p.opts.ArchiveName,
		Archive:        archive,
		RenamedArchive: renamedArchive,
		LogArchive:     logArchive,
	}, nil
}

// IsPDFName reports whether name carries a .pdf extension in any case
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func logLine(res Result) string {
	switch res.Outcome {
	case OutcomeRenamed:
		return fmt.Sprintf("Renamed file %s to: %s", res.Name, res.NewName)
	case OutcomeSkippedNonPDF:
		return fmt.Sprintf("Skipping file %s: not a PDF file", res.Name)
	case OutcomeDecodeFailure:
		return fmt.Sprintf("Skipping file %s due to decode failure: %v", res.Name, res.Err)
	case OutcomeExtractionFailure:
		return fmt.Sprintf("Skipping file %s due to extraction failure: %v", res.Name, res.Err)
	case OutcomeReadFailure:
		return fmt.Sprintf("Skipping file %s due to read failure: %v", res.Name, res.Err)
	default:
		return fmt.Sprintf("Skipping file %s", res.Name)
	}
}
