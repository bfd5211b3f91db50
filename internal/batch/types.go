package batch

import "github.com/a3tai/mcp-pdf-renamer/internal/fields"

// Default archive entry names
const (
	DefaultArchiveName        = "combined_files.zip"
	DefaultRenamedArchiveName = "renamed_pdfs.zip"
	DefaultLogArchiveName     = "log_report.zip"
	DefaultLogReportName      = "log_report.txt"

	NoFilesMessage = "No files uploaded."
)

// Document is one uploaded file
type Document struct {
	Name string
	Data []byte

	// ReadErr is set when the file could not be loaded. Such a document is
	// logged and left out of the archive.
	ReadErr error
}

// Outcome categorises what happened to a document
type Outcome int

const (
	OutcomeRenamed Outcome = iota
	OutcomeSkippedNonPDF
	OutcomeDecodeFailure
	OutcomeExtractionFailure
	OutcomeReadFailure
)

// String returns a string representation of the Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeRenamed:
		return "renamed"
	case OutcomeSkippedNonPDF:
		return "skipped_non_pdf"
	case OutcomeDecodeFailure:
		return "decode_failure"
	case OutcomeExtractionFailure:
		return "extraction_failure"
	case OutcomeReadFailure:
		return "read_failure"
	default:
		return "unknown"
	}
}

// Result records the handling of a single document
type Result struct {
	Name    string
	Outcome Outcome
	NewName string
	Fields  fields.Fields
	Err     error
}

// RenamedDocument is an entry of the renamed documents archive
type RenamedDocument struct {
	Name string
	Data []byte
}

// Bundle is the finished output of one batch
type Bundle struct {
	ID string

	// Results has one entry per input document, in upload order
	Results []Result
	// Renamed holds the archive entries after collisions were resolved
	Renamed []RenamedDocument
	Log     []string

	ArchiveName    string
	Archive        []byte // outer archive holding RenamedArchive and LogArchive
	RenamedArchive []byte
	LogArchive     []byte
}

// Report returns the newline-joined log
func (b *Bundle) Report() string {
	return joinLog(b.Log)
}

// Options controls archive naming and compression
type Options struct {
	ArchiveName        string
	RenamedArchiveName string
	LogArchiveName     string
	LogReportName      string

	// CompressionLevel is a flate level from -2 (Huffman only) to 9
	CompressionLevel int
}

// DefaultOptions returns the standard archive layout
func DefaultOptions() Options {
	return Options{
		ArchiveName:        DefaultArchiveName,
		RenamedArchiveName: DefaultRenamedArchiveName,
		LogArchiveName:     DefaultLogArchiveName,
		LogReportName:      DefaultLogReportName,
		CompressionLevel:   -1,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ArchiveName == "" {
		o.ArchiveName = def.ArchiveName
	}
	if o.RenamedArchiveName == "" {
		o.RenamedArchiveName = def.RenamedArchiveName
	}
	if o.LogArchiveName == "" {
		o.LogArchiveName = def.LogArchiveName
	}
	if o.LogReportName == "" {
		o.LogReportName = def.LogReportName
	}
	return o
}
