// Command pdf-rename renames a set of intake PDFs in one shot and writes the
// combined archive to disk.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-renamer/internal/batch"
	"github.com/a3tai/mcp-pdf-renamer/internal/config"
	"github.com/a3tai/mcp-pdf-renamer/internal/pdf"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("pdf-rename", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	out := fs.StringP("out", "o", batch.DefaultArchiveName, "Path of the combined archive to write")
	validate := fs.Bool("validate", false, "Validate PDF structure with pdfcpu before extracting text")
	level := fs.Int("compression-level", config.DefaultCompressionLevel, "Deflate level for archives (-2 to 9)")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	maxFileSize := fs.Int64("max-file-size", config.DefaultMaxFileSize, "Maximum size of a single input file in bytes")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdf-rename [options] file.pdf...\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	slogLevel, err := config.ParseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "pdf-rename: %v\n", err)
		fs.Usage()
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slogLevel}))

	// unreadable inputs are logged and skipped like any other failed document
	docs := make([]batch.Document, 0, fs.NArg())
	for _, path := range fs.Args() {
		docs = append(docs, batch.LoadDocument(path, *maxFileSize))
	}

	opts := batch.DefaultOptions()
	opts.ArchiveName = filepath.Base(*out)
	opts.CompressionLevel = *level

	processor, err := batch.NewProcessor(logger, pdf.NewDecoder(*validate), opts)
	if err != nil {
		fmt.Fprintf(stderr, "pdf-rename: %v\n", err)
		return 1
	}

	bundle, err := processor.Process(docs)
	if err != nil {
		fmt.Fprintf(stderr, "pdf-rename: %v\n", err)
		return 1
	}

	if err := os.WriteFile(*out, bundle.Archive, 0o644); err != nil {
		fmt.Fprintf(stderr, "pdf-rename: failed to write archive: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, bundle.Report())
	return 0
}
