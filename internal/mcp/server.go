package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-renamer/internal/batch"
	"github.com/a3tai/mcp-pdf-renamer/internal/config"
	"github.com/a3tai/mcp-pdf-renamer/internal/fields"
	"github.com/a3tai/mcp-pdf-renamer/internal/security"
)

// DefaultDirPerm is used when creating the output directory of an archive
const DefaultDirPerm = 0o750

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	processor *batch.Processor
	decoder   batch.Decoder
	paths     *security.PathValidator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, processor *batch.Processor, decoder batch.Decoder,
	logger *slog.Logger,
) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if decoder == nil {
		return nil, fmt.Errorf("decoder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		processor: processor,
		decoder:   decoder,
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

// toolInfo describes a registered tool for pdf_server_info
type toolInfo struct {
	Name        string
	Description string
	Parameters  string
}

var tools = []toolInfo{
	{
		Name:        "pdf_rename_directory",
		Description: "Rename every PDF in a directory by surname, birth year and phone number and write the combined archive",
		Parameters: "directory (optional): directory to process (uses default if empty), " +
			"output (optional): archive path (defaults to <directory>/combined_files.zip)",
	},
	{
		Name:        "pdf_extract_fields",
		Description: "Extract surname, birth year and phone number from a single PDF",
		Parameters:  "path (required): path to the PDF file",
	},
	{
		Name:        "pdf_server_info",
		Description: "Get server information, configuration and available tools",
		Parameters:  "none",
	},
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		tools[0].Name,
		mcp.WithDescription(tools[0].Description),
		mcp.WithString("directory",
			mcp.Description("Directory path to process (uses default if empty)"),
		),
		mcp.WithString("output",
			mcp.Description("Path of the combined archive to write"),
		),
	), s.handleRenameDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		tools[1].Name,
		mcp.WithDescription(tools[1].Description),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		tools[2].Name,
		mcp.WithDescription(tools[2].Description),
	), s.handleServerInfo)
}

func (s *Server) handleRenameDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	args := request.GetArguments()

	directory := ""
	if dir, ok := args["directory"].(string); ok {
		directory = dir
	}
	dir, err := s.paths.ResolveDirectory(directory)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	output := filepath.Join(dir, s.processor.Options().ArchiveName)
	if out, ok := args["output"].(string); ok && out != "" {
		output = out
	}
	output, err = s.paths.Resolve(output)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}

	docs, err := batch.ReadDirectory(dir, s.config.MaxFileSize, output)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	bundle, err := s.processor.Process(docs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := os.MkdirAll(filepath.Dir(output), DefaultDirPerm); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot create output directory: %v", err)), nil
	}
	if err := os.WriteFile(output, bundle.Archive, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write archive: %v", err)), nil
	}

	s.logger.InfoContext(ctx, "mcp.rename_directory.done",
		"batch_id", bundle.ID, "directory", dir, "output", output, "renamed", len(bundle.Renamed))

	return mcp.NewToolResultText(formatBundle(bundle, dir, output)), nil
}

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("security validation failed: %v", err)), nil
	}
	if !batch.IsPDFName(path) {
		return mcp.NewToolResultError(fmt.Sprintf("file is not a PDF: %s", path)), nil
	}

	doc, err := batch.ReadDocument(path, s.config.MaxFileSize)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pages, err := s.decoder.DecodePages(doc.Data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode %s: %v", doc.Name, err)), nil
	}

	found, err := fields.NewExtractor(s.logger).Extract(pages)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Extraction failed for %s: %v", path, err)), nil
	}

	text := fmt.Sprintf("Fields extracted from: %s\n", path)
	text += fmt.Sprintf("Surname: %s\n", found.Surname)
	text += fmt.Sprintf("Birth Year: %s\n", found.BirthYear)
	text += fmt.Sprintf("Phone: %s\n", found.PhoneDigits)
	text += fmt.Sprintf("New Name: %s\n", found.Filename())
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.processor.Options()

	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Default Directory: %s\n", s.paths.Root())
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Structural Validation: %t\n", s.config.ValidatePDF)
	text += fmt.Sprintf("Archive Layout: %s { %s, %s { %s } }\n",
		opts.ArchiveName, opts.RenamedArchiveName, opts.LogArchiveName, opts.LogReportName)

	text += "\nAvailable Tools:\n"
	for _, tool := range tools {
		text += fmt.Sprintf("\n- %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	return mcp.NewToolResultText(text), nil
}

func formatBundle(bundle *batch.Bundle, dir, output string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d file(s) in directory: %s\n", len(bundle.Results), dir)
	fmt.Fprintf(&b, "Renamed: %d\n", len(bundle.Renamed))
	fmt.Fprintf(&b, "Archive: %s (%d bytes)\n", output, len(bundle.Archive))
	b.WriteString("\nLog:\n")
	b.WriteString(bundle.Report())
	b.WriteString("\n")
	return b.String()
}

// Run serves MCP over standard I/O until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.logger.Debug("mcp.stdio.starting", "directory", s.paths.Root())

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
