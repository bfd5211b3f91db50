package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-pdf-renamer/internal/batch"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultMaxFileSize      = 100 * 1024 * 1024 // 100MB
	DefaultCompressionLevel = -1                // flate default

	// EnvPrefix is prepended to every environment variable name
	EnvPrefix = "PDF_RENAMER"
)

// Config holds all configuration for the PDF renamer
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDFDirectory bounds the directories the MCP tools may read and write
	PDFDirectory string

	// Archive layout
	ArchiveName        string
	RenamedArchiveName string
	LogArchiveName     string
	LogReportName      string
	CompressionLevel   int

	// ValidatePDF enables the pdfcpu structural check before text extraction
	ValidatePDF bool

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum upload size in bytes, enforced by the transports
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:               ModeStdio,
		Host:               DefaultHost,
		Port:               DefaultPort,
		PDFDirectory:       currentDir,
		ArchiveName:        batch.DefaultArchiveName,
		RenamedArchiveName: batch.DefaultRenamedArchiveName,
		LogArchiveName:     batch.DefaultLogArchiveName,
		LogReportName:      batch.DefaultLogReportName,
		CompressionLevel:   DefaultCompressionLevel,
		Version:            "1.0.0",
		ServerName:         "mcp-pdf-renamer",
		LogLevel:           DefaultLogLevel,
		MaxFileSize:        DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flag names double as viper keys; env names are PDF_RENAMER_ + upper snake case
var flagNames = []string{
	"mode", "host", "port", "dir", "log-level", "max-file-size", "validate",
	"compression-level", "archive-name", "renamed-name", "log-archive-name", "log-name",
}

func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("validate", cfg.ValidatePDF)
	viper.SetDefault("compression-level", cfg.CompressionLevel)
	viper.SetDefault("archive-name", cfg.ArchiveName)
	viper.SetDefault("renamed-name", cfg.RenamedArchiveName)
	viper.SetDefault("log-archive-name", cfg.LogArchiveName)
	viper.SetDefault("log-name", cfg.LogReportName)
}

func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for the HTTP upload form")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory the MCP tools may read PDFs from and write archives to")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum upload size in bytes")
	pflag.Bool("validate", cfg.ValidatePDF, "Validate PDF structure with pdfcpu before extracting text")
	pflag.Int("compression-level", cfg.CompressionLevel, "Deflate level for archives (-2 to 9)")
	pflag.String("archive-name", cfg.ArchiveName, "File name of the combined archive")
	pflag.String("renamed-name", cfg.RenamedArchiveName, "Entry name of the renamed documents archive")
	pflag.String("log-archive-name", cfg.LogArchiveName, "Entry name of the log archive")
	pflag.String("log-name", cfg.LogReportName, "Entry name of the log report inside the log archive")
}

func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Renamer - rename intake PDFs by surname, birth year and phone number\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# MCP stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# MCP stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server                           # upload form on 127.0.0.1:8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # upload form on all interfaces\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, name := range flagNames {
			fmt.Fprintf(os.Stderr, "  %s\n", EnvName(name))
		}
	}
}

// EnvName returns the environment variable bound to a flag
func EnvName(flag string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.ValidatePDF = viper.GetBool("validate")
	cfg.CompressionLevel = viper.GetInt("compression-level")
	cfg.ArchiveName = viper.GetString("archive-name")
	cfg.RenamedArchiveName = viper.GetString("renamed-name")
	cfg.LogArchiveName = viper.GetString("log-archive-name")
	cfg.LogReportName = viper.GetString("log-name")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	if info, err := os.Stat(c.PDFDirectory); err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	} else if !info.IsDir() {
		return fmt.Errorf("PDF directory is not a directory: %s", c.PDFDirectory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.CompressionLevel < -2 || c.CompressionLevel > 9 {
		return fmt.Errorf("invalid compression level: %d (must be between -2 and 9)", c.CompressionLevel)
	}

	names := map[string]string{
		"archive name":         c.ArchiveName,
		"renamed archive name": c.RenamedArchiveName,
		"log archive name":     c.LogArchiveName,
		"log report name":      c.LogReportName,
	}
	for label, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%s cannot be empty", label)
		}
	}
	if c.RenamedArchiveName == c.LogArchiveName {
		return errors.New("renamed archive and log archive must have different names")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLogLevel maps a log level name onto its slog level
func ParseLogLevel(level string) (slog.Level, error) {
	if l, ok := logLevels[level]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", level)
}

// SlogLevel returns the slog level for LogLevel, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level
	}
	return slog.LevelInfo
}

// BatchOptions returns the archive options for the batch processor
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{
		ArchiveName:        c.ArchiveName,
		RenamedArchiveName: c.RenamedArchiveName,
		LogArchiveName:     c.LogArchiveName,
		LogReportName:      c.LogReportName,
		CompressionLevel:   c.CompressionLevel,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, ValidatePDF: %t, CompressionLevel: %d, ArchiveName: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel,
		c.MaxFileSize, c.ValidatePDF, c.CompressionLevel, c.ArchiveName)
}

// IsServerMode returns true if the HTTP upload server is selected
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP stdio server is selected
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
