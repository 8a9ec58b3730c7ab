// Package docpipe extracts plain text from uploaded ordinance files
// and prepares it for annotation.
//
// Supported formats:
//   - .pdf   — PDF text extraction (pure Go, content stream decoding)
//   - .docx  — Microsoft Word (archive/zip → word/document.xml)
//   - .odt   — OpenDocument Text (archive/zip → content.xml)
//   - .txt   — plain text
//   - .md    — Markdown
//   - .html  — HTML (sanitized, converted to Markdown, then parsed)
//
// Extraction is followed by ordinance-specific normalization (heading
// repair, register-number scrubbing, whitespace collapse) and sentence
// segmentation. The output sentences feed the entity recognizer in
// document order.
package docpipe

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Format identifies a document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatODT  Format = "odt"
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
	FormatHTML Format = "html"
)

// Document is the result of extracting an uploaded file.
type Document struct {
	Filename  string   `json:"filename"`
	Format    Format   `json:"format"`
	Text      string   `json:"text"`      // normalized full text
	Sentences []string `json:"sentences"` // segmented, in document order
}

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the maximum upload size to process (default: 32 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 32 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the document extraction engine.
type Pipeline struct {
	cfg         Config
	logger      *slog.Logger
	sanitizer   *bluemonday.Policy
	mdConverter *converter.Converter
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:       cfg,
		logger:    cfg.Logger,
		sanitizer: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Detect returns the document format based on file extension.
func Detect(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".odt":
		return FormatODT, nil
	case ".txt", ".text":
		return FormatTXT, nil
	case ".md", ".markdown":
		return FormatMD, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Extract parses an uploaded file and returns its normalized text and
// segmented sentences.
func (p *Pipeline) Extract(ctx context.Context, filename string, data []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if int64(len(data)) > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", len(data), p.cfg.MaxFileSize)
	}

	format, err := Detect(filename)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting document", "filename", filename, "format", format, "size", len(data))

	var raw string
	switch format {
	case FormatPDF:
		raw, err = extractPDF(data)
	case FormatDocx:
		raw, err = extractDocx(data)
	case FormatODT:
		raw, err = extractODT(data)
	case FormatTXT:
		raw, err = extractText(data)
	case FormatMD:
		raw, err = extractMarkdown(data)
	case FormatHTML:
		raw, err = p.extractHTML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", filename, format, err)
	}

	text := NormalizeOrdinance(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extract %s: %w", filename, ErrNoText)
	}

	return &Document{
		Filename:  filename,
		Format:    format,
		Text:      text,
		Sentences: SegmentSentences(text),
	}, nil
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{"pdf", "docx", "odt", "txt", "md", "html"}
}
