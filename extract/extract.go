// Package extract turns uploaded files into plain text for ingestion.
//
// The extractor is chosen by file extension. Plain text and markdown are
// passed through verbatim; HTML is reduced to its visible text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrMalformedDocument is returned when a document cannot be decoded.
	ErrMalformedDocument = errors.New("malformed document")
)

// Extractor reads a document and returns its text.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (string, error)

	// Extensions lists the lower-case file extensions handled, with the dot.
	Extensions() []string
}

// Document is the text of a file together with its source name.
type Document struct {
	Source string
	Text   string
}

var registry = []Extractor{PlainText{}, HTML{}}

// ForPath returns the extractor for path's extension.
func ForPath(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range registry {
		if slices.Contains(e.Extensions(), ext) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Supported reports whether path has an extension some extractor handles.
func Supported(path string) bool {
	_, err := ForPath(path)
	return err == nil
}

// SupportedExtensions returns every handled extension.
func SupportedExtensions() []string {
	var exts []string
	for _, e := range registry {
		exts = append(exts, e.Extensions()...)
	}
	slices.Sort(exts)
	return exts
}

// File extracts the text of the file at path. The document source is the
// file's base name.
func File(ctx context.Context, path string) (*Document, error) {
	extractor, err := ForPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	text, err := extractor.Extract(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	return &Document{Source: filepath.Base(path), Text: text}, nil
}

// Reader extracts text from r using the extractor for name's extension.
func Reader(ctx context.Context, name string, r io.Reader) (*Document, error) {
	extractor, err := ForPath(name)
	if err != nil {
		return nil, err
	}
	text, err := extractor.Extract(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", name, err)
	}
	return &Document{Source: filepath.Base(name), Text: text}, nil
}

// PlainText passes text and markdown through unchanged apart from line
// ending normalisation.
type PlainText struct{}

func (PlainText) Extensions() []string {
	return []string{".txt", ".text", ".md", ".markdown", ".csv", ".log"}
}

func (PlainText) Extract(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrMalformedDocument)
	}
	text := strings.TrimPrefix(string(data), "\uFEFF")
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}
