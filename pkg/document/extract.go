// Package document turns uploaded resume and job-description files into
// plain text for the extractor agent.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Extractor returns the plain text held in data.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, filename string, data []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	return f(ctx, filename, data)
}

// ErrUnsupported is returned for file types with no registered extractor.
var ErrUnsupported = errors.New("unsupported document type")

// Registry dispatches on the lower-cased file extension.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Extractor{}}
}

// Register binds ext (with or without the leading dot) to e.
func (r *Registry) Register(ext string, e Extractor) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.byExt[ext] = e
}

func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.byExt[ext]
	if !ok {
		if ext == "" {
			return "", fmt.Errorf("%w: %q has no extension", ErrUnsupported, filename)
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.Extract(ctx, filename, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	return text, nil
}

// Default returns a registry with the built-in extractors: plain text for
// .txt and .md, markup stripping for .html and .htm.
func Default() *Registry {
	r := NewRegistry()
	r.Register(".txt", ExtractorFunc(Text))
	r.Register(".md", ExtractorFunc(Text))
	r.Register(".html", ExtractorFunc(HTML))
	r.Register(".htm", ExtractorFunc(HTML))
	return r
}

// Text validates data as UTF-8 and normalises line endings.
func Text(_ context.Context, _ string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8 text")
	}
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSpace(s), nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
}

// HTML returns the visible text of an HTML document, one block per line.
func HTML(_ context.Context, _ string, data []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(data))
	var (
		sb    strings.Builder
		skip  int
		lines []string
	)
	flush := func() {
		if line := strings.Join(strings.Fields(sb.String()), " "); line != "" {
			lines = append(lines, line)
		}
		sb.Reset()
	}
	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.Join(lines, "\n"), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockTags[tag] {
				flush()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				flush()
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}
