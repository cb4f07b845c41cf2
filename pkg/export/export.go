// Package export writes rendered reports to disk as Markdown and HTML.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Options controls which files Save writes.
type Options struct {
	// HTML also writes <name>.html.
	HTML bool

	// StripNonASCII removes emoji and other non-ASCII runes first.
	StripNonASCII bool
}

// Paths lists the files written by Save.
type Paths struct {
	Markdown string
	HTML     string
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Save writes the Markdown report to dir/<name>.md and, when requested,
// dir/<name>.html. dir is created if needed. A failure writing one file does
// not prevent the other; all failures are returned together.
func Save(dir, name, md string, opts Options) (*Paths, error) {
	if name == "" {
		return nil, fmt.Errorf("report name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	if opts.StripNonASCII {
		md = StripNonASCII(md)
	}

	var errs *multierror.Error
	paths := &Paths{}

	mdPath := filepath.Join(dir, name+".md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("writing markdown: %w", err))
	} else {
		paths.Markdown = mdPath
	}

	if opts.HTML {
		htmlPath := filepath.Join(dir, name+".html")
		html, err := ToHTML(md)
		if err == nil {
			err = os.WriteFile(htmlPath, html, 0o644)
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("writing html: %w", err))
		} else {
			paths.HTML = htmlPath
		}
	}

	return paths, errs.ErrorOrNil()
}

// ToHTML converts Markdown to a standalone HTML document.
func ToHTML(md string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Testwise-AI Report</title>\n</head>\n<body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")
	return doc.Bytes(), nil
}

var nonASCII = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
}))

// StripNonASCII removes every rune outside the ASCII range.
func StripNonASCII(s string) string {
	out, _, err := transform.String(nonASCII, s)
	if err != nil {
		return s
	}
	return out
}
