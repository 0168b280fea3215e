// Package docx reads and rewrites Word (.docx) packages. It covers exactly
// what the complaint pipeline needs: linearizing paragraph and table text
// for the extractor, and substituting placeholder tokens inside formatting
// runs for the template filler. The package is parsed with archive/zip plus
// a streaming XML decode of word/document.xml; no document features beyond
// paragraphs, runs and tables are interpreted.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedFormat marks input that is not a .docx package (for example
// a legacy .doc binary). Callers should tell the user to re-save as .docx.
var ErrUnsupportedFormat = errors.New("not a .docx document: save the file as .docx and retry")

const maxXMLDepth = 256

const documentEntry = "word/document.xml"

// Run is one uniformly-formatted text span inside a paragraph. start/end
// are byte offsets of the raw (still-escaped) text content within
// word/document.xml, so substitution can splice new text without touching
// any surrounding markup.
type Run struct {
	Text  string
	start int64
	end   int64
}

// Paragraph is a w:p element with its runs in document order. Paragraphs
// inside table cells are collected the same way; inTable only matters for
// text linearization.
type Paragraph struct {
	Runs    []Run
	inTable bool
}

// Text returns the paragraph's visible text, the concatenation of its runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Document is a parsed .docx package. It keeps the original package bytes
// so re-serialization can copy every untouched archive entry verbatim.
type Document struct {
	pkg        []byte
	docXML     []byte
	paragraphs []*Paragraph // every paragraph, body and table, in document order
	bodyLines  []string     // trimmed non-empty top-level paragraph text
	cellLines  []string     // trimmed non-empty table-cell text
}

// Parse opens a .docx package from memory. It returns ErrUnsupportedFormat
// when the bytes are not a ZIP archive or the archive has no
// word/document.xml entry.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == documentEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrUnsupportedFormat, documentEntry)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentEntry, err)
	}
	defer rc.Close()
	docXML, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", documentEntry, err)
	}

	d := &Document{pkg: data, docXML: docXML}
	if err := d.scan(); err != nil {
		return nil, err
	}
	return d, nil
}

// scan walks word/document.xml once, collecting paragraphs with run byte
// offsets and the linearized body/cell text.
func (d *Document) scan() error {
	dec := xml.NewDecoder(bytes.NewReader(d.docXML))

	var (
		depth    int
		tblDepth int
		para     *Paragraph
		run      *Run
		cells    []*[]string // stack of open table cells (nested tables flatten)
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: decode %s: %v", ErrUnsupportedFormat, documentEntry, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return fmt.Errorf("document.xml exceeds nesting depth %d", maxXMLDepth)
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tc":
				if tblDepth > 0 {
					cells = append(cells, &[]string{})
				}
			case "p":
				para = &Paragraph{inTable: tblDepth > 0}
			case "t":
				if para != nil {
					run = &Run{start: dec.InputOffset(), end: dec.InputOffset()}
				}
			}

		case xml.CharData:
			if run != nil {
				run.Text += string(t)
				run.end = dec.InputOffset()
			}

		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				if para != nil && run != nil {
					para.Runs = append(para.Runs, *run)
				}
				run = nil
			case "p":
				if para == nil {
					continue
				}
				d.paragraphs = append(d.paragraphs, para)
				text := para.Text()
				if len(cells) > 0 && para.inTable {
					cell := cells[len(cells)-1]
					*cell = append(*cell, text)
				} else if trimmed := strings.TrimSpace(text); trimmed != "" {
					d.bodyLines = append(d.bodyLines, trimmed)
				}
				para = nil
			case "tc":
				if len(cells) > 0 {
					cell := cells[len(cells)-1]
					cells = cells[:len(cells)-1]
					if trimmed := strings.TrimSpace(strings.Join(*cell, "\n")); trimmed != "" {
						d.cellLines = append(d.cellLines, trimmed)
					}
				}
			case "tbl":
				if tblDepth > 0 {
					tblDepth--
				}
			}
		}
	}
	return nil
}

// Lines returns the linearized text: body paragraphs in document order
// first, then table cells in document order. Tables always trail
// paragraphs; the two are deliberately not interleaved positionally.
func (d *Document) Lines() []string {
	lines := make([]string, 0, len(d.bodyLines)+len(d.cellLines))
	lines = append(lines, d.bodyLines...)
	lines = append(lines, d.cellLines...)
	return lines
}

// Text joins Lines with newlines into the single blob handed to the LLM.
func (d *Document) Text() string {
	return strings.Join(d.Lines(), "\n")
}

// ExtractText is the one-call form: parse a .docx package and linearize it.
func ExtractText(data []byte) (string, error) {
	d, err := Parse(data)
	if err != nil {
		return "", err
	}
	return d.Text(), nil
}
