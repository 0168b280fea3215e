package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// Fill substitutes placeholder tokens in a .docx template and returns the
// rewritten package. A token is replaced inside each run whose own text
// contains it, and only in paragraphs whose visible text contains the token;
// a token split across runs by formatting boundaries is left literal.
// Every archive entry other than word/document.xml, and every run that
// matched no token, is carried over byte for byte.
func Fill(template []byte, replacements map[string]string) ([]byte, error) {
	d, err := Parse(template)
	if err != nil {
		return nil, err
	}
	docXML, err := d.substitute(replacements)
	if err != nil {
		return nil, err
	}
	return d.rebuild(docXML)
}

// edit is one pending splice into word/document.xml: the raw byte span of a
// run's text, and the escaped replacement for that span.
type edit struct {
	start int64
	end   int64
	raw   []byte
}

// substitute applies the replacement map to every paragraph and returns a
// new word/document.xml. Token order is fixed by sorting so that results do
// not depend on map iteration.
func (d *Document) substitute(replacements map[string]string) ([]byte, error) {
	tokens := make([]string, 0, len(replacements))
	for tok := range replacements {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	var edits []edit
	for _, p := range d.paragraphs {
		paraText := p.Text()
		texts := make([]string, len(p.Runs))
		modified := make([]bool, len(p.Runs))
		for i, r := range p.Runs {
			texts[i] = r.Text
		}
		for _, tok := range tokens {
			if !strings.Contains(paraText, tok) {
				continue
			}
			for i := range texts {
				if strings.Contains(texts[i], tok) {
					texts[i] = strings.ReplaceAll(texts[i], tok, replacements[tok])
					modified[i] = true
				}
			}
		}
		for i, r := range p.Runs {
			if !modified[i] {
				continue
			}
			raw, err := escapeText(texts[i])
			if err != nil {
				return nil, fmt.Errorf("escape run text: %w", err)
			}
			edits = append(edits, edit{start: r.start, end: r.end, raw: raw})
		}
	}

	if len(edits) == 0 {
		return d.docXML, nil
	}

	// Splice back to front so earlier offsets stay valid.
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := make([]byte, len(d.docXML))
	copy(out, d.docXML)
	for _, e := range edits {
		var spliced []byte
		spliced = append(spliced, out[:e.start]...)
		spliced = append(spliced, e.raw...)
		spliced = append(spliced, out[e.end:]...)
		out = spliced
	}
	return out, nil
}

// rebuild writes a new package with the given word/document.xml, copying
// every other entry verbatim from the original archive.
func (d *Document) rebuild(docXML []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(d.pkg), int64(len(d.pkg)))
	if err != nil {
		return nil, fmt.Errorf("reopen package: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name == documentEntry {
			w, err := zw.CreateHeader(&zip.FileHeader{
				Name:     f.Name,
				Method:   zip.Deflate,
				Modified: f.Modified,
			})
			if err != nil {
				return nil, fmt.Errorf("write %s: %w", documentEntry, err)
			}
			if _, err := w.Write(docXML); err != nil {
				return nil, fmt.Errorf("write %s: %w", documentEntry, err)
			}
			continue
		}
		if err := zw.Copy(f); err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeText(s string) ([]byte, error) {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
