// Package report writes a small markdown document: headings, paragraphs,
// fenced JSON and two-column tables.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one line of a two-column table.
type Row struct {
	Left, Right string
}

// Report accumulates markdown in memory.
type Report struct {
	path string
	buf  bytes.Buffer
}

// New creates a report that WriteFile saves to path.
func New(path string) *Report {
	return &Report{path: path}
}

// Path returns the output file path.
func (r *Report) Path() string { return r.path }

// H1 writes a level 1 heading.
func (r *Report) H1(text string) { r.heading(1, text) }

// H2 writes a level 2 heading.
func (r *Report) H2(text string) { r.heading(2, text) }

// H3 writes a level 3 heading.
func (r *Report) H3(text string) { r.heading(3, text) }

// H4 writes a level 4 heading.
func (r *Report) H4(text string) { r.heading(4, text) }

func (r *Report) heading(level int, text string) {
	fmt.Fprintf(&r.buf, "%s %s\n\n", strings.Repeat("#", level), oneLine(text))
}

// Text writes a paragraph.
func (r *Report) Text(text string) {
	r.buf.WriteString(strings.TrimSpace(text))
	r.buf.WriteString("\n\n")
}

// JSON writes raw as an indented fenced json block. Invalid JSON is written as is.
func (r *Report) JSON(raw []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		out.Reset()
		out.Write(bytes.TrimSpace(raw))
	}
	r.buf.WriteString("```json\n")
	r.buf.Write(out.Bytes())
	r.buf.WriteString("\n```\n\n")
}

// Table writes a two-column table. Pipes in cells are escaped.
func (r *Report) Table(left, right string, rows []Row) {
	fmt.Fprintf(&r.buf, "| %s | %s |\n|---|---|\n", cell(left), cell(right))
	for _, row := range rows {
		fmt.Fprintf(&r.buf, "| %s | %s |\n", cell(row.Left), cell(row.Right))
	}
	r.buf.WriteString("\n")
}

// String returns the markdown written so far.
func (r *Report) String() string { return r.buf.String() }

// WriteTo writes the markdown to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.buf.Bytes())
	return int64(n), err
}

// WriteFile saves the markdown to the report path.
func (r *Report) WriteFile() error {
	if r.path == "" {
		return fmt.Errorf("report path is empty")
	}
	if err := os.WriteFile(r.path, r.buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func cell(s string) string {
	s = oneLine(s)
	if s == "" {
		return " "
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
