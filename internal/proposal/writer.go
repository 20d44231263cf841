package proposal

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/golang-commonmark/markdown"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

const (
	fileTimestamp   = "20060102_150405"
	footerTimestamp = "2006-01-02 15:04:05"
)

var md = markdown.New(
	markdown.HTML(true),
	markdown.Linkify(true),
	markdown.Tables(true),
	markdown.Typographer(false),
	markdown.XHTMLOutput(true),
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>AI Use Case Proposal for {{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 900px; margin: 0 auto; padding: 20px; }
        h1 { color: #2c3e50; }
        h2 { color: #3498db; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        h3 { color: #2980b9; }
        a { color: #3498db; text-decoration: none; }
        a:hover { text-decoration: underline; }
        .resource { background-color: #f8f9fa; padding: 10px; border-radius: 5px; margin-bottom: 10px; }
        .use-case { border-left: 4px solid #3498db; padding-left: 15px; margin-bottom: 20px; }
    </style>
</head>
<body>
    <h1>AI/GenAI Implementation Proposal for {{.Subject}}</h1>
    {{.Body}}
    <footer>
        <p>Generated on {{.Generated}}</p>
    </footer>
</body>
</html>
`))

// Writer saves proposals to a directory.
type Writer struct {
	// Dir is created if missing. Empty means the working directory.
	Dir string
}

// Write saves p as <slug>_<YYYYMMDD_HHMMSS>_proposal.md and .html, using
// now for both the file names and the HTML footer.
func (w *Writer) Write(p *types.Proposal, now time.Time) (types.ProposalFiles, error) {
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.ProposalFiles{}, fmt.Errorf("creating output directory: %w", err)
	}

	base := filepath.Join(dir, FileBase(p.CompanyOrIndustry, now))
	files := types.ProposalFiles{Markdown: base + ".md", HTML: base + ".html"}

	if err := os.WriteFile(files.Markdown, []byte(p.Markdown), 0o644); err != nil {
		return types.ProposalFiles{}, fmt.Errorf("writing markdown: %w", err)
	}
	page, err := RenderHTML(p.CompanyOrIndustry, p.Markdown, now)
	if err != nil {
		return types.ProposalFiles{}, err
	}
	if err := os.WriteFile(files.HTML, page, 0o644); err != nil {
		return types.ProposalFiles{}, fmt.Errorf("writing html: %w", err)
	}
	return files, nil
}

// FileBase returns the file name of a proposal without extension.
func FileBase(subject string, now time.Time) string {
	return Slug(subject) + "_" + now.Format(fileTimestamp) + "_proposal"
}

// RenderHTML renders the proposal Markdown inside the report page.
func RenderHTML(subject, markdownText string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		Subject   string
		Body      template.HTML
		Generated string
	}{
		Subject:   subject,
		Body:      template.HTML(md.RenderToString([]byte(markdownText))),
		Generated: now.Format(footerTimestamp),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return buf.Bytes(), nil
}
