// Package scrape reads web pages and returns their main content as Markdown.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/usecase-engine/internal/httputil"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

const defaultMaxContentLength = 1_000_000

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("only http and https URLs are supported")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("content is not HTML")
)

// Page is a fetched web page.
type Page struct {
	URL         string
	Title       string
	Description string
	SiteName    string
	Domain      string
	Markdown    string
}

// Scraper fetches pages over HTTP.
type Scraper struct {
	Client           *http.Client
	UserAgent        string
	MaxContentLength int64
}

// New returns a Scraper configured from cfg.
func New(cfg types.ScrapeConfig) *Scraper {
	return &Scraper{
		Client:           &http.Client{Timeout: cfg.Timeout},
		UserAgent:        cfg.UserAgent,
		MaxContentLength: cfg.MaxContentLength,
	}
}

// Fetch downloads rawURL and converts its main content to Markdown. At most
// MaxContentLength bytes of the body are read.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(rawURL))
	if err != nil {
		return Page{}, fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Page{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetching %s: HTTP %d", u, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		if mt != "text/html" && mt != "application/xhtml+xml" {
			return Page{}, fmt.Errorf("%w: %s", ErrNotHTML, mt)
		}
	}

	limit := s.MaxContentLength
	if limit <= 0 {
		limit = defaultMaxContentLength
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, limit))
	if err != nil {
		return Page{}, fmt.Errorf("parsing HTML: %w", err)
	}

	page := Page{URL: u.String(), Domain: u.Host}
	extractMetadata(doc, &page)

	md, err := htmltomarkdown.ConvertString(
		mainContent(doc),
		converter.WithDomain(u.Scheme+"://"+u.Host),
	)
	if err != nil {
		return Page{}, fmt.Errorf("converting to markdown: %w", err)
	}
	page.Markdown = cleanMarkdown(md)
	return page, nil
}

func extractMetadata(doc *goquery.Document, page *Page) {
	page.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	page.Description, _ = doc.Find("meta[name='description']").Attr("content")
	page.SiteName, _ = doc.Find("meta[property='og:site_name']").Attr("content")
}

// mainContent removes page chrome and returns the HTML of the first
// matching content container.
func mainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, noscript").Remove()
	for _, selector := range []string{"main", "article", "#content, #main", ".content, .main", "body"} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if h, err := sel.Html(); err == nil && strings.TrimSpace(h) != "" {
			return h
		}
	}
	h, _ := doc.Html()
	return h
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// cleanMarkdown trims trailing whitespace and collapses runs of blank lines.
func cleanMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(content) + "\n"
}

// Render formats a page as the text an agent reads.
func (p Page) Render() string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	fmt.Fprintf(&b, "URL: %s\n", p.URL)
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	b.WriteString("\n")
	b.WriteString(p.Markdown)
	return b.String()
}
