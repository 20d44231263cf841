package resources

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"gitlab.com/golang-commonmark/markdown"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

const defaultConcurrency = 8

var md = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(false))

// ExtractLinks returns every http(s) link in src, explicit or bare, in
// document order without duplicates.
func ExtractLinks(src string) []types.Link {
	var links []types.Link
	seen := make(map[string]bool)
	for _, tok := range md.Parse([]byte(src)) {
		in, ok := tok.(*markdown.Inline)
		if !ok {
			continue
		}
		collectLinks(in.Children, seen, &links)
	}
	return links
}

func collectLinks(children []markdown.Token, seen map[string]bool, links *[]types.Link) {
	for i := 0; i < len(children); i++ {
		open, ok := children[i].(*markdown.LinkOpen)
		if !ok {
			continue
		}
		var text strings.Builder
		for i++; i < len(children); i++ {
			if _, closed := children[i].(*markdown.LinkClose); closed {
				break
			}
			switch t := children[i].(type) {
			case *markdown.Text:
				text.WriteString(t.Content)
			case *markdown.CodeInline:
				text.WriteString(t.Content)
			}
		}
		href := strings.TrimSpace(open.Href)
		if !isHTTP(href) || seen[href] {
			continue
		}
		seen[href] = true
		*links = append(*links, types.Link{
			URL:    href,
			Text:   strings.TrimSpace(text.String()),
			Status: types.LinkUnchecked,
		})
	}
}

func isHTTP(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// CheckLinks validates links concurrently, at most concurrency at a time.
// Each link is tried with HEAD, falling back to GET when the server does not
// allow HEAD. A status below 400 is ok; anything else, including a network
// error, is broken. The input slice is not modified.
func CheckLinks(ctx context.Context, client *http.Client, links []types.Link, concurrency int) []types.Link {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	out := make([]types.Link, len(links))
	copy(out, links)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	for i := range out {
		wg.Add(1)
		go func(l *types.Link) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			code := probe(ctx, client, l.URL)
			l.StatusCode = code
			if code > 0 && code < 400 {
				l.Status = types.LinkOK
			} else {
				l.Status = types.LinkBroken
			}
		}(&out[i])
	}
	wg.Wait()
	return out
}

// probe returns the final HTTP status for u, or 0 when the request fails.
func probe(ctx context.Context, client *http.Client, u string) int {
	code, err := request(ctx, client, http.MethodHead, u)
	if err == nil && code != http.StatusMethodNotAllowed && code != http.StatusNotImplemented {
		return code
	}
	code, err = request(ctx, client, http.MethodGet, u)
	if err != nil {
		return 0
	}
	return code
}

func request(ctx context.Context, client *http.Client, method, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}
