package usecases

import (
	"regexp"
	"strings"

	"gitlab.com/golang-commonmark/markdown"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

var md = markdown.New(markdown.HTML(false), markdown.Linkify(false), markdown.Typographer(false))

var (
	numberingRe  = regexp.MustCompile(`(?i)^(?:use\s*case\s*#?\d+\s*[:.)\-]?|\d+[.):])\s*`)
	complexityRe = regexp.MustCompile(`(?i)complexity\s*(?:\([^)]*\))?\s*[:\-]\s*(low|medium|high)`)
	levelRe      = regexp.MustCompile(`(?i)\b(low|medium|high)\b`)
)

// fieldWords mark a bold list label as a property of a use case rather
// than a use case title.
var fieldWords = []string{
	"description", "problem", "benefit", "roi", "complexity", "prerequisite",
	"challenge", "reference", "similar", "priority", "impact", "timeline",
}

// Parse recovers use cases from the agent's Markdown. Level-2 headings are
// categories. Level-3 and deeper headings are use cases; when a category
// has none, its bold-led top-level list items are. The first paragraph
// after a title is its description and a "Complexity:" label sets its
// complexity.
func Parse(src string) []types.UseCase {
	p := &parser{}
	tokens := md.Parse([]byte(src))
	for i := 0; i < len(tokens); i++ {
		switch tok := tokens[i].(type) {
		case *markdown.HeadingOpen:
			text := ""
			if i+1 < len(tokens) {
				if in, ok := tokens[i+1].(*markdown.Inline); ok {
					text = plainText(in.Children)
					i++
				}
			}
			p.heading(tok.HLevel, text)
		case *markdown.BulletListOpen, *markdown.OrderedListOpen:
			p.listDepth++
		case *markdown.BulletListClose, *markdown.OrderedListClose:
			p.listDepth--
		case *markdown.Inline:
			p.paragraph(tok.Children)
		}
	}
	p.flush()
	return p.out
}

type parser struct {
	out       []types.UseCase
	category  string
	current   *types.UseCase
	listDepth int

	// headingCases is set once a use case heading appears in the category.
	headingCases bool
}

func (p *parser) heading(level int, text string) {
	switch {
	case level <= 1:
		p.flush()
	case level == 2:
		p.flush()
		p.category = cleanTitle(text)
		p.headingCases = false
	default:
		p.headingCases = true
		p.start(cleanTitle(text), "")
	}
}

func (p *parser) paragraph(children []markdown.Token) {
	text := plainText(children)
	lead, rest := splitLead(children)

	if lead != "" {
		label := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(lead, ":")))
		switch {
		case strings.Contains(label, "complexity"):
			if p.current != nil {
				p.current.Complexity = complexityOf(rest)
			}
		case label == "description":
			if p.current != nil && p.current.Description == "" {
				p.current.Description = rest
			}
		case p.listDepth == 1 && !p.headingCases && p.category != "" && !isField(label):
			p.start(cleanTitle(lead), rest)
		}
	} else if p.current != nil && p.current.Description == "" && p.listDepth == 0 {
		p.current.Description = text
	}

	if p.current != nil && p.current.Complexity == types.ComplexityUnknown {
		if m := complexityRe.FindStringSubmatch(text); m != nil {
			p.current.Complexity = types.Complexity(strings.ToLower(m[1]))
		}
	}
}

func (p *parser) start(title, description string) {
	p.flush()
	if title == "" {
		return
	}
	p.current = &types.UseCase{Title: title, Category: p.category, Description: description}
}

func (p *parser) flush() {
	if p.current != nil {
		p.out = append(p.out, *p.current)
		p.current = nil
	}
}

// splitLead returns the text of a leading strong span and the text after
// it with separator punctuation trimmed. lead is empty when the inline does
// not start with bold text.
func splitLead(children []markdown.Token) (lead, rest string) {
	// The parser emits an empty text token ahead of a leading emphasis.
	start := 0
	for start < len(children) {
		t, ok := children[start].(*markdown.Text)
		if !ok || strings.TrimSpace(t.Content) != "" {
			break
		}
		start++
	}
	if start >= len(children) {
		return "", ""
	}
	if _, ok := children[start].(*markdown.StrongOpen); !ok {
		return "", ""
	}
	for i := start + 1; i < len(children); i++ {
		if _, ok := children[i].(*markdown.StrongClose); ok {
			lead = strings.TrimSpace(plainText(children[start+1 : i]))
			rest = strings.TrimSpace(plainText(children[i+1:]))
			rest = strings.TrimSpace(strings.TrimLeft(rest, ":-–— "))
			return lead, rest
		}
	}
	return "", ""
}

// plainText concatenates the text content of inline tokens.
func plainText(tokens []markdown.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		switch t := t.(type) {
		case *markdown.Text:
			b.WriteString(t.Content)
		case *markdown.CodeInline:
			b.WriteString(t.Content)
		case *markdown.Softbreak, *markdown.Hardbreak:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = numberingRe.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.TrimSuffix(s, ":"))
}

func complexityOf(s string) types.Complexity {
	if m := levelRe.FindStringSubmatch(s); m != nil {
		return types.Complexity(strings.ToLower(m[1]))
	}
	return types.ComplexityUnknown
}

func isField(label string) bool {
	for _, word := range strings.FieldsFunc(label, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-' || r == '&'
	}) {
		for _, w := range fieldWords {
			if strings.HasPrefix(word, w) {
				return true
			}
		}
	}
	return false
}
