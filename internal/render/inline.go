package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Span kinds.
const (
	SpanText   = "text"
	SpanBold   = "bold"
	SpanItalic = "italic"
	SpanCode   = "code"
	SpanLink   = "link"
)

// Span is one run of inline text.
type Span struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

// Alternatives are tried leftmost first, so at any position bold beats italic.
var inlineRe = regexp.MustCompile(
	`\*\*([^*]+)\*\*` + // 1 bold
		`|\*([^*]+)\*` + // 2 italic
		"|`([^`]+)`" + // 3 code
		`|\[([^\]]+)\]\(([^)\s]+)\)`, // 4 text, 5 href
)

// ParseInline splits text into spans. Replacements never overlap: each
// match consumes its text and the scan resumes after it.
func ParseInline(text string) []Span {
	matches := inlineRe.FindAllStringSubmatchIndex(text, -1)
	spans := make([]Span, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			spans = append(spans, Span{Kind: SpanText, Text: text[last:m[0]]})
		}
		switch {
		case m[2] >= 0:
			spans = append(spans, Span{Kind: SpanBold, Text: text[m[2]:m[3]]})
		case m[4] >= 0:
			spans = append(spans, Span{Kind: SpanItalic, Text: text[m[4]:m[5]]})
		case m[6] >= 0:
			spans = append(spans, Span{Kind: SpanCode, Text: text[m[6]:m[7]]})
		case m[8] >= 0:
			spans = append(spans, Span{Kind: SpanLink, Text: text[m[8]:m[9]], Href: text[m[10]:m[11]]})
		}
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Kind: SpanText, Text: text[last:]})
	}
	return spans
}

// inlinePolicy is the final gate on generated inline markup. It drops
// unsafe link schemes such as javascript:.
var inlinePolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// InlineHTML renders spans as sanitized HTML.
func InlineHTML(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		text := html.EscapeString(s.Text)
		switch s.Kind {
		case SpanBold:
			b.WriteString("<strong>" + text + "</strong>")
		case SpanItalic:
			b.WriteString("<em>" + text + "</em>")
		case SpanCode:
			b.WriteString("<code>" + text + "</code>")
		case SpanLink:
			b.WriteString(`<a href="` + html.EscapeString(s.Href) + `">` + text + "</a>")
		default:
			b.WriteString(text)
		}
	}
	return inlinePolicy.Sanitize(b.String())
}

// PlainText joins the span texts without markup.
func PlainText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
