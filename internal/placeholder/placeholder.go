// Package placeholder finds {{embed_query:<id>}} tokens in article content.
//
// Extraction scans the whole text; block recognition only accepts a token
// that makes up an entire trimmed line.
package placeholder

import (
	"regexp"
	"strings"
)

var (
	tokenRe = regexp.MustCompile(`\{\{embed_query:([a-zA-Z0-9_-]+)\}\}`)
	lineRe  = regexp.MustCompile(`^\{\{embed_query:([a-zA-Z0-9_-]+)\}\}$`)
)

// Token is one placeholder occurrence in the source text.
type Token struct {
	Raw   string // matched text, braces included
	ID    string // referenced dashboard identifier
	Start int    // byte offset of the first brace
	End   int    // byte offset just past the closing braces
}

// FindTokens returns every non-overlapping token in source order.
func FindTokens(content string) []Token {
	matches := tokenRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{
			Raw:   content[m[0]:m[1]],
			ID:    content[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
		})
	}
	return tokens
}

// ExtractIdentifiers returns the referenced identifiers in first-seen order,
// without duplicates. It never returns nil.
func ExtractIdentifiers(content string) []string {
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, tok := range FindTokens(content) {
		if _, ok := seen[tok.ID]; ok {
			continue
		}
		seen[tok.ID] = struct{}{}
		ids = append(ids, tok.ID)
	}
	return ids
}

// MatchLine reports whether line, once trimmed, is exactly one placeholder
// token, and returns its identifier.
func MatchLine(line string) (string, bool) {
	m := lineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Format builds the token text for id.
func Format(id string) string {
	return "{{embed_query:" + id + "}}"
}
