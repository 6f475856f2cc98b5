package render

import (
	"regexp"
	"strings"
)

var (
	docURLRe   = regexp.MustCompile(`^https?://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)(?:/\S*)?$`)
	docTitleRe = regexp.MustCompile(`^\[([^\]]+)\]\((https?://drive\.google\.com/file/d/([a-zA-Z0-9_-]+)(?:/[^\s)]*)?)\)$`)
)

// DocLink is one external document reference.
type DocLink struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
}

// PreviewURL is the embeddable viewer for the document.
func (d DocLink) PreviewURL() string {
	return "https://drive.google.com/file/d/" + d.FileID + "/preview"
}

// Label is the title, or a generic name when the link had none.
func (d DocLink) Label() string {
	if d.Title != "" {
		return d.Title
	}
	return "Document " + d.FileID
}

// MatchDocLink recognizes a line that is a bare document URL or a titled link to one.
func MatchDocLink(line string) (DocLink, bool) {
	line = strings.TrimSpace(line)
	if m := docURLRe.FindStringSubmatch(line); m != nil {
		return DocLink{FileID: m[1], URL: line}, true
	}
	if m := docTitleRe.FindStringSubmatch(line); m != nil {
		return DocLink{FileID: m[3], URL: m[2], Title: strings.TrimSpace(m[1])}, true
	}
	return DocLink{}, false
}

// Block is the unit the classification pass walks: a raw line, or a run of
// document links the grouping pass coalesced.
type Block struct {
	Line string
	Docs []DocLink
}

// Grouped reports whether b came out of the grouping pass.
func (b Block) Grouped() bool { return len(b.Docs) > 0 }

func (b Block) isBlank() bool { return !b.Grouped() && strings.TrimSpace(b.Line) == "" }

// docs returns the documents b contributes to a group, if any.
func (b Block) docs() ([]DocLink, bool) {
	if b.Grouped() {
		return b.Docs, true
	}
	if d, ok := MatchDocLink(b.Line); ok {
		return []DocLink{d}, true
	}
	return nil, false
}

// Lines splits content into ungrouped blocks.
func Lines(content string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	blocks := make([]Block, len(lines))
	for i, l := range lines {
		blocks[i] = Block{Line: l}
	}
	return blocks
}

// Group coalesces adjacent document links, tolerating blank lines between
// them. Blank lines after the last link of a run are kept. Lines inside
// fenced code are left alone. Group(Group(x)) equals Group(x).
func Group(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	inFence := false

	for i := 0; i < len(blocks); {
		b := blocks[i]

		if !b.Grouped() && isFence(b.Line) {
			inFence = !inFence
			out = append(out, b)
			i++
			continue
		}
		if inFence {
			out = append(out, b)
			i++
			continue
		}

		docs, ok := b.docs()
		if !ok {
			out = append(out, b)
			i++
			continue
		}

		group := append([]DocLink(nil), docs...)
		i++
		for i < len(blocks) {
			j := i
			for j < len(blocks) && blocks[j].isBlank() {
				j++
			}
			if j == len(blocks) {
				break
			}
			more, ok := blocks[j].docs()
			if !ok {
				break
			}
			group = append(group, more...)
			i = j + 1
		}
		out = append(out, Block{Docs: group})
	}
	return out
}

func isFence(line string) bool {
	return strings.HasPrefix(line, "```")
}
