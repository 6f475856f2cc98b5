package render

import (
	"encoding/json"
	"fmt"
)

// Node kinds, also used as metric labels.
const (
	KindHeading       = "heading"
	KindCode          = "code"
	KindQuote         = "quote"
	KindList          = "list"
	KindImage         = "image"
	KindVideo         = "video"
	KindDocument      = "document"
	KindDocumentGroup = "document_group"
	KindLoading       = "loading"
	KindWarning       = "warning"
	KindEmbed         = "embed"
	KindParagraph     = "paragraph"
	KindLineBreak     = "line_break"
)

// Node is one renderable block.
type Node interface {
	Kind() string
}

// HeadingNode is a `#`, `##` or `###` heading.
type HeadingNode struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// CodeNode is a fenced block captured verbatim. Closed is false when the
// input ended before a closing fence.
type CodeNode struct {
	Lang   string `json:"lang,omitempty"`
	Code   string `json:"code"`
	Closed bool   `json:"closed"`
}

// QuoteNode is a `> ` blockquote line.
type QuoteNode struct {
	Inline []Span `json:"inline"`
}

// ListNode collects consecutive `- ` or `* ` items.
type ListNode struct {
	Items [][]Span `json:"items"`
}

// ImageNode falls back to a broken-image block naming URL when it fails to load.
type ImageNode struct {
	Alt string `json:"alt,omitempty"`
	URL string `json:"url"`
}

// VideoNode embeds a hosted video; the player links out when embedding is refused.
type VideoNode struct {
	URL     string `json:"url"`
	VideoID string `json:"video_id"`
}

// EmbedURL is the privacy-enhanced player URL.
func (v VideoNode) EmbedURL() string {
	return "https://www.youtube-nocookie.com/embed/" + v.VideoID
}

// DocumentNode previews a single Google Drive document.
type DocumentNode struct {
	Doc DocLink `json:"doc"`
}

// DocumentGroupNode lists two or more adjacent Drive documents.
type DocumentGroupNode struct {
	Docs []DocLink `json:"docs"`
}

// LoadingNode stands in for a placeholder while resolution is pending.
type LoadingNode struct {
	DashboardID string `json:"dashboard_id"`
}

// WarningNode names a placeholder that could not be expanded.
type WarningNode struct {
	DashboardID string `json:"dashboard_id"`
}

// EmbedNode is one chart of a resolved dashboard.
type EmbedNode struct {
	DashboardID string `json:"dashboard_id"`
	StorageID   string `json:"id,omitempty"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index"` // 1-based
	Total       int    `json:"total"`
}

// ParagraphNode is a text line with inline formatting applied.
type ParagraphNode struct {
	Inline []Span `json:"inline"`
}

// LineBreakNode stands for an empty line.
type LineBreakNode struct{}

func (HeadingNode) Kind() string       { return KindHeading }
func (CodeNode) Kind() string          { return KindCode }
func (QuoteNode) Kind() string         { return KindQuote }
func (ListNode) Kind() string          { return KindList }
func (ImageNode) Kind() string         { return KindImage }
func (VideoNode) Kind() string         { return KindVideo }
func (DocumentNode) Kind() string      { return KindDocument }
func (DocumentGroupNode) Kind() string { return KindDocumentGroup }
func (LoadingNode) Kind() string       { return KindLoading }
func (WarningNode) Kind() string       { return KindWarning }
func (EmbedNode) Kind() string         { return KindEmbed }
func (ParagraphNode) Kind() string     { return KindParagraph }
func (LineBreakNode) Kind() string     { return KindLineBreak }

// Nodes is a rendered document. It encodes as [{"kind": ..., "node": {...}}].
type Nodes []Node

func (ns Nodes) MarshalJSON() ([]byte, error) {
	type tagged struct {
		Kind string `json:"kind"`
		Node Node   `json:"node"`
	}
	out := make([]tagged, 0, len(ns))
	for _, n := range ns {
		if n == nil {
			return nil, fmt.Errorf("nil node")
		}
		out = append(out, tagged{Kind: n.Kind(), Node: n})
	}
	return json.Marshal(out)
}

// Counts returns the number of nodes per kind.
func (ns Nodes) Counts() map[string]int {
	counts := make(map[string]int)
	for _, n := range ns {
		counts[n.Kind()]++
	}
	return counts
}
