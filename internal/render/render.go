// Package render turns article content into a node sequence.
//
// Content goes through two passes. The grouping pass coalesces runs of
// document links; the classification pass walks the remaining lines in a
// fixed priority order and expands placeholder lines against the resolved
// dashboards. Neither pass fails: unrecognized input becomes a paragraph.
package render

import (
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/folio/internal/domain"
	"github.com/MrSnakeDoc/folio/internal/metrics"
	"github.com/MrSnakeDoc/folio/internal/placeholder"
)

var (
	videoRe = regexp.MustCompile(`^https?://(?:(?:www\.|m\.)?youtube\.com/(?:watch\?(?:\S*&)?v=|shorts/|embed/)|youtu\.be/)([a-zA-Z0-9_-]{11})(?:[?&#]\S*)?$`)
	imageRe = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)\)$`)
)

// State is what the renderer knows about dashboard resolution.
type State struct {
	// Pending is true while the resolution for this content is in flight.
	Pending    bool
	Dashboards []domain.Dashboard
}

func (s State) lookup(id string) (domain.Dashboard, bool) {
	for _, d := range s.Dashboards {
		if d.DashboardID == id {
			return d, true
		}
	}
	return domain.Dashboard{}, false
}

// Render runs both passes over content and records node counts.
func Render(content string, st State) Nodes {
	nodes := Parse(content, st)
	for kind, n := range nodes.Counts() {
		metrics.ObserveRenderNodes(kind, n)
	}
	return nodes
}

// Parse runs both passes without side effects. Re-running it with the same
// input yields the same nodes.
func Parse(content string, st State) Nodes {
	return Classify(Group(Lines(content)), st)
}

// Classify is the main pass over grouped blocks.
func Classify(blocks []Block, st State) Nodes {
	nodes := make(Nodes, 0, len(blocks))

	for i := 0; i < len(blocks); {
		b := blocks[i]

		// 1. document run from the grouping pass
		if b.Grouped() {
			if len(b.Docs) == 1 {
				nodes = append(nodes, DocumentNode{Doc: b.Docs[0]})
			} else {
				nodes = append(nodes, DocumentGroupNode{Docs: b.Docs})
			}
			i++
			continue
		}

		line := b.Line

		// 2. heading
		if n, ok := heading(line); ok {
			nodes = append(nodes, n)
			i++
			continue
		}

		// 3. placeholder
		if id, ok := placeholder.MatchLine(line); ok {
			nodes = append(nodes, Expand(id, st)...)
			i++
			continue
		}

		// 4. fenced code
		if isFence(line) {
			n, next := fenced(blocks, i)
			nodes = append(nodes, n)
			i = next
			continue
		}

		// 5. quote
		if rest, ok := strings.CutPrefix(line, "> "); ok {
			nodes = append(nodes, QuoteNode{Inline: ParseInline(rest)})
			i++
			continue
		}

		// 6. list
		if _, ok := listItem(line); ok {
			n, next := list(blocks, i)
			nodes = append(nodes, n)
			i = next
			continue
		}

		// 7. video, image or paragraph
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			nodes = append(nodes, inlineBlock(trimmed))
			i++
			continue
		}

		// 8. blank
		nodes = append(nodes, LineBreakNode{})
		i++
	}
	return nodes
}

// Expand turns one placeholder occurrence into nodes.
func Expand(id string, st State) []Node {
	if st.Pending {
		return []Node{LoadingNode{DashboardID: id}}
	}

	d, ok := st.lookup(id)
	if !ok || !d.Renderable() {
		return []Node{WarningNode{DashboardID: id}}
	}

	charts := d.ChartsToRender()
	if !anyValid(charts) {
		return []Node{WarningNode{DashboardID: id}}
	}

	out := make([]Node, 0, len(charts))
	for i, c := range charts {
		out = append(out, EmbedNode{
			DashboardID: d.DashboardID,
			StorageID:   d.ID,
			URL:         c.URL,
			Title:       d.ChartTitle(c, i+1, len(charts)),
			Description: c.Description,
			Index:       i + 1,
			Total:       len(charts),
		})
	}
	return out
}

func anyValid(charts []domain.Chart) bool {
	for _, c := range charts {
		if domain.IsValidEmbedURL(c.URL) {
			return true
		}
	}
	return false
}

func heading(line string) (HeadingNode, bool) {
	for level, prefix := range []string{"# ", "## ", "### "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return HeadingNode{Level: level + 1, Text: strings.TrimSpace(rest)}, true
		}
	}
	return HeadingNode{}, false
}

// fenced captures from the opening fence at blocks[i] to the closing fence,
// which is consumed. Without a closing fence the rest of the input is code.
func fenced(blocks []Block, i int) (CodeNode, int) {
	lang := strings.TrimSpace(strings.TrimPrefix(blocks[i].Line, "```"))
	var body []string
	for j := i + 1; j < len(blocks); j++ {
		line := blocks[j].Line
		if isFence(line) {
			return CodeNode{Lang: lang, Code: strings.Join(body, "\n"), Closed: true}, j + 1
		}
		body = append(body, line)
	}
	return CodeNode{Lang: lang, Code: strings.Join(body, "\n")}, len(blocks)
}

func listItem(line string) (string, bool) {
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return rest, true
	}
	if rest, ok := strings.CutPrefix(line, "* "); ok {
		return rest, true
	}
	return "", false
}

func list(blocks []Block, i int) (ListNode, int) {
	var items [][]Span
	for ; i < len(blocks); i++ {
		if blocks[i].Grouped() {
			break
		}
		item, ok := listItem(blocks[i].Line)
		if !ok {
			break
		}
		items = append(items, ParseInline(item))
	}
	return ListNode{Items: items}, i
}

func inlineBlock(line string) Node {
	if m := videoRe.FindStringSubmatch(line); m != nil {
		return VideoNode{URL: line, VideoID: m[1]}
	}
	if m := imageRe.FindStringSubmatch(line); m != nil {
		return ImageNode{Alt: m[1], URL: m[2]}
	}
	return ParagraphNode{Inline: ParseInline(line)}
}
