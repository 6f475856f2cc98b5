package render

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/folio/internal/render/embed"
)

// HTMLOptions control the HTML writer.
type HTMLOptions struct {
	Embed embed.Options
	// EagerEmbeds mounts frames immediately instead of on visibility.
	EagerEmbeds bool
	// HydratePath prefixes the URL loading skeletons poll, e.g. "/embeds/".
	// Empty disables hydration.
	HydratePath string
}

// WriteHTML writes nodes as an HTML fragment. A failure to write one node
// aborts; a node whose content is unusable renders an inline diagnostic.
func WriteHTML(w io.Writer, nodes Nodes, opts HTMLOptions) error {
	var b strings.Builder
	for _, n := range nodes {
		if err := writeNode(&b, n, opts); err != nil {
			return err
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML is WriteHTML into a string.
func HTML(nodes Nodes, opts HTMLOptions) string {
	var b strings.Builder
	_ = WriteHTML(&b, nodes, opts)
	return b.String()
}

func writeNode(b *strings.Builder, n Node, opts HTMLOptions) error {
	esc := html.EscapeString

	switch n := n.(type) {
	case HeadingNode:
		fmt.Fprintf(b, "<h%d>%s</h%d>", n.Level, esc(n.Text), n.Level)

	case CodeNode:
		class := ""
		if n.Lang != "" {
			class = ` class="language-` + esc(n.Lang) + `"`
		}
		fmt.Fprintf(b, "<pre><code%s>%s</code></pre>", class, esc(n.Code))

	case QuoteNode:
		b.WriteString("<blockquote>" + InlineHTML(n.Inline) + "</blockquote>")

	case ListNode:
		b.WriteString("<ul>")
		for _, item := range n.Items {
			b.WriteString("<li>" + InlineHTML(item) + "</li>")
		}
		b.WriteString("</ul>")

	case ImageNode:
		writeImage(b, n)

	case VideoNode:
		fmt.Fprintf(b,
			`<div class="video"><iframe src="%s" title="Video" sandbox="allow-scripts allow-same-origin allow-presentation allow-popups" loading="lazy" referrerpolicy="strict-origin-when-cross-origin" allowfullscreen></iframe>`+
				`<div class="video-restricted">If the video does not play, embedding may be restricted. <a href="%s" target="_blank" rel="noopener noreferrer">Watch on YouTube</a></div></div>`,
			esc(n.EmbedURL()), esc(n.URL))

	case DocumentNode:
		fmt.Fprintf(b,
			`<figure class="document"><iframe src="%s" title="%s" sandbox="allow-scripts allow-same-origin allow-popups" loading="lazy"></iframe><figcaption><a href="%s" target="_blank" rel="noopener noreferrer">%s</a></figcaption></figure>`,
			esc(n.Doc.PreviewURL()), esc(n.Doc.Label()), esc(n.Doc.URL), esc(n.Doc.Label()))

	case DocumentGroupNode:
		fmt.Fprintf(b, `<ul class="document-group" data-count="%d">`, len(n.Docs))
		for _, d := range n.Docs {
			fmt.Fprintf(b, `<li><a href="%s" target="_blank" rel="noopener noreferrer">%s</a></li>`, esc(d.URL), esc(d.Label()))
		}
		b.WriteString("</ul>")

	case LoadingNode:
		hydrate := ""
		if opts.HydratePath != "" {
			hydrate = ` data-hydrate="` + esc(opts.HydratePath+url.PathEscape(n.DashboardID)) + `"`
		}
		fmt.Fprintf(b, `<div class="embed-skeleton" role="status" data-dashboard-id="%s"%s>Loading dashboard…</div>`,
			esc(n.DashboardID), hydrate)

	case WarningNode:
		fmt.Fprintf(b, `<div class="embed-warning" role="alert">Dashboard <code>%s</code> is unavailable.</div>`, esc(n.DashboardID))

	case EmbedNode:
		return embed.Write(b, frameFor(n, opts), opts.Embed)

	case ParagraphNode:
		b.WriteString("<p>" + InlineHTML(n.Inline) + "</p>")

	case LineBreakNode:
		b.WriteString("<br>")

	default:
		return fmt.Errorf("render: unknown node %T", n)
	}
	return nil
}

func frameFor(n EmbedNode, opts HTMLOptions) embed.Frame {
	return embed.Frame{
		URL:     n.URL,
		Title:   n.Title,
		Caption: n.Description,
		Eager:   opts.EagerEmbeds,
		Debug: &embed.Debug{
			DashboardID: n.DashboardID,
			StorageID:   n.StorageID,
			Title:       n.Title,
			ChartIndex:  n.Index,
			ChartCount:  n.Total,
		},
	}
}

// writeImage emits the image plus a hidden broken-image block the page
// script swaps in on load error.
func writeImage(b *strings.Builder, n ImageNode) {
	esc := html.EscapeString
	b.WriteString(`<figure class="image">`)
	fmt.Fprintf(b, `<img src="%s" alt="%s" loading="lazy" onerror="this.hidden=true;this.nextElementSibling.hidden=false">`, esc(n.URL), esc(n.Alt))
	fmt.Fprintf(b, `<div class="image-broken" role="img" aria-label="Image failed to load" hidden>Image failed to load: <code>%s</code></div>`, esc(n.URL))
	if n.Alt != "" {
		fmt.Fprintf(b, "<figcaption>%s</figcaption>", esc(n.Alt))
	}
	b.WriteString("</figure>")
}
