// Package embed renders one external analytics URL as a sandboxed frame.
//
// The markup is inert until the bundled script mounts it: lazy frames carry
// only data-src and get their src once the container nears the viewport.
package embed

import (
	_ "embed"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/folio/internal/domain"
)

// Sandbox is the iframe sandbox attribute applied to every frame.
const Sandbox = "allow-scripts allow-same-origin allow-popups allow-popups-to-escape-sandbox"

// RootMargin is the viewport lookahead the mount script observes with.
const RootMargin = "200px"

// Script is the client side of the state machine, served at /static/embed.js.
//
//go:embed assets/embed.js
var Script []byte

// Validate checks raw against the analytics allow-list.
// It is the same rule the admin API applies on input.
func Validate(raw string) error {
	return domain.ValidateEmbedURL(raw)
}

// Debug holds the identifying fields dumped in development mode.
type Debug struct {
	DashboardID string
	StorageID   string
	Title       string
	ChartIndex  int
	ChartCount  int
}

// Frame describes one embed to render.
type Frame struct {
	URL     string
	Title   string
	Caption string
	// Eager disables lazy mounting; the frame gets its src immediately.
	Eager bool
	Debug *Debug
}

// Options control how frames are written.
type Options struct {
	// Dev enables the collapsible debug panel.
	Dev bool
	// Grace is how long the spinner stays after the frame reports load.
	Grace int // milliseconds
}

// DefaultOptions returns production options with the 300ms grace delay.
func DefaultOptions() Options {
	return Options{Grace: int(GraceDelay.Milliseconds())}
}

// Write renders f. An invalid URL produces an inline error block with no
// frame, so the browser never requests it.
func Write(w io.Writer, f Frame, opts Options) error {
	if err := Validate(f.URL); err != nil {
		_, werr := fmt.Fprintf(w,
			`<div class="embed embed-invalid" role="alert"><strong>Embed unavailable</strong><p>%s</p><code>%s</code></div>`,
			html.EscapeString(errorMessage(err)), html.EscapeString(f.URL))
		return werr
	}

	var b strings.Builder
	state := Initial(!f.Eager)
	title := f.Title
	if title == "" {
		title = "Embedded dashboard"
	}

	b.WriteString(`<figure class="embed" data-embed`)
	attr(&b, "data-embed-state", state.String())
	attr(&b, "data-embed-grace", strconv.Itoa(opts.Grace))
	attr(&b, "data-embed-root-margin", RootMargin)
	b.WriteString(`>`)

	b.WriteString(`<div class="embed-chrome">`)
	b.WriteString(`<div class="embed-idle" aria-hidden="true"></div>`)
	b.WriteString(`<div class="embed-spinner" role="status" aria-live="polite">Loading dashboard…</div>`)
	b.WriteString(`<div class="embed-error" role="alert" hidden><p>This dashboard failed to load.</p>`)
	b.WriteString(`<button type="button" data-embed-retry>Retry</button></div>`)
	b.WriteString(`</div>`)

	b.WriteString(`<iframe`)
	attr(&b, "title", title)
	if f.Eager {
		attr(&b, "src", f.URL)
	} else {
		attr(&b, "data-src", f.URL)
	}
	attr(&b, "sandbox", Sandbox)
	attr(&b, "referrerpolicy", "no-referrer")
	attr(&b, "loading", "lazy")
	b.WriteString(` allowfullscreen></iframe>`)

	if f.Caption != "" {
		b.WriteString(`<figcaption>`)
		b.WriteString(html.EscapeString(f.Caption))
		b.WriteString(`</figcaption>`)
	}

	if opts.Dev && f.Debug != nil {
		writeDebug(&b, f)
	}

	b.WriteString(`</figure>`)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDebug(b *strings.Builder, f Frame) {
	d := f.Debug
	b.WriteString(`<details class="embed-debug"><summary>debug</summary><dl>`)
	row := func(k, v string) {
		b.WriteString(`<dt>`)
		b.WriteString(k)
		b.WriteString(`</dt><dd>`)
		b.WriteString(html.EscapeString(v))
		b.WriteString(`</dd>`)
	}
	row("dashboard_id", d.DashboardID)
	row("id", d.StorageID)
	row("title", d.Title)
	row("chart", fmt.Sprintf("%d/%d", d.ChartIndex, d.ChartCount))
	row("url", f.URL)
	b.WriteString(`</dl></details>`)
}

func attr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}

func errorMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
