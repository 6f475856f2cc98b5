package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/folio/internal/render/embed"
)

func TestHTML(t *testing.T) {
	content := strings.Join([]string{
		"# Hello <world>",
		"{{embed_query:eth_gas}}",
		"{{embed_query:missing_one}}",
		"![broken](https://img.example/x.png)",
		"[click](javascript:alert(1)) and **bold**",
		"```",
		"<script>",
		"```",
	}, "\n")

	out := HTML(Parse(content, resolved(gas)), HTMLOptions{Embed: embed.DefaultOptions(), HydratePath: "/embeds/"})

	for _, want := range []string{
		"<h1>Hello &lt;world&gt;</h1>",
		`data-src="https://dune.com/embeds/1/1"`,
		`Dashboard <code>missing_one</code> is unavailable`,
		`class="image-broken"`,
		"Image failed to load: <code>https://img.example/x.png</code>",
		"<figcaption>broken</figcaption>",
		"<strong>bold</strong>",
		"<pre><code>&lt;script&gt;</code></pre>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "javascript:") {
		t.Errorf("unsafe link survived sanitizing:\n%s", out)
	}
}

func TestHTMLLoadingSkeleton(t *testing.T) {
	out := HTML(Parse("{{embed_query:eth_gas}}", State{Pending: true}), HTMLOptions{HydratePath: "/embeds/"})

	if !strings.Contains(out, `data-hydrate="/embeds/eth_gas"`) || !strings.Contains(out, `class="embed-skeleton"`) {
		t.Fatalf("unexpected skeleton markup: %s", out)
	}
}

func TestHTMLVideoFallback(t *testing.T) {
	out := HTML(Parse("https://youtu.be/dQw4w9WgXcQ", resolved()), HTMLOptions{})

	if !strings.Contains(out, "youtube-nocookie.com/embed/dQw4w9WgXcQ") {
		t.Errorf("missing player: %s", out)
	}
	if !strings.Contains(out, `href="https://youtu.be/dQw4w9WgXcQ"`) {
		t.Errorf("missing restricted-embedding link: %s", out)
	}
}

func TestNodesJSON(t *testing.T) {
	raw, err := json.Marshal(Parse("# T\n{{embed_query:x}}", State{Pending: true}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got []struct {
		Kind string          `json:"kind"`
		Node json.RawMessage `json:"node"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Kind != KindHeading || got[1].Kind != KindLoading {
		t.Fatalf("unexpected encoding: %s", raw)
	}
	if !strings.Contains(string(got[1].Node), `"dashboard_id":"x"`) {
		t.Fatalf("loading node lost its id: %s", got[1].Node)
	}
}
