package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValidateEmbedURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		valid bool
	}{
		{name: "dune.com embed", url: "https://dune.com/embeds/abc", valid: true},
		{name: "dune.xyz embed", url: "https://dune.xyz/embeds/1234/5678", valid: true},
		{name: "www prefix", url: "https://www.dune.com/embeds/abc", valid: true},
		{name: "wrong path prefix", url: "https://dune.com/dashboard/abc", valid: false},
		{name: "wrong host", url: "https://evil.com/embeds/abc", valid: false},
		{name: "lookalike host", url: "https://dune.com.evil.com/embeds/abc", valid: false},
		{name: "javascript scheme", url: "javascript:alert(1)", valid: false},
		{name: "empty", url: "", valid: false},
		{name: "embeds without slash", url: "https://dune.com/embedsx/abc", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbedURL(tt.url)
			if tt.valid && err != nil {
				t.Errorf("ValidateEmbedURL(%q) = %v, want nil", tt.url, err)
			}
			if !tt.valid {
				if err == nil {
					t.Errorf("ValidateEmbedURL(%q) = nil, want error", tt.url)
				} else if !errors.Is(err, ErrInvalidEmbedURL) {
					t.Errorf("ValidateEmbedURL(%q) error %v is not ErrInvalidEmbedURL", tt.url, err)
				}
			}
		})
	}
}

func TestChartsToRenderLegacyFallback(t *testing.T) {
	d := Dashboard{Title: "TVL", IsActive: true, EmbedURL: "https://dune.com/embeds/1"}

	charts := d.ChartsToRender()
	if len(charts) != 1 {
		t.Fatalf("ChartsToRender() len = %d, want 1", len(charts))
	}
	if charts[0].URL != d.EmbedURL {
		t.Errorf("URL = %q, want %q", charts[0].URL, d.EmbedURL)
	}
	if got := d.ChartTitle(charts[0], 1, len(charts)); got != "TVL" {
		t.Errorf("ChartTitle() = %q, want %q", got, "TVL")
	}
}

func TestChartsToRenderStructuredWins(t *testing.T) {
	d := Dashboard{
		Title:    "TVL",
		EmbedURL: "https://dune.com/embeds/legacy",
		Charts: ChartList{
			StructuredChart{URL: "https://dune.com/embeds/a", Title: "A"},
			LegacyURL("https://dune.com/embeds/b"),
		},
	}

	charts := d.ChartsToRender()
	if len(charts) != 2 {
		t.Fatalf("ChartsToRender() len = %d, want 2", len(charts))
	}
	for _, c := range charts {
		if c.URL == d.EmbedURL {
			t.Errorf("legacy url should be discarded when charts are present")
		}
	}
	if got := d.ChartTitle(charts[1], 2, 2); got != "TVL - Chart 2" {
		t.Errorf("ChartTitle() = %q, want %q", got, "TVL - Chart 2")
	}
	if got := d.ChartTitle(charts[0], 1, 2); got != "A" {
		t.Errorf("ChartTitle() = %q, want %q", got, "A")
	}
}

func TestRenderable(t *testing.T) {
	tests := []struct {
		name string
		d    Dashboard
		want bool
	}{
		{name: "active with legacy", d: Dashboard{IsActive: true, EmbedURL: "https://dune.com/embeds/1"}, want: true},
		{name: "active with charts", d: Dashboard{IsActive: true, Charts: ChartList{LegacyURL("https://dune.com/embeds/1")}}, want: true},
		{name: "inactive", d: Dashboard{IsActive: false, EmbedURL: "https://dune.com/embeds/1"}, want: false},
		{name: "active without embeds", d: Dashboard{IsActive: true}, want: false},
		{name: "blank chart urls", d: Dashboard{IsActive: true, Charts: ChartList{LegacyURL("  "), StructuredChart{}}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Renderable(); got != tt.want {
				t.Errorf("Renderable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChartListJSON(t *testing.T) {
	input := `["https://dune.com/embeds/1",{"url":"https://dune.com/embeds/2","title":"Volume"},null]`

	var l ChartList
	if err := json.Unmarshal([]byte(input), &l); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("len = %d, want 2", len(l))
	}
	if _, ok := l[0].(LegacyURL); !ok {
		t.Errorf("l[0] is %T, want LegacyURL", l[0])
	}
	sc, ok := l[1].(StructuredChart)
	if !ok {
		t.Fatalf("l[1] is %T, want StructuredChart", l[1])
	}
	if sc.Title != "Volume" {
		t.Errorf("Title = %q, want Volume", sc.Title)
	}

	out, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `["https://dune.com/embeds/1",{"url":"https://dune.com/embeds/2","title":"Volume"}]`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestChartListJSONRejectsNumbers(t *testing.T) {
	var l ChartList
	if err := json.Unmarshal([]byte(`[42]`), &l); err == nil {
		t.Error("Unmarshal() should reject numeric chart entries")
	}
}

func TestChartListYAML(t *testing.T) {
	input := `
- https://dune.com/embeds/1
- url: https://dune.com/embeds/2
  title: Volume
`
	var l ChartList
	if err := yaml.Unmarshal([]byte(input), &l); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	charts := l.Normalize()
	if len(charts) != 2 {
		t.Fatalf("len = %d, want 2", len(charts))
	}
	if charts[1].Title != "Volume" {
		t.Errorf("Title = %q, want Volume", charts[1].Title)
	}
}

func TestDashboardValidate(t *testing.T) {
	tests := []struct {
		name    string
		d       Dashboard
		wantErr bool
	}{
		{
			name: "valid",
			d:    Dashboard{DashboardID: "eth_tvl", Title: "TVL", EmbedURL: "https://dune.com/embeds/1"},
		},
		{
			name:    "bad identifier",
			d:       Dashboard{DashboardID: "eth tvl", Title: "TVL"},
			wantErr: true,
		},
		{
			name:    "missing title",
			d:       Dashboard{DashboardID: "eth_tvl"},
			wantErr: true,
		},
		{
			name:    "legacy url off allow-list",
			d:       Dashboard{DashboardID: "eth_tvl", Title: "TVL", EmbedURL: "https://evil.com/embeds/1"},
			wantErr: true,
		},
		{
			name: "chart url wrong path",
			d: Dashboard{DashboardID: "eth_tvl", Title: "TVL", Charts: ChartList{
				StructuredChart{URL: "https://dune.com/dashboard/1"},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error %v is not ErrValidation", err)
			}
		})
	}
}
