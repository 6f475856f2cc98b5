package seed

import (
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/folio/internal/domain"
)

func TestMapperMap(t *testing.T) {
	inactive := false
	file := &File{
		Dashboards: []DashboardProps{
			{DashboardID: "eth_gas", Title: "Gas", EmbedURL: "https://dune.com/embeds/1/1"},
			{DashboardID: "off", Title: "Off", Active: &inactive, EmbedURL: "https://dune.com/embeds/2/2"},
			{DashboardID: "evil", Title: "Evil", EmbedURL: "https://evil.com/embeds/1"},
			{DashboardID: "eth_gas", Title: "Dup", EmbedURL: "https://dune.com/embeds/1/1"},
		},
		Posts: []PostProps{
			{Slug: "hello", Title: "Hello", PublishedAt: "2024-05-01", Content: "hi"},
			{Slug: "wip", Title: "WIP", Draft: true},
			{Slug: "bad slug", Title: "Bad"},
		},
	}

	mapper := NewMapper()
	mapper.now = func() time.Time { return time.Unix(0, 0) }
	res, err := mapper.Map(file)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if len(res.Dashboards) != 2 {
		t.Errorf("Map() returned %v dashboards, want 2", len(res.Dashboards))
	}
	if res.Dashboards[0].ID != "seed:eth_gas" || !res.Dashboards[0].IsActive {
		t.Errorf("first dashboard = %+v", res.Dashboards[0])
	}
	if res.Dashboards[1].IsActive {
		t.Error("active: false was ignored")
	}
	if len(res.Posts) != 2 || res.Posts[1].Published {
		t.Errorf("posts = %+v", res.Posts)
	}
	if !res.Posts[0].PublishedAt.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("published_at = %v", res.Posts[0].PublishedAt)
	}
	if len(res.Skipped) != 3 {
		t.Fatalf("Skipped = %v, want 3 entries", res.Skipped)
	}
	if !strings.Contains(res.Skipped[0], "evil") {
		t.Errorf("Skipped[0] = %q", res.Skipped[0])
	}
}

func TestMapperMapEmpty(t *testing.T) {
	res, err := NewMapper().Map(&File{})

	// Empty seed should return an error
	if err == nil {
		t.Error("Map() with empty seed should return error")
	}
	if res != nil {
		t.Errorf("Map() with empty seed should return nil, got %+v", res)
	}
}

func TestMapperMapInvalidOnly(t *testing.T) {
	file := &File{
		Dashboards: []DashboardProps{
			{DashboardID: "x", Title: "X", Charts: domain.ChartList{domain.LegacyURL("https://dune.com/dashboard/x")}},
		},
	}

	if _, err := NewMapper().Map(file); err == nil {
		t.Error("Map() should return error when no valid entries found")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"2024-05-01", false},
		{"2024-05-01T10:00:00Z", false},
		{"May 1st", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if _, err := parseDate(tt.in); (err != nil) != tt.wantErr {
				t.Errorf("parseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}
