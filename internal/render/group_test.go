package render

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

const (
	docA = "https://drive.google.com/file/d/AAA_111/view?usp=sharing"
	docB = "[Datasheet](https://drive.google.com/file/d/BBB-222/view)"
	docC = "https://drive.google.com/file/d/CCC333"
)

func TestMatchDocLink(t *testing.T) {
	tests := []struct {
		line   string
		wantID string
		title  string
		ok     bool
	}{
		{docA, "AAA_111", "", true},
		{"  " + docC + "  ", "CCC333", "", true},
		{docB, "BBB-222", "Datasheet", true},
		{"see " + docA, "", "", false},
		{"https://drive.google.com/drive/folders/xyz", "", "", false},
		{"https://docs.google.com/file/d/abc/view", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d, ok := MatchDocLink(tt.line)
			if ok != tt.ok || d.FileID != tt.wantID || d.Title != tt.title {
				t.Fatalf("MatchDocLink(%q) = %+v, %v", tt.line, d, ok)
			}
		})
	}
}

func TestGroup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int // docs per block, 0 for a plain line
	}{
		{"single doc", docA, []int{1}},
		{"adjacent docs", docA + "\n" + docB, []int{2}},
		{"blank lines tolerated", docA + "\n\n\n" + docB + "\n" + docC, []int{3}},
		{"trailing blanks kept", docA + "\n" + docB + "\n\n\ntext", []int{2, 0, 0, 0}},
		{"paragraph splits runs", docA + "\ntext\n" + docB, []int{1, 0, 1}},
		{"fenced docs untouched", "```\n" + docA + "\n" + docB + "\n```", []int{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Group(Lines(tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d blocks, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, b := range got {
				if len(b.Docs) != tt.want[i] {
					t.Errorf("block %d has %d docs, want %d", i, len(b.Docs), tt.want[i])
				}
			}
		})
	}
}

func TestGroupIdempotent(t *testing.T) {
	pool := []string{docA, docB, docC, "", "  ", "plain text", "# Title", "```", "- item", "{{embed_query:x}}"}

	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.SampledFrom(pool), 0, 30).Draw(t, "lines")
		blocks := make([]Block, len(lines))
		for i, l := range lines {
			blocks[i] = Block{Line: l}
		}

		once := Group(blocks)
		twice := Group(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("grouping not idempotent\nonce:  %+v\ntwice: %+v", once, twice)
		}
	})
}

func TestGroupKeepsOrder(t *testing.T) {
	got := Group(Lines(docC + "\n" + docA))
	if len(got) != 1 || got[0].Docs[0].FileID != "CCC333" || got[0].Docs[1].FileID != "AAA_111" {
		t.Fatalf("group order changed: %+v", got)
	}
}
