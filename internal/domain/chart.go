package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChartEmbed is one embeddable chart as stored on a dashboard.
//
// It has exactly two variants: LegacyURL and StructuredChart. Use
// NormalizeChart to obtain the canonical Chart shape.
type ChartEmbed interface {
	chart() Chart
}

// LegacyURL is the bare-string chart representation kept for old records.
type LegacyURL string

// StructuredChart is the object chart representation.
type StructuredChart struct {
	URL         string `json:"url" yaml:"url"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Chart is the canonical chart shape consumed by the renderer.
type Chart struct {
	URL         string
	Title       string
	Description string
}

func (l LegacyURL) chart() Chart { return Chart{URL: strings.TrimSpace(string(l))} }

func (s StructuredChart) chart() Chart {
	return Chart{
		URL:         strings.TrimSpace(s.URL),
		Title:       strings.TrimSpace(s.Title),
		Description: strings.TrimSpace(s.Description),
	}
}

// NormalizeChart converts either variant to a Chart. A nil embed yields the zero Chart.
func NormalizeChart(c ChartEmbed) Chart {
	if c == nil {
		return Chart{}
	}
	return c.chart()
}

// ChartList is an ordered list of chart embeds with mixed-variant encoding.
type ChartList []ChartEmbed

// Normalize returns the canonical charts in list order, dropping entries without a URL.
func (l ChartList) Normalize() []Chart {
	out := make([]Chart, 0, len(l))
	for _, c := range l {
		n := NormalizeChart(c)
		if n.URL == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// MarshalJSON writes legacy entries as strings and structured ones as objects.
func (l ChartList) MarshalJSON() ([]byte, error) {
	raw := make([]any, 0, len(l))
	for _, c := range l {
		switch v := c.(type) {
		case LegacyURL:
			raw = append(raw, string(v))
		case StructuredChart:
			raw = append(raw, v)
		case nil:
			continue
		default:
			return nil, fmt.Errorf("unsupported chart embed %T", c)
		}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON accepts an array whose items are either strings or objects.
func (l *ChartList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("charts must be an array: %w", err)
	}
	out := make(ChartList, 0, len(items))
	for i, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 {
			continue
		}
		switch trimmed[0] {
		case '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return fmt.Errorf("charts[%d]: %w", i, err)
			}
			out = append(out, LegacyURL(s))
		case '{':
			var sc StructuredChart
			if err := json.Unmarshal(trimmed, &sc); err != nil {
				return fmt.Errorf("charts[%d]: %w", i, err)
			}
			out = append(out, sc)
		case 'n':
			continue
		default:
			return fmt.Errorf("charts[%d]: expected string or object", i)
		}
	}
	*l = out
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for seed files.
func (l *ChartList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("charts must be a sequence (line %d)", node.Line)
	}
	out := make(ChartList, 0, len(node.Content))
	for i, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, LegacyURL(item.Value))
		case yaml.MappingNode:
			var sc StructuredChart
			if err := item.Decode(&sc); err != nil {
				return fmt.Errorf("charts[%d]: %w", i, err)
			}
			out = append(out, sc)
		default:
			return fmt.Errorf("charts[%d]: expected string or mapping (line %d)", i, item.Line)
		}
	}
	*l = out
	return nil
}
