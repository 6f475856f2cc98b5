package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Only FOLIO_VAR_ names are substituted, so {{embed_query:...}} tokens in
// inline post content pass through untouched.
var templateVarRe = regexp.MustCompile(`\{\{(FOLIO_VAR_[A-Z0-9_]+)\}\}`)

// Loader handles loading and parsing of the seed catalog
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

// NewLoader creates a new seed loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		lookup:   os.LookupEnv,
	}
}

// Path returns the seed file path
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the seed file, inlining post content files
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	data = l.expandTemplateVariables(data)

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	base := filepath.Dir(l.filePath)
	for i, p := range file.Posts {
		if p.ContentFile == "" {
			continue
		}
		path := p.ContentFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read content of post %q: %w", p.Slug, err)
		}
		file.Posts[i].Content = string(body)
	}

	return &file, nil
}

// expandTemplateVariables replaces {{FOLIO_VAR_...}} with the environment value
// Example: {{FOLIO_VAR_DUNE_QUERY}} -> "https://dune.com/embeds/..."
// Unset variables become an empty string.
func (l *Loader) expandTemplateVariables(data []byte) []byte {
	return templateVarRe.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(templateVarRe.FindSubmatch(m)[1])
		v, _ := l.lookup(name)
		return []byte(v)
	})
}
