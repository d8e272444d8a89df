package layout

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultName is the name of the built-in romaji layout.
const DefaultName = "romaji"

//go:embed romaji.yaml
var romajiYAML []byte

var (
	defaultLayout *Layout
	defaultOnce   sync.Once
	defaultErr    error
)

// Default returns the built-in romaji layout. It is decoded once and shared.
func Default() (*Layout, error) {
	defaultOnce.Do(func() {
		defaultLayout, defaultErr = ParseYAML(DefaultName, romajiYAML)
	})
	return defaultLayout, defaultErr
}

// Load returns the layout at path, or the built-in layout when path is empty.
func Load(path string) (*Layout, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads a layout table from a YAML or TOML file.
func LoadFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(name, data)
	case ".toml":
		return ParseTOML(name, data)
	default:
		return nil, fmt.Errorf("unsupported layout format %q (use .yaml or .toml)", filepath.Ext(path))
	}
}

// ParseYAML decodes a top-level mapping of key to encoding or list of encodings.
// Document order is preserved.
func ParseYAML(name string, data []byte) (*Layout, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("layout %s is empty", name)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("layout %s: expected a mapping at line %d", name, root.Line)
	}
	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		var encodings []string
		switch valueNode.Kind {
		case yaml.ScalarNode:
			encodings = []string{valueNode.Value}
		case yaml.SequenceNode:
			if err := valueNode.Decode(&encodings); err != nil {
				return nil, fmt.Errorf("layout %s: key %q: %w", name, keyNode.Value, err)
			}
		default:
			return nil, fmt.Errorf("layout %s: key %q at line %d: expected string or list", name, keyNode.Value, keyNode.Line)
		}
		entries = append(entries, Entry{Key: keyNode.Value, Encodings: encodings})
	}
	return build(name, entries)
}

// ParseTOML decodes top-level key/value pairs. Definition order is preserved.
func ParseTOML(name string, data []byte) (*Layout, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	var entries []Entry
	for _, key := range md.Keys() {
		if len(key) != 1 {
			continue
		}
		k := key[0]
		var encodings []string
		switch v := raw[k].(type) {
		case string:
			encodings = []string{v}
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("layout %s: key %q: encodings must be strings", name, k)
				}
				encodings = append(encodings, s)
			}
		default:
			return nil, fmt.Errorf("layout %s: key %q: expected string or array", name, k)
		}
		entries = append(entries, Entry{Key: k, Encodings: encodings})
	}
	return build(name, entries)
}

func build(name string, entries []Entry) (*Layout, error) {
	l := New(name, entries)
	if l.Len() == 0 {
		return nil, fmt.Errorf("layout %s has no usable entries", name)
	}
	return l, nil
}
