// Package problems finds and loads practice problem files.
package problems

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/furitype/internal/markup"
	"github.com/verte-zerg/furitype/internal/model"
)

//go:embed examples/*.ntq
var examples embed.FS

const examplesDir = "examples"

// Problem identifies a practice text on disk or bundled with the binary.
type Problem struct {
	Name string
	// Path is empty for bundled problems.
	Path  string
	Title string
}

// Bundled reports whether the problem ships with the binary.
func (p Problem) Bundled() bool {
	return p.Path == ""
}

// Source describes where the problem comes from.
func (p Problem) Source() string {
	if p.Bundled() {
		return "bundled"
	}
	return p.Path
}

// List returns the problems in dir followed by bundled ones whose names are
// not shadowed. A missing dir is not an error.
func List(dir string) ([]Problem, error) {
	seen := map[string]struct{}{}
	var out []Problem

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read problems dir: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !IsProblemFile(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			p := Problem{Name: NameOf(entry.Name()), Path: path}
			if data, err := os.ReadFile(path); err == nil {
				p.Title = titleOf(data)
			}
			seen[p.Name] = struct{}{}
			out = append(out, p)
		}
	}

	bundled, err := listBundled()
	if err != nil {
		return nil, err
	}
	for _, p := range bundled {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Bundled() != out[j].Bundled() {
			return !out[i].Bundled()
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func listBundled() ([]Problem, error) {
	entries, err := examples.ReadDir(examplesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled problems: %w", err)
	}
	out := make([]Problem, 0, len(entries))
	for _, entry := range entries {
		data, err := examples.ReadFile(examplesDir + "/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read bundled problem: %w", err)
		}
		out = append(out, Problem{Name: NameOf(entry.Name()), Title: titleOf(data)})
	}
	return out, nil
}

// Find looks a problem up by name.
func Find(dir, name string) (Problem, error) {
	list, err := List(dir)
	if err != nil {
		return Problem{}, err
	}
	for _, p := range list {
		if p.Name == name {
			return p, nil
		}
	}
	return Problem{}, fmt.Errorf("problem %q not found", name)
}

// Read returns the raw markup of a problem.
func Read(p Problem) ([]byte, error) {
	if p.Bundled() {
		data, err := examples.ReadFile(examplesDir + "/" + p.Name + Ext)
		if err != nil {
			return nil, fmt.Errorf("failed to read bundled problem: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem: %w", err)
	}
	return data, nil
}

// Load reads and parses a problem.
func Load(p Problem) (model.Content, error) {
	data, err := Read(p)
	if err != nil {
		return model.Content{}, err
	}
	content := markup.Parse(string(data))
	if len(content.Lines) == 0 {
		return model.Content{}, fmt.Errorf("problem %s has no lines to type", p.Name)
	}
	return content, nil
}

// FromPath builds a Problem for an arbitrary file.
func FromPath(path string) Problem {
	return Problem{Name: NameOf(filepath.Base(path)), Path: path}
}

func titleOf(data []byte) string {
	first, _, _ := strings.Cut(string(data), "\n")
	content := markup.Parse(first)
	return content.Title.String()
}
