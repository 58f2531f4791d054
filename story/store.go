package story

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"PiBot/logger"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefinitionFiles are tried in order inside a story folder
var DefinitionFiles = []string{"story.yaml", "story.yml", "story.json"}

// Store reads stories from a root folder, one sub-folder per story.
// It holds no state besides the root, so it is safe for concurrent use.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the folder the store reads from
func (s *Store) Root() string {
	return s.root
}

// List returns the available story names, sorted
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("story folder %s: %w", s.root, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load parses and validates the story called name. A story either loads
// completely or not at all.
func (s *Store) Load(ctx context.Context, name string) (*Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(name) {
		return nil, fmt.Errorf("story %q: %w", name, ErrNotFound)
	}

	dir := filepath.Join(s.root, name)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("story %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open story %q: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("story %q: %w", name, ErrNotFound)
	}

	data, file, err := readDefinition(dir)
	if err != nil {
		return nil, fmt.Errorf("story %q: %w", name, err)
	}

	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("story %q: %w: %s: %v", name, ErrMalformedStory, file, err)
	}

	st, err := build(name, dir, &def)
	if err != nil {
		return nil, fmt.Errorf("story %q: %w", name, err)
	}

	logger.WithFields(logrus.Fields{
		"story": name,
		"nodes": len(st.Nodes),
		"start": st.Start,
	}).Debug("story-loaded")
	return st, nil
}

// ReadMedia returns the content of a local media file of st
func (s *Store) ReadMedia(ctx context.Context, st *Story, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if IsRemote(ref) || !filepath.IsLocal(filepath.FromSlash(ref)) {
		return nil, fmt.Errorf("media %q of story %q is not a local asset", ref, st.Name)
	}

	data, err := os.ReadFile(filepath.Join(st.Dir, filepath.FromSlash(ref)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("media %q of story %q: %w", ref, st.Name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read media %q of story %q: %w", ref, st.Name, err)
	}
	return data, nil
}

// validName accepts what List can return: one path element, not hidden
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func readDefinition(dir string) ([]byte, string, error) {
	for _, file := range DefinitionFiles {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err == nil {
			return data, file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, file, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}
	return nil, "", fmt.Errorf("%w: no definition file (%s)", ErrMalformedStory, strings.Join(DefinitionFiles, ", "))
}

// build turns a parsed definition into a validated Story
func build(name, dir string, def *definition) (*Story, error) {
	if len(def.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedStory)
	}

	st := &Story{
		Name:  name,
		Title: def.Title,
		Dir:   dir,
		Start: def.Start,
		Nodes: make(map[string]*Node, len(def.Nodes)),
	}
	if st.Title == "" {
		st.Title = name
	}
	if st.Start == "" {
		st.Start = StartKey
	}

	for key, nd := range def.Nodes {
		if key == "" {
			return nil, fmt.Errorf("%w: empty node key", ErrMalformedStory)
		}
		if nd == nil {
			nd = &nodeDefinition{}
		}

		node := &Node{
			Title: nd.Title,
			Text:  nd.Text,
			Media: append([]string(nil), nd.Media...),
			Edges: make([]Edge, 0, len(nd.Choices)),
		}
		for _, ref := range node.Media {
			if !IsRemote(ref) && !filepath.IsLocal(filepath.FromSlash(ref)) {
				return nil, fmt.Errorf("%w: node %q: media %q is outside the story folder", ErrMalformedStory, key, ref)
			}
		}

		seen := make(map[string]bool, len(nd.Choices))
		for _, c := range nd.Choices {
			if c.Label == "" {
				return nil, fmt.Errorf("%w: node %q: choice without label", ErrMalformedStory, key)
			}
			target := c.Target
			if target == "" {
				target = c.Label
			}
			if seen[c.Label] {
				logger.WithFields(logrus.Fields{
					"story": name,
					"node":  key,
					"label": c.Label,
				}).Warn("duplicate-choice-label-first-wins")
			}
			seen[c.Label] = true
			node.Edges = append(node.Edges, Edge{Label: c.Label, Target: target})
		}
		st.Nodes[key] = node
	}

	if _, ok := st.Nodes[st.Start]; !ok {
		return nil, fmt.Errorf("%w: start node %q does not exist", ErrMalformedStory, st.Start)
	}
	if _, ok := st.Nodes[StartKey]; ok && st.Start != StartKey {
		return nil, fmt.Errorf("%w: node %q is reserved for the start node", ErrMalformedStory, StartKey)
	}

	for key, node := range st.Nodes {
		for _, e := range node.Edges {
			if _, ok := st.Nodes[e.Target]; !ok {
				return nil, fmt.Errorf("%w: node %q: choice %q leads to missing node %q", ErrMalformedStory, key, e.Label, e.Target)
			}
		}
	}

	return st, nil
}
