// Package story loads branching adventures from disk and navigates their choice graph
package story

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StartKey may be passed as a node key to mean "the story's start node"
const StartKey = "start"

// Story is an immutable graph of choice nodes, shared read-only once loaded
type Story struct {
	Name  string
	Title string
	// Dir is the folder holding the definition and its media files
	Dir   string
	Start string
	Nodes map[string]*Node
}

// Node is one point of a story
type Node struct {
	Title string
	Text  string
	Media []string
	Edges []Edge
}

// Edge is a labelled connection to another node of the same story
type Edge struct {
	Label  string
	Target string
}

// Terminal reports whether the node ends the adventure
func (n *Node) Terminal() bool {
	return len(n.Edges) == 0
}

// Edge returns the first edge declared with label
func (n *Node) Edge(label string) (Edge, bool) {
	for _, e := range n.Edges {
		if e.Label == label {
			return e, true
		}
	}
	return Edge{}, false
}

// Node returns the node stored under key. StartKey resolves to the start node.
func (s *Story) Node(key string) (*Node, string, bool) {
	if key == StartKey {
		key = s.Start
	}
	n, ok := s.Nodes[key]
	return n, key, ok
}

// TitleOf returns the node title, or the story title when the node has none
func (s *Story) TitleOf(n *Node) string {
	if n != nil && n.Title != "" {
		return n.Title
	}
	return s.Title
}

// IsRemote reports whether a media reference is a URL rather than a story asset
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// definition is the on-disk shape of a story document (YAML or JSON)
type definition struct {
	Title string                     `yaml:"title"`
	Start string                     `yaml:"start"`
	Nodes map[string]*nodeDefinition `yaml:"nodes"`
}

type nodeDefinition struct {
	Title   string           `yaml:"title"`
	Text    string           `yaml:"text"`
	Media   mediaList        `yaml:"media"`
	Choices []edgeDefinition `yaml:"choices"`
}

// mediaList accepts either a single path or a list of paths
type mediaList []string

func (m *mediaList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value == "" {
			*m = nil
			return nil
		}
		*m = mediaList{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*m = list
	return nil
}

// edgeDefinition accepts the {label, target} mapping or a bare string, in
// which case the label is also the target key.
type edgeDefinition struct {
	Label  string `yaml:"label"`
	Target string `yaml:"target"`
}

func (e *edgeDefinition) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		e.Label = value.Value
		e.Target = value.Value
		return nil
	case yaml.MappingNode:
		type plain edgeDefinition
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*e = edgeDefinition(p)
		return nil
	default:
		return fmt.Errorf("line %d: choice must be a string or a mapping", value.Line)
	}
}
