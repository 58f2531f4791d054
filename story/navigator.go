package story

import "fmt"

// Start returns the designated start node of s and its key
func Start(s *Story) (*Node, string) {
	return s.Nodes[s.Start], s.Start
}

// Advance follows the edge labelled label out of node from. from may be
// StartKey. Labels match exactly; the first declared edge wins.
func Advance(s *Story, from, label string) (*Node, string, error) {
	node, key, ok := s.Node(from)
	if !ok {
		return nil, "", fmt.Errorf("node %q of story %q: %w", from, s.Name, ErrNotFound)
	}

	edge, ok := node.Edge(label)
	if !ok {
		return nil, "", fmt.Errorf("choice %q from node %q of story %q: %w", label, key, s.Name, ErrInvalidEdge)
	}

	next, ok := s.Nodes[edge.Target]
	if !ok {
		// unreachable for stories built by Load
		return nil, "", fmt.Errorf("%w: node %q: choice %q leads to missing node %q", ErrMalformedStory, key, label, edge.Target)
	}
	return next, edge.Target, nil
}
