package adventure

import (
	"fmt"

	"PiBot/story"
)

// FragmentKind tells the renderer what a fragment holds
type FragmentKind int

const (
	FragmentTitle FragmentKind = iota + 1
	FragmentMedia
	FragmentChoices
	FragmentTerminal
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentTitle:
		return "title"
	case FragmentMedia:
		return "media"
	case FragmentChoices:
		return "choices"
	case FragmentTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("FragmentKind(%d)", int(k))
	}
}

// Fragment is one display unit of a rendered node
type Fragment struct {
	Kind FragmentKind
	// Title and Text are set on the title fragment
	Title string
	Text  string
	// Media is a story asset path or URL; Primary media replaces the
	// surface, the others are appended after it.
	Media   string
	Primary bool
	Choices []Choice
}

// Choice is one selectable edge with the token to hand back when picked
type Choice struct {
	Label string
	Token string
}

// Presentation is the ordered output of rendering one node
type Presentation struct {
	Story     string
	Node      string
	Fragments []Fragment
}

// Render builds the presentation of node key of s. It is deterministic.
func Render(s *story.Story, key string) (Presentation, error) {
	node, key, ok := s.Node(key)
	if !ok {
		return Presentation{}, fmt.Errorf("node %q of story %q: %w", key, s.Name, story.ErrNotFound)
	}

	p := Presentation{
		Story:     s.Name,
		Node:      key,
		Fragments: make([]Fragment, 0, len(node.Media)+2),
	}
	p.Fragments = append(p.Fragments, Fragment{
		Kind:  FragmentTitle,
		Title: s.TitleOf(node),
		Text:  node.Text,
	})

	for i, ref := range node.Media {
		p.Fragments = append(p.Fragments, Fragment{
			Kind:    FragmentMedia,
			Media:   ref,
			Primary: i == 0,
		})
	}

	if node.Terminal() {
		p.Fragments = append(p.Fragments, Fragment{Kind: FragmentTerminal})
		return p, nil
	}

	choices := make([]Choice, 0, len(node.Edges))
	for _, e := range node.Edges {
		choices = append(choices, Choice{
			Label: e.Label,
			Token: EncodeToken(Token{Story: s.Name, Node: key, Label: e.Label}),
		})
	}
	p.Fragments = append(p.Fragments, Fragment{Kind: FragmentChoices, Choices: choices})
	return p, nil
}

// Title returns the title fragment
func (p Presentation) Title() Fragment {
	for _, f := range p.Fragments {
		if f.Kind == FragmentTitle {
			return f
		}
	}
	return Fragment{}
}

// Media returns the media fragments in order
func (p Presentation) Media() []Fragment {
	var out []Fragment
	for _, f := range p.Fragments {
		if f.Kind == FragmentMedia {
			out = append(out, f)
		}
	}
	return out
}

// Choices returns the choice menu, nil for a terminal node
func (p Presentation) Choices() []Choice {
	for _, f := range p.Fragments {
		if f.Kind == FragmentChoices {
			return f.Choices
		}
	}
	return nil
}

// Terminal reports whether the presentation ends the adventure
func (p Presentation) Terminal() bool {
	n := len(p.Fragments)
	return n > 0 && p.Fragments[n-1].Kind == FragmentTerminal
}
