// Package adventure drives interactive stories: it turns user events into
// navigation steps over a story graph and renders each reached node.
//
// No session table is kept. The position of a user travels in the
// continuation tokens attached to the rendered choices, so concurrent users
// of the same story never share mutable state.
package adventure

import (
	"context"
	"fmt"

	"PiBot/logger"
	"PiBot/story"

	"github.com/sirupsen/logrus"
)

// State of a dialogue
type State int

const (
	StateIdle State = iota
	StateAtNode
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAtNode:
		return "at-node"
	case StateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Position is where a dialogue currently stands
type Position struct {
	Story string
	Node  string
	State State
}

// EventKind discriminates inbound adventure events
type EventKind int

const (
	EventStorySelected EventKind = iota + 1
	EventEdgeChosen
)

func (k EventKind) String() string {
	switch k {
	case EventStorySelected:
		return "story-selected"
	case EventEdgeChosen:
		return "edge-chosen"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is an inbound user action. Story is set for EventStorySelected,
// Token for EventEdgeChosen.
type Event struct {
	Kind  EventKind
	Story string
	Token string
}

// Step is the result of a successful transition
type Step struct {
	Position     Position
	Story        *story.Story
	Presentation Presentation
}

// Loader is the part of the story store the engine needs
type Loader interface {
	Load(ctx context.Context, name string) (*story.Story, error)
}

// Engine runs the dialogue protocol. It is stateless and safe for concurrent use.
type Engine struct {
	stories    Loader
	tokenLimit int
}

// Option configures an Engine
type Option func(*Engine)

// WithTokenLimit rejects steps whose continuation tokens exceed n bytes
func WithTokenLimit(n int) Option {
	return func(e *Engine) {
		e.tokenLimit = n
	}
}

// NewEngine creates an engine reading stories from loader
func NewEngine(loader Loader, opts ...Option) *Engine {
	e := &Engine{stories: loader}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle dispatches ev to SelectStory or Resume
func (e *Engine) Handle(ctx context.Context, ev Event) (*Step, error) {
	switch ev.Kind {
	case EventStorySelected:
		return e.SelectStory(ctx, ev.Story)
	case EventEdgeChosen:
		return e.Resume(ctx, ev.Token)
	default:
		return nil, fmt.Errorf("unknown adventure event kind %d", int(ev.Kind))
	}
}

// SelectStory loads name and positions the dialogue on its start node
func (e *Engine) SelectStory(ctx context.Context, name string) (*Step, error) {
	st, err := e.load(ctx, name)
	if err != nil {
		return nil, err
	}
	_, key := story.Start(st)
	return e.step(st, key)
}

// PickEdge follows label from pos
func (e *Engine) PickEdge(ctx context.Context, pos Position, label string) (*Step, error) {
	switch pos.State {
	case StateTerminal:
		return nil, fmt.Errorf("story %q ended at node %q: %w", pos.Story, pos.Node, story.ErrSessionClosed)
	case StateIdle:
		return nil, fmt.Errorf("choice %q without a selected story: %w", label, story.ErrInvalidEdge)
	}

	st, err := e.load(ctx, pos.Story)
	if err != nil {
		return nil, err
	}

	node, key, ok := st.Node(pos.Node)
	if !ok {
		return nil, fmt.Errorf("node %q of story %q: %w", pos.Node, st.Name, story.ErrNotFound)
	}
	if node.Terminal() {
		return nil, fmt.Errorf("story %q ended at node %q: %w", st.Name, key, story.ErrSessionClosed)
	}

	_, next, err := story.Advance(st, key, label)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"story": st.Name,
		"from":  key,
		"label": label,
		"to":    next,
	}).Debug("adventure-advance")
	return e.step(st, next)
}

// Resume decodes a continuation token and applies the choice it carries
func (e *Engine) Resume(ctx context.Context, token string) (*Step, error) {
	t, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}
	return e.PickEdge(ctx, Position{Story: t.Story, Node: t.Node, State: StateAtNode}, t.Label)
}

// load reads a story and, with a token limit set, rejects it as a whole when
// any of its nodes renders a choice that would not fit
func (e *Engine) load(ctx context.Context, name string) (*story.Story, error) {
	st, err := e.stories.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if e.tokenLimit > 0 {
		if problems := CheckTokens(st, e.tokenLimit); len(problems) > 0 {
			return nil, problems[0]
		}
	}
	return st, nil
}

func (e *Engine) step(st *story.Story, key string) (*Step, error) {
	p, err := Render(st, key)
	if err != nil {
		return nil, err
	}

	state := StateAtNode
	if p.Terminal() {
		state = StateTerminal
	}
	return &Step{
		Position:     Position{Story: st.Name, Node: p.Node, State: state},
		Story:        st,
		Presentation: p,
	}, nil
}
