package adventure

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"PiBot/story"
)

const (
	// TokenPrefix marks a component custom id as an adventure continuation
	TokenPrefix = "adv"
	tokenSep    = "|"

	// MaxTokenLength is the size Discord allows for a component custom id
	MaxTokenLength = 100
)

// Token is the state a choice control carries between two interactions
type Token struct {
	Story string
	Node  string
	Label string
}

// EncodeToken renders t as adv|story|node|label with every field
// query-escaped, so the separator never appears inside a field.
func EncodeToken(t Token) string {
	return strings.Join([]string{
		TokenPrefix,
		url.QueryEscape(t.Story),
		url.QueryEscape(t.Node),
		url.QueryEscape(t.Label),
	}, tokenSep)
}

// IsToken reports whether id looks like an encoded continuation token
func IsToken(id string) bool {
	return strings.HasPrefix(id, TokenPrefix+tokenSep)
}

// DecodeToken parses a value produced by EncodeToken
func DecodeToken(raw string) (Token, error) {
	parts := strings.Split(raw, tokenSep)
	if len(parts) != 4 || parts[0] != TokenPrefix {
		return Token{}, fmt.Errorf("malformed continuation token %q: %w", raw, story.ErrInvalidEdge)
	}

	fields := make([]string, 3)
	for i, p := range parts[1:] {
		v, err := url.QueryUnescape(p)
		if err != nil {
			return Token{}, fmt.Errorf("malformed continuation token %q: %w", raw, story.ErrInvalidEdge)
		}
		fields[i] = v
	}
	return Token{Story: fields[0], Node: fields[1], Label: fields[2]}, nil
}

// CheckTokens renders every node of st and reports each choice whose token
// is longer than limit bytes. Nodes are visited in key order.
func CheckTokens(st *story.Story, limit int) []error {
	keys := make([]string, 0, len(st.Nodes))
	for key := range st.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var problems []error
	for _, key := range keys {
		p, err := Render(st, key)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		for _, c := range p.Choices() {
			if len(c.Token) > limit {
				problems = append(problems, fmt.Errorf("%w: story %q node %q: choice %q does not fit in %d bytes (%d)",
					story.ErrMalformedStory, st.Name, key, c.Label, limit, len(c.Token)))
			}
		}
	}
	return problems
}
