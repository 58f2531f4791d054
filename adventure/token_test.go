package adventure

import (
	"context"
	"strings"
	"testing"

	"PiBot/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	tokens := []Token{
		{Story: "forest", Node: "A", Label: "left"},
		{Story: "a|b", Node: "c|d", Label: "|"},
		{Story: "adv|x|y|z", Node: "start", Label: "go"},
		{Story: "100%", Node: "%7C", Label: "a+b c"},
		{Story: "forêt", Node: "clairière", Label: "à gauche"},
		{Story: "", Node: "", Label: ""},
	}

	for _, tok := range tokens {
		raw := EncodeToken(tok)
		assert.True(t, IsToken(raw), raw)

		got, err := DecodeToken(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, tok, got)
	}
}

func TestToken_Format(t *testing.T) {
	assert.Equal(t, "adv|forest|A|left", EncodeToken(Token{Story: "forest", Node: "A", Label: "left"}))
	assert.Equal(t, "adv|a%7Cb|A|go", EncodeToken(Token{Story: "a|b", Node: "A", Label: "go"}))
}

func TestDecodeToken_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"forest,rootChoice",
		"adv|forest|A",
		"adv|forest|A|left|extra",
		"xyz|forest|A|left",
		"adv|bad%zz|A|left",
	} {
		_, err := DecodeToken(raw)
		assert.ErrorIs(t, err, story.ErrInvalidEdge, raw)
	}
}

func TestIsToken(t *testing.T) {
	assert.False(t, IsToken("adventure:select"))
	assert.False(t, IsToken("advance"))
	assert.True(t, IsToken("adv|s|n|l"))
}

func TestCheckTokens(t *testing.T) {
	wide := strings.Repeat("é", 20)
	store := newStore(t, map[string]string{
		"ok":   forestYAML,
		"wide": "start: A\nnodes:\n  A:\n    choices: [{label: " + wide + ", target: B}, {label: fine, target: B}]\n  B:\n    choices: [{label: " + wide + ", target: A}]\n",
	})

	st, err := store.Load(context.Background(), "ok")
	require.NoError(t, err)
	assert.Empty(t, CheckTokens(st, MaxTokenLength))

	st, err = store.Load(context.Background(), "wide")
	require.NoError(t, err)
	problems := CheckTokens(st, MaxTokenLength)
	require.Len(t, problems, 2)
	for _, p := range problems {
		assert.ErrorIs(t, p, story.ErrMalformedStory)
	}
	assert.Contains(t, problems[0].Error(), `node "A"`)
	assert.Contains(t, problems[1].Error(), `node "B"`)
}
