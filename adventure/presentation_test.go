package adventure

import (
	"context"
	"testing"

	"PiBot/story"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadForest(t *testing.T) *story.Story {
	t.Helper()
	st, err := newStore(t, map[string]string{"forest": forestYAML}).Load(context.Background(), "forest")
	require.NoError(t, err)
	return st
}

func TestRender_FragmentOrder(t *testing.T) {
	st := loadForest(t)

	p, err := Render(st, "B")
	require.NoError(t, err)

	kinds := make([]FragmentKind, 0, len(p.Fragments))
	for _, f := range p.Fragments {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []FragmentKind{FragmentTitle, FragmentMedia, FragmentMedia, FragmentMedia, FragmentChoices}, kinds)

	assert.Equal(t, "La forêt", p.Title().Title, "title is inherited from the story")
	media := p.Media()
	require.Len(t, media, 3)
	assert.Equal(t, "b1.png", media[0].Media)
	assert.True(t, media[0].Primary)
	assert.False(t, media[1].Primary)
	assert.False(t, media[2].Primary)
	assert.Equal(t, "https://example.com/b3.gif", media[2].Media)
}

func TestRender_Choices(t *testing.T) {
	st := loadForest(t)

	p, err := Render(st, story.StartKey)
	require.NoError(t, err)
	assert.Equal(t, "A", p.Node)
	assert.Equal(t, "Two paths.", p.Title().Text)
	assert.False(t, p.Terminal())

	choices := p.Choices()
	require.Len(t, choices, 2)
	for _, c := range choices {
		tok, err := DecodeToken(c.Token)
		require.NoError(t, err)
		assert.Equal(t, Token{Story: "forest", Node: "A", Label: c.Label}, tok)
	}
}

func TestRender_TerminalNode(t *testing.T) {
	st := loadForest(t)

	p, err := Render(st, "C")
	require.NoError(t, err)
	assert.True(t, p.Terminal())
	assert.Nil(t, p.Choices())
	assert.Empty(t, p.Media())
	for _, f := range p.Fragments {
		assert.NotEqual(t, FragmentChoices, f.Kind)
	}
}

func TestRender_Idempotent(t *testing.T) {
	st := loadForest(t)

	for key := range st.Nodes {
		first, err := Render(st, key)
		require.NoError(t, err)
		second, err := Render(st, key)
		require.NoError(t, err)
		assert.Equal(t, first, second, key)
	}
}

func TestRender_UnknownNode(t *testing.T) {
	_, err := Render(loadForest(t), "Z")
	assert.ErrorIs(t, err, story.ErrNotFound)
}

func TestFragmentKind_String(t *testing.T) {
	assert.Equal(t, "media", FragmentMedia.String())
	assert.Equal(t, "FragmentKind(9)", FragmentKind(9).String())
}
