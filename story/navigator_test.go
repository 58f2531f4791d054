package story

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadForest(t *testing.T) *Story {
	t.Helper()
	root := t.TempDir()
	writeStory(t, root, "forest", "story.yaml", forestYAML)
	st, err := NewStore(root).Load(context.Background(), "forest")
	require.NoError(t, err)
	return st
}

func TestStart_IsStable(t *testing.T) {
	st := loadForest(t)

	n1, k1 := Start(st)
	n2, k2 := Start(st)
	assert.Equal(t, "A", k1)
	assert.Equal(t, k1, k2)
	assert.Same(t, n1, n2)
	assert.Same(t, st.Nodes["A"], n1)
}

func TestAdvance_FollowsEveryDeclaredEdge(t *testing.T) {
	st := loadForest(t)

	for key, node := range st.Nodes {
		for _, e := range node.Edges {
			next, nextKey, err := Advance(st, key, e.Label)
			require.NoError(t, err, "%s -%s->", key, e.Label)
			assert.Equal(t, e.Target, nextKey)
			assert.Same(t, st.Nodes[e.Target], next)
		}
	}
}

func TestAdvance_FromStartSentinel(t *testing.T) {
	st := loadForest(t)

	_, key, err := Advance(st, StartKey, "left")
	require.NoError(t, err)
	assert.Equal(t, "B", key)
}

func TestAdvance_Errors(t *testing.T) {
	st := loadForest(t)

	_, _, err := Advance(st, "A", "Left")
	assert.ErrorIs(t, err, ErrInvalidEdge, "labels are case-sensitive")

	_, _, err = Advance(st, "C", "anything")
	assert.ErrorIs(t, err, ErrInvalidEdge)

	_, _, err = Advance(st, "Z", "left")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvance_DuplicateLabelFirstWins(t *testing.T) {
	root := t.TempDir()
	writeStory(t, root, "dup", "story.yaml", `
start: A
nodes:
  A:
    choices:
      - {label: go, target: B}
      - {label: go, target: C}
  B: {}
  C: {}
`)
	st, err := NewStore(root).Load(context.Background(), "dup")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, key, err := Advance(st, "A", "go")
		require.NoError(t, err)
		assert.Equal(t, "B", key)
	}
}

func TestAdvance_CyclesAreAllowed(t *testing.T) {
	st := loadForest(t)

	key := "A"
	for _, label := range []string{"left", "back", "left", "back"} {
		var err error
		_, key, err = Advance(st, key, label)
		require.NoError(t, err)
	}
	assert.Equal(t, "A", key)
}
