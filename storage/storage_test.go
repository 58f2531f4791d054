package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "bot_settings.json")

	s, err := New(path)
	require.NoError(t, err)
	assert.Empty(t, s.GetAllSettings().Guilds)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNew_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := New(path)
	assert.ErrorContains(t, err, "failed to load settings")
}

func TestDefaultRoll_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_settings.json")

	s, err := New(path)
	require.NoError(t, err)
	assert.Empty(t, s.DefaultRoll("42"))

	require.NoError(t, s.SetDefaultRoll("42", "1d20+3"))
	assert.Equal(t, "1d20+3", s.DefaultRoll("42"))
	assert.Empty(t, s.DefaultRoll("43"))

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, "1d20+3", reloaded.DefaultRoll("42"))

	require.NoError(t, reloaded.SetDefaultRoll("42", ""))
	assert.Empty(t, reloaded.DefaultRoll("42"))
	assert.Empty(t, reloaded.GetAllSettings().Guilds)
}

func TestSetDefaultRoll_Validation(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "bot_settings.json"))
	require.NoError(t, err)

	assert.Error(t, s.SetDefaultRoll("", "1d6"))
	assert.Error(t, s.SetDefaultRoll("42", "+3"))
	assert.Error(t, s.SetDefaultRoll("42", "1d6"+strings.Repeat("+1", 24)))
	assert.NoError(t, s.SetDefaultRoll("42", "1d6"+strings.Repeat("+1", 23)))
}

func TestSetDefaultRoll_Concurrent(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "bot_settings.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(faces int) {
			defer wg.Done()
			assert.NoError(t, s.SetDefaultRoll("42", fmt.Sprintf("1d%d", faces)))
		}(i)
	}
	wg.Wait()

	assert.Regexp(t, `^1d([1-9]|10)$`, s.DefaultRoll("42"))
}

func TestRecordDiceRoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_settings.json")
	s, err := New(path)
	require.NoError(t, err)

	assert.Zero(t, s.DiceRolls("7"))
	_, err = s.RecordDiceRoll("")
	assert.Error(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RecordDiceRoll("7")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.RecordDiceRoll("7")
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	reloaded, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.DiceRolls("7"))
	assert.Equal(t, UserStats{DiceRolls: 6}, reloaded.GetAllSettings().Users["7"])
}
