// Package storage handles persistent storage for per-guild bot preferences
// and per-user counters
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxDefaultRollLength bounds the default roll a guild can configure
const MaxDefaultRollLength = 50

// GuildSettings are the preferences of one Discord guild
type GuildSettings struct {
	DefaultRoll string `json:"default_roll,omitempty"`
}

// UserStats are the counters kept for one Discord user
type UserStats struct {
	DiceRolls int `json:"dice_rolls"`
}

// Settings represents the bot settings stored in the JSON file
type Settings struct {
	Guilds map[string]GuildSettings `json:"guilds"`
	Users  map[string]UserStats     `json:"users"`
}

// Storage handles persistent storage of bot settings
type Storage struct {
	filename string
	settings Settings
	mutex    sync.RWMutex
	// saveMu serializes writers of the file
	saveMu sync.Mutex
}

// New creates a new Storage instance, creating the file when it does not exist
func New(filename string) (*Storage, error) {
	s := &Storage{
		filename: filename,
		settings: Settings{
			Guilds: make(map[string]GuildSettings),
			Users:  make(map[string]UserStats),
		},
	}

	if err := s.load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if err := s.save(); err != nil {
			return nil, fmt.Errorf("failed to create settings file: %w", err)
		}
	}

	return s, nil
}

// load reads settings from the JSON file
func (s *Storage) load() error {
	data, err := os.ReadFile(s.filename)
	if err != nil {
		return err
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if settings.Guilds == nil {
		settings.Guilds = make(map[string]GuildSettings)
	}
	if settings.Users == nil {
		settings.Users = make(map[string]UserStats)
	}

	s.mutex.Lock()
	s.settings = settings
	s.mutex.Unlock()

	return nil
}

// save writes settings to the JSON file through a temporary file
func (s *Storage) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mutex.RLock()
	data, err := json.MarshalIndent(s.settings, "", "  ")
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(s.filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmp := s.filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, s.filename); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// DefaultRoll returns the expression configured for guildID, empty when unset
func (s *Storage) DefaultRoll(guildID string) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.settings.Guilds[guildID].DefaultRoll
}

// SetDefaultRoll stores the default roll of guildID. An empty expression
// clears it.
func (s *Storage) SetDefaultRoll(guildID, expr string) error {
	if guildID == "" {
		return errors.New("default roll can only be set inside a guild")
	}
	if len(expr) > MaxDefaultRollLength {
		return fmt.Errorf("default roll must be at most %d characters", MaxDefaultRollLength)
	}
	if expr != "" && !strings.ContainsAny(expr, "dD") {
		return fmt.Errorf("default roll %q has no dice", expr)
	}

	s.mutex.Lock()
	g := s.settings.Guilds[guildID]
	g.DefaultRoll = expr
	if g == (GuildSettings{}) {
		delete(s.settings.Guilds, guildID)
	} else {
		s.settings.Guilds[guildID] = g
	}
	s.mutex.Unlock()

	return s.save()
}

// DiceRolls returns how many times userID rolled dice
func (s *Storage) DiceRolls(userID string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.settings.Users[userID].DiceRolls
}

// RecordDiceRoll counts one more roll for userID and returns the new count
func (s *Storage) RecordDiceRoll(userID string) (int, error) {
	if userID == "" {
		return 0, errors.New("dice rolls need a user")
	}

	s.mutex.Lock()
	u := s.settings.Users[userID]
	u.DiceRolls++
	s.settings.Users[userID] = u
	s.mutex.Unlock()

	return u.DiceRolls, s.save()
}

// GetAllSettings returns a copy of all settings
func (s *Storage) GetAllSettings() Settings {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := Settings{
		Guilds: make(map[string]GuildSettings, len(s.settings.Guilds)),
		Users:  make(map[string]UserStats, len(s.settings.Users)),
	}
	for id, g := range s.settings.Guilds {
		out.Guilds[id] = g
	}
	for id, u := range s.settings.Users {
		out.Users[id] = u
	}
	return out
}
