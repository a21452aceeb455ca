package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTeamNameLength is the longest accepted team name, in runes
const MaxTeamNameLength = 32

// Team represents a team in a room
type Team struct {
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	Ready    bool      `json:"ready"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewTeam creates a new team with the given name
func NewTeam(name string, isHost bool) *Team {
	return &Team{
		Name:     name,
		IsHost:   isHost,
		JoinedAt: time.Now(),
	}
}

// IsReady reports whether the team counts as ready. The host always does.
func (t *Team) IsReady() bool {
	return t.IsHost || t.Ready
}

// TeamInfo is the wire view of a team
type TeamInfo struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Ready  bool   `json:"ready"`
}

// ToInfo converts a Team to TeamInfo
func (t *Team) ToInfo() TeamInfo {
	return TeamInfo{
		Name:   t.Name,
		IsHost: t.IsHost,
		Ready:  t.IsReady(),
	}
}

// NormalizeTeamName trims the name and checks its length
func NormalizeTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxTeamNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
