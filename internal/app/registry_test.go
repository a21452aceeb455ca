package app

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/domain"
)

var roomCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

func TestCreateRoom(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())

	session, teams, err := h.registry.CreateRoom("  Quizzards  ")
	require.NoError(t, err)

	assert.Regexp(t, roomCodePattern, session.GetRoomCode())
	assert.Equal(t, []domain.TeamInfo{{Name: "Quizzards", IsHost: true, Ready: true}}, teams)
	assert.Equal(t, domain.PhaseLobby, session.GetPhase())
	assert.Equal(t, 1, h.registry.RoomCount())

	_, _, err = h.registry.CreateRoom("   ")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	assert.Equal(t, 1, h.registry.RoomCount())
}

func TestRoomCodesAreUnique(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		session, _, err := h.registry.CreateRoom("Host")
		require.NoError(t, err)
		code := session.GetRoomCode()
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Equal(t, 200, h.registry.RoomCount())
}

func TestGenerateRoomCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateRoomCode()
		require.NoError(t, err)
		assert.Regexp(t, roomCodePattern, code)
	}
}

func TestJoinRoom(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	session := h.lobby(t)
	code := session.GetRoomCode()

	_, teams, err := h.registry.JoinRoom(code, "Alpha")
	require.NoError(t, err)
	assert.Len(t, teams, 2)
	assert.Equal(t, "Alpha", teams[1].Name)
	assert.False(t, teams[1].Ready)

	updates := h.broadcaster.waitFor(t, code, domain.EventTeamsUpdated, 1)
	assert.Len(t, updates[0].Payload.(*domain.TeamsPayload).Teams, 2)

	_, _, err = h.registry.JoinRoom("ABCDEF", "Alpha")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, _, err = h.registry.JoinRoom(code, "Alpha")
	assert.ErrorIs(t, err, domain.ErrDuplicateTeamName)
	assert.Equal(t, 2, h.registry.TeamCount())
}

func TestJoinAfterStartRejected(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	session := h.lobby(t, "Alpha")
	code := session.GetRoomCode()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, session.Start(ctx, "Host"))

	_, _, err := h.registry.JoinRoom(code, "Latecomer")
	assert.ErrorIs(t, err, domain.ErrGameAlreadyStarted)
	assert.Len(t, session.GetTeams(), 2)
	assert.False(t, session.CanJoin())
}

func TestJoinFullRoom(t *testing.T) {
	settings := fastSettings()
	settings.MaxTeams = 2
	h := newHarness(t, settings, parisQuestion())
	session := h.lobby(t, "Alpha")

	_, _, err := h.registry.JoinRoom(session.GetRoomCode(), "Beta")
	assert.ErrorIs(t, err, domain.ErrRoomFull)
}

func TestGuestLeavesLobby(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	session := h.lobby(t, "Alpha")
	code := session.GetRoomCode()

	require.NoError(t, h.registry.RemoveTeam(code, "Alpha"))

	// the first update is Alpha's ready toggle
	updates := h.broadcaster.waitFor(t, code, domain.EventRoomUpdated, 2)
	assert.Equal(t, []domain.TeamInfo{{Name: "Host", IsHost: true, Ready: true}},
		updates[len(updates)-1].Payload.(*domain.TeamsPayload).Teams)

	_, err := h.registry.GetRoom(code)
	assert.NoError(t, err)

	assert.ErrorIs(t, h.registry.RemoveTeam(code, "Alpha"), domain.ErrTeamNotFound)
}

func TestHostLeavingClosesRoom(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	session := h.lobby(t, "Alpha", "Beta")
	code := session.GetRoomCode()

	require.NoError(t, h.registry.RemoveTeam(code, "Host"))

	closed := h.broadcaster.waitFor(t, code, domain.EventRoomClosed, 1)
	assert.NotEmpty(t, closed[0].Payload.(*domain.RoomClosedPayload).Reason)

	_, err := h.registry.GetRoom(code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, _, err = h.registry.JoinRoom(code, "Gamma")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestLastTeamLeavingDeletesRoom(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	session := h.lobby(t)
	code := session.GetRoomCode()

	require.NoError(t, h.registry.RemoveTeam(code, "Host"))

	_, err := h.registry.GetRoom(code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, h.registry.RoomCount())
	assert.Equal(t, 0, h.broadcaster.count(code, domain.EventRoomClosed))
}

func TestRemoveTeamUnknownRoom(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	assert.ErrorIs(t, h.registry.RemoveTeam("123456", "Host"), domain.ErrRoomNotFound)
}

func TestCleanupIdleRooms(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	h.registry.cfg.FinishedRoomTTL = 10 * time.Minute
	h.registry.cfg.StaleRoomTTL = 2 * time.Hour

	lobby := h.lobby(t)
	finished := h.lobby(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, finished.Start(ctx, "Host"))
	require.NoError(t, finished.SubmitAnswer("Host", "Paris"))
	h.broadcaster.waitFor(t, finished.GetRoomCode(), domain.EventGameOver, 1)

	now := time.Now()
	assert.Equal(t, 0, h.registry.cleanupIdleRooms(now))
	assert.Equal(t, 2, h.registry.RoomCount())

	assert.Equal(t, 1, h.registry.cleanupIdleRooms(now.Add(11*time.Minute)))
	_, err := h.registry.GetRoom(finished.GetRoomCode())
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	closed := h.broadcaster.waitFor(t, finished.GetRoomCode(), domain.EventRoomClosed, 1)
	assert.Equal(t, reasonFinishedIdle, closed[0].Payload.(*domain.RoomClosedPayload).Reason)

	assert.Equal(t, 1, h.registry.cleanupIdleRooms(now.Add(3*time.Hour)))
	_, err = h.registry.GetRoom(lobby.GetRoomCode())
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	closed = h.broadcaster.waitFor(t, lobby.GetRoomCode(), domain.EventRoomClosed, 1)
	assert.Equal(t, reasonStale, closed[0].Payload.(*domain.RoomClosedPayload).Reason)
}

func TestLeaveRoomIgnoresReusedCode(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	old := h.lobby(t, "Alpha")
	code := old.GetRoomCode()

	require.NoError(t, h.registry.RemoveTeam(code, "Host"))
	assert.False(t, h.registry.IsCurrent(old))

	// a new room is registered under the freed code
	room, err := domain.NewRoom(code, "Host", fastSettings())
	require.NoError(t, err)
	_, err = room.AddTeam("Alpha")
	require.NoError(t, err)
	reused := NewRoomSession(room, h.source, nil, h.broadcaster, discardLogger())
	h.registry.mu.Lock()
	h.registry.sessions[code] = reused
	h.registry.mu.Unlock()

	assert.ErrorIs(t, h.registry.LeaveRoom(old, "Alpha"), domain.ErrRoomNotFound)
	assert.ErrorIs(t, h.registry.LeaveRoom(old, "Host"), domain.ErrRoomNotFound)

	assert.True(t, h.registry.IsCurrent(reused))
	assert.Equal(t, 2, reused.GetTeamCount())

	h.registry.removeSession(old, "")
	got, err := h.registry.GetRoom(code)
	require.NoError(t, err)
	assert.Same(t, reused, got)
}

func TestRegistryClose(t *testing.T) {
	h := newHarness(t, fastSettings(), parisQuestion())
	h.lobby(t, "Alpha")
	h.lobby(t)

	h.registry.Close()
	h.registry.Close()
	assert.Equal(t, 0, h.registry.RoomCount())
}
