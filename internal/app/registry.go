package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"quizroom/internal/domain"
)

const (
	// RoomCodeLength is the number of digits in a room code
	RoomCodeLength = 6

	// roomCodeAttempts bounds the search for an unused code
	roomCodeAttempts = 20

	// cleanupInterval is how often idle rooms are swept
	cleanupInterval = time.Minute
)

var (
	// ErrCodeSpaceExhausted is returned when no unused room code could be found
	ErrCodeSpaceExhausted = errors.New("failed to generate unique room code")

	// ErrRoomBusy is returned when a room has too many undelivered events to accept chat
	ErrRoomBusy = errors.New("room is busy, try again")
)

// RoomCloser is implemented by broadcasters that track subscriptions per room
type RoomCloser interface {
	CloseRoom(roomCode string)
}

// RegistryConfig configures a Registry
type RegistryConfig struct {
	Settings        domain.GameSettings
	FinishedRoomTTL time.Duration // finished rooms untouched this long are evicted
	StaleRoomTTL    time.Duration // any room untouched this long is evicted
}

// Registry owns every active room
type Registry struct {
	sessions    map[string]*RoomSession
	mu          sync.RWMutex
	cfg         RegistryConfig
	source      QuestionSource
	recorder    ScoreRecorder
	broadcaster Broadcaster
	logger      *slog.Logger
	done        chan struct{}
	closeOnce   sync.Once
}

// NewRegistry creates a registry and starts its cleanup loop
func NewRegistry(cfg RegistryConfig, source QuestionSource, recorder ScoreRecorder, broadcaster Broadcaster, logger *slog.Logger) *Registry {
	r := &Registry{
		sessions:    make(map[string]*RoomSession),
		cfg:         cfg,
		source:      source,
		recorder:    recorder,
		broadcaster: broadcaster,
		logger:      logger,
		done:        make(chan struct{}),
	}

	go r.cleanupLoop()

	return r
}

// CreateRoom creates a room hosted by the given team
func (r *Registry) CreateRoom(hostTeamName string) (*RoomSession, []domain.TeamInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	roomCode, err := r.unusedRoomCode()
	if err != nil {
		return nil, nil, err
	}

	room, err := domain.NewRoom(roomCode, hostTeamName, r.cfg.Settings)
	if err != nil {
		return nil, nil, err
	}

	session := NewRoomSession(room, r.source, r.recorder, r.broadcaster, r.logger)
	r.sessions[roomCode] = session

	r.logger.Info("room created", "roomCode", roomCode, "host", room.Teams[0].Name)

	return session, room.GetTeamInfoList(), nil
}

// GetRoom returns a room session by code
func (r *Registry) GetRoom(roomCode string) (*RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[roomCode]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return session, nil
}

// JoinRoom adds a guest team to an existing room. The registry lock is
// released before the room is touched; a room torn down in between
// rejects the join itself.
func (r *Registry) JoinRoom(roomCode, teamName string) (*RoomSession, []domain.TeamInfo, error) {
	session, err := r.GetRoom(roomCode)
	if err != nil {
		return nil, nil, err
	}

	teams, err := session.AddTeam(teamName)
	if err != nil {
		return nil, nil, err
	}

	return session, teams, nil
}

// RemoveTeam removes a team from the room registered under roomCode
func (r *Registry) RemoveTeam(roomCode, teamName string) error {
	session, err := r.GetRoom(roomCode)
	if err != nil {
		return err
	}

	return r.LeaveRoom(session, teamName)
}

// LeaveRoom removes a team from a specific session and tears the room down
// when it empties or its host leaves. A session that is no longer
// registered is reported as not found, even if its code was reused.
func (r *Registry) LeaveRoom(session *RoomSession, teamName string) error {
	if !r.registered(session) {
		return domain.ErrRoomNotFound
	}

	result, err := session.RemoveTeam(teamName)
	if err != nil {
		return err
	}

	if result.Closed() {
		r.removeSession(session, "")
	}

	return nil
}

// IsCurrent reports whether session is still the room registered under its code
func (r *Registry) IsCurrent(session *RoomSession) bool {
	return r.registered(session)
}

// DeleteRoom removes a room session
func (r *Registry) DeleteRoom(roomCode string) {
	session, err := r.GetRoom(roomCode)
	if err != nil {
		return
	}

	r.removeSession(session, "")
}

func (r *Registry) registered(session *RoomSession) bool {
	if session == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[session.GetRoomCode()] == session
}

// removeSession closes a session and unregisters it. The code stays
// reserved until the room's subscriptions are dropped so a new room
// cannot inherit them. A non-empty reason is sent to the room as roomClosed.
func (r *Registry) removeSession(session *RoomSession, reason string) {
	if !session.closeWithReason(reason) {
		return
	}

	roomCode := session.GetRoomCode()
	if closer, ok := r.broadcaster.(RoomCloser); ok {
		closer.CloseRoom(roomCode)
	}

	r.mu.Lock()
	if r.sessions[roomCode] == session {
		delete(r.sessions, roomCode)
	}
	r.mu.Unlock()

	r.logger.Info("room deleted", "roomCode", roomCode)
}

// RoomCount returns the number of active rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// TeamCount returns the total number of teams across all rooms
func (r *Registry) TeamCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, session := range r.sessions {
		total += session.GetTeamCount()
	}
	return total
}

// Close shuts down the registry and all rooms
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*RoomSession)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// unusedRoomCode finds a code not currently registered (caller must hold lock)
func (r *Registry) unusedRoomCode() (string, error) {
	for attempts := 0; attempts < roomCodeAttempts; attempts++ {
		code, err := generateRoomCode()
		if err != nil {
			return "", err
		}
		if _, exists := r.sessions[code]; !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// generateRoomCode generates a random numeric room code
func generateRoomCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < RoomCodeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}

	return fmt.Sprintf("%0*d", RoomCodeLength, n.Int64()), nil
}

// cleanupLoop periodically evicts idle rooms
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.cleanupIdleRooms(time.Now())
		}
	}
}

// cleanupIdleRooms removes finished and stale rooms, telling any
// connected teams why
func (r *Registry) cleanupIdleRooms(now time.Time) int {
	r.mu.RLock()
	sessions := make([]*RoomSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	removed := 0
	for _, session := range sessions {
		reason, idle := r.idleReason(session, now)
		if !idle {
			continue
		}
		r.removeSession(session, reason)
		r.logger.Info("idle room cleaned up", "roomCode", session.GetRoomCode(), "reason", reason)
		removed++
	}

	return removed
}

const (
	reasonFinishedIdle = "game finished"
	reasonStale        = "room inactive"
)

func (r *Registry) idleReason(session *RoomSession, now time.Time) (string, bool) {
	idleFor := now.Sub(session.GetUpdatedAt())

	if r.cfg.FinishedRoomTTL > 0 && session.GetPhase() == domain.PhaseFinished && idleFor > r.cfg.FinishedRoomTTL {
		return reasonFinishedIdle, true
	}

	if r.cfg.StaleRoomTTL > 0 && idleFor > r.cfg.StaleRoomTTL {
		return reasonStale, true
	}

	return "", false
}
