package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"quizroom/internal/domain"
)

const (
	// MaxChatMessageLength caps chat lines, in runes
	MaxChatMessageLength = 500

	// maxChatBacklog is how many undelivered events a room may hold before
	// further chat lines are refused. Game events are always queued.
	maxChatBacklog = 100

	// recordTimeout bounds persisting final scores
	recordTimeout = 5 * time.Second
)

// RemoveResult describes what a team removal did to the room
type RemoveResult struct {
	HostLeft bool
	Empty    bool
}

// Closed reports whether the room must be torn down
func (r RemoveResult) Closed() bool {
	return r.HostLeft || r.Empty
}

// RoomInfo is a read-only snapshot of a room
type RoomInfo struct {
	RoomCode  string            `json:"roomCode"`
	Phase     domain.Phase      `json:"phase"`
	Teams     []domain.TeamInfo `json:"teams"`
	TeamCount int               `json:"teamCount"`
	CanJoin   bool              `json:"canJoin"`
	CanStart  bool              `json:"canStart"`
	Question  int               `json:"question"`
	Total     int               `json:"totalQuestions"`
}

// RoomSession wraps a room with concurrency control, its phase timer
// and event fan-out. All room mutations happen under mu.
type RoomSession struct {
	room        *domain.Room
	mu          sync.Mutex
	source      QuestionSource
	recorder    ScoreRecorder
	broadcaster Broadcaster
	score       domain.ScoreFunc
	logger      *slog.Logger

	// Timers
	timer          *time.Timer
	timerSeq       uint64
	questionOpened time.Time
	starting       bool
	closed         bool

	// Outgoing events, delivered in order by eventLoop
	queueMu   sync.Mutex
	pending   []*domain.Event
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}
}

// NewRoomSession creates a new session for a room
func NewRoomSession(room *domain.Room, source QuestionSource, recorder ScoreRecorder, broadcaster Broadcaster, logger *slog.Logger) *RoomSession {
	s := &RoomSession{
		room:        room,
		source:      source,
		recorder:    recorder,
		broadcaster: broadcaster,
		score:       room.Settings.ScoreFunc(),
		logger:      logger.With("roomCode", room.Code),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		loopDone:    make(chan struct{}),
	}

	// Start event broadcaster
	go s.eventLoop()

	return s
}

// GetRoomCode returns the room code
func (s *RoomSession) GetRoomCode() string {
	return s.room.Code
}

// GetUpdatedAt returns when the room last changed
func (s *RoomSession) GetUpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.UpdatedAt
}

// GetTeamCount returns the number of teams
func (s *RoomSession) GetTeamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.room.Teams)
}

// GetPhase returns the current phase
func (s *RoomSession) GetPhase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Phase
}

// GetScores returns a copy of the scores
func (s *RoomSession) GetScores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.ScoreBoard()
}

// GetTeams returns the teams in join order
func (s *RoomSession) GetTeams() []domain.TeamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.GetTeamInfoList()
}

// Info returns a snapshot of the room
func (s *RoomSession) Info() RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return RoomInfo{
		RoomCode:  s.room.Code,
		Phase:     s.room.Phase,
		Teams:     s.room.GetTeamInfoList(),
		TeamCount: len(s.room.Teams),
		CanJoin:   s.canJoinLocked(),
		CanStart:  s.room.CanStart(),
		Question:  s.room.CurrentIndex + 1,
		Total:     len(s.room.Questions),
	}
}

// CanJoin checks if a new team can join
func (s *RoomSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canJoinLocked()
}

func (s *RoomSession) canJoinLocked() bool {
	if s.closed || s.room.Started() {
		return false
	}
	limit := s.room.Settings.MaxTeams
	return limit <= 0 || len(s.room.Teams) < limit
}

// AddTeam adds a guest team to the lobby
func (s *RoomSession) AddTeam(teamName string) ([]domain.TeamInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrRoomNotFound
	}

	team, err := s.room.AddTeam(teamName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team joined", "team", team.Name)
	s.queueEvent(domain.NewEvent(domain.EventTeamsUpdated, s.room.Code, s.room.GetTeamsState()))

	return s.room.GetTeamInfoList(), nil
}

// Welcome queues the roomCreated confirmation for a team that just created
// or joined the room. It is ordered with the room's other events.
func (s *RoomSession) Welcome(teamName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrRoomNotFound
	}

	if _, err := s.room.GetTeam(teamName); err != nil {
		return err
	}

	s.queueEvent(domain.NewTeamEvent(domain.EventRoomCreated, s.room.Code, teamName, &domain.RoomCreatedPayload{
		RoomCode: s.room.Code,
		Teams:    s.room.GetTeamInfoList(),
	}))

	return nil
}

// RemoveTeam removes a team. When the host leaves or the room empties
// the session is closed and the caller is expected to drop it.
func (s *RoomSession) RemoveTeam(teamName string) (RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return RemoveResult{}, domain.ErrRoomNotFound
	}

	wasHost, err := s.room.RemoveTeam(teamName)
	if err != nil {
		return RemoveResult{}, err
	}

	result := RemoveResult{HostLeft: wasHost, Empty: len(s.room.Teams) == 0}
	s.logger.Info("team left", "team", teamName, "host", wasHost)

	if result.Closed() {
		if !result.Empty {
			s.queueEvent(domain.NewEvent(domain.EventRoomClosed, s.room.Code, &domain.RoomClosedPayload{
				Reason: "host left the room",
			}))
		}
		s.closed = true
		s.stopTimerLocked()
		return result, nil
	}

	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.Code, s.room.GetTeamsState()))

	// A departure may complete the answer set
	if s.room.Phase == domain.PhaseInProgress && s.room.AllAnswered() {
		s.closeQuestionLocked(s.room.CurrentIndex)
	}

	return result, nil
}

// ToggleReady flips a guest team's readiness. Unknown teams and the host are ignored.
func (s *RoomSession) ToggleReady(teamName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.room.Started() {
		return
	}

	if s.room.ToggleReady(teamName) {
		s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.Code, s.room.GetTeamsState()))
	}
}

// Start draws the questions and opens the first one (host only). The draw
// runs without the room lock, so it is followed by a second readiness check.
func (s *RoomSession) Start(ctx context.Context, teamName string) error {
	count, err := s.beginStart(teamName)
	if err != nil {
		return err
	}

	questions, drawErr := s.source.Draw(ctx, count)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.starting = false
	if drawErr != nil {
		return drawErr
	}

	if err := s.checkStartLocked(teamName); err != nil {
		return err
	}

	if err := s.room.Start(questions); err != nil {
		return err
	}

	view, err := s.room.CurrentView()
	if err != nil {
		s.logger.Error("started room has no open question", "error", err)
		return err
	}

	s.logger.Info("game started", "questions", len(questions), "teams", len(s.room.Teams))
	s.queueEvent(domain.NewEvent(domain.EventGameStarted, s.room.Code, &domain.GameStartedPayload{
		FirstQuestion: view,
	}))
	s.openQuestionLocked()

	return nil
}

// beginStart validates a start request and marks a draw as in flight
func (s *RoomSession) beginStart(teamName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed && s.room.IsHost(teamName) && s.starting {
		return 0, domain.ErrGameAlreadyStarted
	}
	if err := s.checkStartLocked(teamName); err != nil {
		return 0, err
	}

	s.starting = true
	return s.room.Settings.QuestionCount, nil
}

func (s *RoomSession) checkStartLocked(teamName string) error {
	if s.closed {
		return domain.ErrRoomNotFound
	}

	if !s.room.IsHost(teamName) {
		return domain.ErrNotHost
	}

	if s.room.Started() {
		return domain.ErrGameAlreadyStarted
	}

	if !s.room.CanStart() {
		return domain.ErrNotReady
	}

	return nil
}

// SubmitAnswer records a team's answer for the open question.
// domain.ErrDuplicateAnswer is returned for resubmissions; nothing changes.
func (s *RoomSession) SubmitAnswer(teamName, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrRoomNotFound
	}

	award := s.score(s.room.Settings.BaseAward, s.timeLeftLocked())

	allAnswered, err := s.room.SubmitAnswer(teamName, option, award)
	if err != nil {
		return err
	}

	s.logger.Debug("answer recorded", "team", teamName, "question", s.room.CurrentIndex+1)

	if allAnswered {
		s.closeQuestionLocked(s.room.CurrentIndex)
	}

	return nil
}

// TimeUp is the client-signalled fallback for the countdown. It is honoured
// only once the question has been open for about its full duration.
func (s *RoomSession) TimeUp() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.room.Phase != domain.PhaseInProgress {
		return
	}

	minOpen := s.room.Settings.QuestionDuration - s.room.Settings.TimeUpTolerance
	if time.Since(s.questionOpened) < minOpen {
		s.logger.Debug("early time up ignored", "question", s.room.CurrentIndex+1)
		return
	}

	s.closeQuestionLocked(s.room.CurrentIndex)
}

// PostMessage fans a chat line out to the room
func (s *RoomSession) PostMessage(teamName, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrRoomNotFound
	}

	if _, err := s.room.GetTeam(teamName); err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrInvalidInput
	}
	if utf8.RuneCountInString(text) > MaxChatMessageLength {
		text = string([]rune(text)[:MaxChatMessageLength])
	}

	if s.backlog() >= maxChatBacklog {
		s.logger.Warn("chat refused, event backlog full", "team", teamName)
		return ErrRoomBusy
	}

	s.queueEvent(domain.NewEvent(domain.EventNewChatMessage, s.room.Code, &domain.ChatMessagePayload{
		ID:       uuid.New().String(),
		TeamName: teamName,
		Message:  text,
	}))

	return nil
}

// openQuestionLocked arms the countdown for the question at the cursor
func (s *RoomSession) openQuestionLocked() {
	index := s.room.CurrentIndex
	s.questionOpened = time.Now()
	s.scheduleLocked(s.room.Settings.QuestionDuration, func() {
		s.logger.Debug("question timed out", "question", index+1)
		s.closeQuestionLocked(index)
	})
}

// closeQuestionLocked is the single entry point of the advance sequence.
// Only the first trigger for a given question index has any effect.
func (s *RoomSession) closeQuestionLocked(index int) {
	if s.closed || s.room.Phase != domain.PhaseInProgress || s.room.CurrentIndex != index {
		return
	}

	correct, err := s.room.Reveal()
	if err != nil {
		s.logger.Error("failed to reveal question", "question", index+1, "error", err)
		return
	}

	s.queueEvent(domain.NewEvent(domain.EventShowResults, s.room.Code, &domain.ShowResultsPayload{
		CorrectAnswer: correct,
		Scores:        s.room.ScoreBoard(),
	}))

	s.scheduleLocked(s.room.Settings.RevealInterval, s.advanceLocked)
}

// advanceLocked ends the reveal window
func (s *RoomSession) advanceLocked() {
	more, err := s.room.Advance()
	if err != nil {
		s.logger.Error("failed to advance room", "error", err)
		return
	}

	if more {
		view, err := s.room.CurrentView()
		if err != nil {
			s.logger.Error("advanced room has no open question", "error", err)
			return
		}

		s.queueEvent(domain.NewEvent(domain.EventShowQuestion, s.room.Code, &domain.ShowQuestionPayload{
			Question: view,
		}))
		s.openQuestionLocked()
		return
	}

	scores := s.room.ScoreBoard()
	s.logger.Info("game over", "scores", scores)
	s.queueEvent(domain.NewEvent(domain.EventGameOver, s.room.Code, &domain.GameOverPayload{
		Scores: scores,
	}))

	if s.recorder != nil {
		go s.recordScores(scores)
	}
}

func (s *RoomSession) recordScores(scores map[string]int) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := s.recorder.RecordScores(ctx, s.room.Code, scores); err != nil {
		s.logger.Error("failed to record scores", "error", err)
	}
}

// timeLeftLocked returns whole seconds left on the open question
func (s *RoomSession) timeLeftLocked() int {
	left := s.room.Settings.QuestionDuration - time.Since(s.questionOpened)
	if left < 0 {
		return 0
	}
	return int(left.Seconds())
}

// scheduleLocked replaces the room's pending timer. The callback runs under
// the room lock and is dropped if another timer was armed in the meantime.
func (s *RoomSession) scheduleLocked(d time.Duration, fn func()) {
	s.stopTimerLocked()
	seq := s.timerSeq

	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || s.timerSeq != seq {
			return
		}
		s.timer = nil
		fn()
	})
}

func (s *RoomSession) stopTimerLocked() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// queueEvent appends an event to the room's outgoing queue. It never
// blocks and never drops; only PostMessage refuses work on a long backlog.
func (s *RoomSession) queueEvent(event *domain.Event) {
	s.queueMu.Lock()
	s.pending = append(s.pending, event)
	s.queueMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *RoomSession) backlog() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.pending)
}

// eventLoop processes events and broadcasts to clients
func (s *RoomSession) eventLoop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.done:
			s.drainEvents()
			return
		case <-s.wake:
			s.drainEvents()
		}
	}
}

func (s *RoomSession) drainEvents() {
	for {
		s.queueMu.Lock()
		batch := s.pending
		s.pending = nil
		s.queueMu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			s.deliver(event)
		}
	}
}

func (s *RoomSession) deliver(event *domain.Event) {
	if event.TeamName != "" {
		s.broadcaster.SendTo(event.RoomCode, event.TeamName, event)
		return
	}
	s.broadcaster.Broadcast(event.RoomCode, event)
}

// Close stops the timer and flushes queued events
func (s *RoomSession) Close() {
	s.closeWithReason("")
}

// closeWithReason closes the session, first telling the room why when a
// reason is given and the room was still open. It reports whether this
// call performed the close.
func (s *RoomSession) closeWithReason(reason string) bool {
	closedNow := false
	s.closeOnce.Do(func() {
		closedNow = true

		s.mu.Lock()
		if !s.closed && reason != "" {
			s.queueEvent(domain.NewEvent(domain.EventRoomClosed, s.room.Code, &domain.RoomClosedPayload{
				Reason: reason,
			}))
		}
		s.closed = true
		s.stopTimerLocked()
		s.mu.Unlock()

		close(s.done)
		<-s.loopDone
	})
	return closedNow
}
