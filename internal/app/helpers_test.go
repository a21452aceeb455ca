package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizroom/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingBroadcaster keeps every delivered event. Team-addressed
// events are recorded only when they arrive through SendTo.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*domain.Event
}

func (b *recordingBroadcaster) Broadcast(roomCode string, event *domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) SendTo(roomCode, teamName string, event *domain.Event) {
	if event.TeamName != teamName {
		return
	}
	b.Broadcast(roomCode, event)
}

func (b *recordingBroadcaster) ofType(roomCode string, eventType domain.EventType) []*domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	matched := make([]*domain.Event, 0)
	for _, e := range b.events {
		if e.RoomCode == roomCode && e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (b *recordingBroadcaster) count(roomCode string, eventType domain.EventType) int {
	return len(b.ofType(roomCode, eventType))
}

func (b *recordingBroadcaster) waitFor(t *testing.T, roomCode string, eventType domain.EventType, n int) []*domain.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return b.count(roomCode, eventType) >= n
	}, 2*time.Second, 5*time.Millisecond, "waiting for %d %s events", n, eventType)
	return b.ofType(roomCode, eventType)
}

// orderedSource hands out its questions in order
type orderedSource struct {
	questions []domain.Question
	err       error
}

func (s *orderedSource) Draw(_ context.Context, count int) ([]domain.Question, error) {
	if s.err != nil {
		return nil, s.err
	}
	if count > len(s.questions) {
		count = len(s.questions)
	}
	return s.questions[:count], nil
}

// memoryRecorder keeps recorded scores
type memoryRecorder struct {
	mu     sync.Mutex
	scores map[string]map[string]int
}

func (r *memoryRecorder) RecordScores(_ context.Context, roomCode string, scores map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scores == nil {
		r.scores = make(map[string]map[string]int)
	}
	r.scores[roomCode] = scores
	return nil
}

func (r *memoryRecorder) get(roomCode string) (map[string]int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scores[roomCode]
	return s, ok
}

var errSourceDown = errors.New("question bank unavailable")

func parisQuestion() domain.Question {
	return domain.Question{
		Text:          "What is the capital of France?",
		Options:       []string{"Berlin", "Paris", "Madrid", "Rome"},
		CorrectOption: "Paris",
	}
}

func sumQuestion() domain.Question {
	return domain.Question{
		Text:          "2 + 2?",
		Options:       []string{"3", "4", "5", "22"},
		CorrectOption: "4",
	}
}

func fastSettings() domain.GameSettings {
	return domain.GameSettings{
		QuestionCount:    10,
		QuestionDuration: time.Hour,
		RevealInterval:   20 * time.Millisecond,
		BaseAward:        10,
		TimeUpTolerance:  time.Second,
		MaxTeams:         8,
	}
}

type harness struct {
	registry    *Registry
	broadcaster *recordingBroadcaster
	recorder    *memoryRecorder
	source      *orderedSource
}

func newHarness(t *testing.T, settings domain.GameSettings, questions ...domain.Question) *harness {
	t.Helper()

	h := &harness{
		broadcaster: &recordingBroadcaster{},
		recorder:    &memoryRecorder{},
		source:      &orderedSource{questions: questions},
	}
	h.registry = NewRegistry(RegistryConfig{Settings: settings}, h.source, h.recorder, h.broadcaster, discardLogger())
	t.Cleanup(h.registry.Close)

	return h
}

// lobby creates a room hosted by "Host" with the given ready guests
func (h *harness) lobby(t *testing.T, guests ...string) *RoomSession {
	t.Helper()

	session, _, err := h.registry.CreateRoom("Host")
	require.NoError(t, err)

	for _, g := range guests {
		_, _, err := h.registry.JoinRoom(session.GetRoomCode(), g)
		require.NoError(t, err)
		session.ToggleReady(g)
	}
	return session
}

// blockingSource holds every draw until release is closed
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingSource() *blockingSource {
	return &blockingSource{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *blockingSource) Draw(ctx context.Context, count int) ([]domain.Question, error) {
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return []domain.Question{parisQuestion()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// gatedBroadcaster blocks room-wide deliveries until opened
type gatedBroadcaster struct {
	recordingBroadcaster
	gate chan struct{}
	once sync.Once
}

func newGatedBroadcaster() *gatedBroadcaster {
	return &gatedBroadcaster{gate: make(chan struct{})}
}

func (b *gatedBroadcaster) Broadcast(roomCode string, event *domain.Event) {
	<-b.gate
	b.recordingBroadcaster.Broadcast(roomCode, event)
}

func (b *gatedBroadcaster) open() {
	b.once.Do(func() { close(b.gate) })
}
