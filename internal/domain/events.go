package domain

import "time"

// EventType represents the type of room event
type EventType string

const (
	EventRoomCreated    EventType = "roomCreated"
	EventRoomUpdated    EventType = "roomUpdated"
	EventTeamsUpdated   EventType = "teamsUpdated"
	EventGameStarted    EventType = "gameStarted"
	EventShowQuestion   EventType = "showQuestion"
	EventShowResults    EventType = "showResults"
	EventGameOver       EventType = "gameOver"
	EventNewChatMessage EventType = "newChatMessage"
	EventRoomClosed     EventType = "roomClosed"
	EventError          EventType = "error"
)

// Event represents something that happened in a room
type Event struct {
	Type      EventType   `json:"type"`
	RoomCode  string      `json:"roomCode"`
	TeamName  string      `json:"teamName,omitempty"` // If event is team-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new room-wide event
func NewEvent(eventType EventType, roomCode string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		RoomCode:  roomCode,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewTeamEvent creates a new event addressed to one team
func NewTeamEvent(eventType EventType, roomCode, teamName string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		RoomCode:  roomCode,
		TeamName:  teamName,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Payload types for different events

// RoomCreatedPayload is sent to a team after it creates or joins a room
type RoomCreatedPayload struct {
	RoomCode string     `json:"roomCode"`
	Teams    []TeamInfo `json:"teams"`
}

// TeamsPayload is sent when membership or readiness changes
type TeamsPayload struct {
	Teams    []TeamInfo `json:"teams"`
	CanStart bool       `json:"canStart"`
}

// GameStartedPayload is sent when the first question opens
type GameStartedPayload struct {
	FirstQuestion QuestionView `json:"firstQuestion"`
}

// ShowQuestionPayload is sent when a following question opens
type ShowQuestionPayload struct {
	Question QuestionView `json:"question"`
}

// ShowResultsPayload is sent when a question closes
type ShowResultsPayload struct {
	CorrectAnswer string         `json:"correctAnswer"`
	Scores        map[string]int `json:"scores"`
}

// GameOverPayload is sent after the last reveal
type GameOverPayload struct {
	Scores map[string]int `json:"scores"`
}

// ChatMessagePayload is a chat line fanned out to the room
type ChatMessagePayload struct {
	ID       string `json:"id"`
	TeamName string `json:"teamName"`
	Message  string `json:"message"`
}

// RoomClosedPayload is sent to the remaining teams when a room is torn down
type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// ErrorPayload is sent when an error occurs
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
