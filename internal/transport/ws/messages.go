package ws

import (
	"encoding/json"
	"errors"
	"time"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCreateRoom   MessageType = "createRoom"
	MsgJoinRoom     MessageType = "joinRoom"
	MsgToggleReady  MessageType = "toggleReady"
	MsgStartGame    MessageType = "startGame"
	MsgLeaveRoom    MessageType = "leaveRoom"
	MsgChatMessage  MessageType = "chatMessage"
	MsgSubmitAnswer MessageType = "submitAnswer"
	MsgTimeUp       MessageType = "timeUp"
	MsgPing         MessageType = "ping"
)

// Server → Client message types sent directly by a connection.
// Room events are domain.Event values with the same shape.
const (
	MsgError MessageType = MessageType(domain.EventError)
	MsgPong  MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	RoomCode  string      `json:"roomCode"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, roomCode string, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		RoomCode:  roomCode,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Client message payloads

// CreateRoomPayload is the payload for createRoom
type CreateRoomPayload struct {
	TeamName string `json:"teamName"`
}

// JoinRoomPayload is the payload for joinRoom
type JoinRoomPayload struct {
	TeamName string `json:"teamName"`
	RoomCode string `json:"roomCode"`
}

// TeamPayload is the payload for toggleReady and leaveRoom
type TeamPayload struct {
	RoomCode string `json:"roomCode"`
	TeamName string `json:"teamName"`
}

// RoomPayload is the payload for startGame and timeUp
type RoomPayload struct {
	RoomCode string `json:"roomCode"`
}

// ChatPayload is the payload for chatMessage
type ChatPayload struct {
	RoomCode string `json:"roomCode"`
	TeamName string `json:"teamName"`
	Message  string `json:"message"`
}

// AnswerPayload is the payload for submitAnswer
type AnswerPayload struct {
	RoomCode string `json:"roomCode"`
	TeamName string `json:"teamName"`
	Answer   string `json:"answer"`
}

// Connection binding errors
var (
	ErrNotInRoom        = errors.New("connection has not joined a room")
	ErrAlreadyInRoom    = errors.New("connection is already in a room")
	ErrIdentityMismatch = errors.New("room or team does not match this connection")
)

// Error codes
const (
	ErrCodeInvalidMessage     = "INVALID_MESSAGE"
	ErrCodeRoomNotFound       = "ROOM_NOT_FOUND"
	ErrCodeRoomFull           = "ROOM_FULL"
	ErrCodeGameStarted        = "GAME_ALREADY_STARTED"
	ErrCodeNotReady           = "NOT_READY"
	ErrCodeNotInProgress      = "NOT_IN_PROGRESS"
	ErrCodeDuplicateTeamName  = "DUPLICATE_TEAM_NAME"
	ErrCodeTeamNotFound       = "TEAM_NOT_FOUND"
	ErrCodeNotHost            = "NOT_HOST"
	ErrCodeInvalidName        = "INVALID_NAME"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNoQuestions        = "NO_QUESTIONS"
	ErrCodeNotInRoom          = "NOT_IN_ROOM"
	ErrCodeAlreadyInRoom      = "ALREADY_IN_ROOM"
	ErrCodeIdentityMismatch   = "IDENTITY_MISMATCH"
	ErrCodeCodeSpaceExhausted = "NO_ROOM_CODE"
	ErrCodeRoomBusy           = "ROOM_BUSY"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrRoomNotFound, ErrCodeRoomNotFound},
	{domain.ErrRoomFull, ErrCodeRoomFull},
	{domain.ErrGameAlreadyStarted, ErrCodeGameStarted},
	{domain.ErrNotReady, ErrCodeNotReady},
	{domain.ErrNotInProgress, ErrCodeNotInProgress},
	{domain.ErrDuplicateTeamName, ErrCodeDuplicateTeamName},
	{domain.ErrTeamNotFound, ErrCodeTeamNotFound},
	{domain.ErrNotHost, ErrCodeNotHost},
	{domain.ErrInvalidName, ErrCodeInvalidName},
	{domain.ErrInvalidInput, ErrCodeInvalidInput},
	{domain.ErrNoQuestions, ErrCodeNoQuestions},
	{ErrNotInRoom, ErrCodeNotInRoom},
	{ErrAlreadyInRoom, ErrCodeAlreadyInRoom},
	{ErrIdentityMismatch, ErrCodeIdentityMismatch},
	{app.ErrCodeSpaceExhausted, ErrCodeCodeSpaceExhausted},
	{app.ErrRoomBusy, ErrCodeRoomBusy},
}

// errorCode maps an error to its wire code
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ErrCodeInternalError
}
