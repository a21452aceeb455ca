package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrNotReady           = errors.New("not all teams are ready")
	ErrNotInProgress      = errors.New("no question is open for answers")
	ErrDuplicateAnswer    = errors.New("already answered this question")
	ErrDuplicateTeamName  = errors.New("team name already taken")
	ErrTeamNotFound       = errors.New("team not found")
	ErrNotHost            = errors.New("only host can perform this action")
	ErrInvalidName        = errors.New("invalid team name")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidQuestion    = errors.New("invalid question")
	ErrNoQuestions        = errors.New("no questions available")
	ErrInvalidTransition  = errors.New("invalid phase transition")
)
