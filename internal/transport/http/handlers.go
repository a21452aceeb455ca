package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"quizroom/internal/domain"
	"quizroom/internal/store"
)

const maxHighScores = 100

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomCode       string `json:"roomCode"`
	TeamCount      int    `json:"teamCount"`
	Phase          string `json:"phase"`
	CanJoin        bool   `json:"canJoin"`
	Question       int    `json:"question"`
	TotalQuestions int    `json:"totalQuestions"`
}

// RoomExistsResponse is the response for checking if room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms int `json:"activeRooms"`
	TotalTeams  int `json:"totalTeams"`
}

// HighScoreResponse is one entry of the high score table
type HighScoreResponse struct {
	RoomCode string    `json:"roomCode"`
	TeamName string    `json:"teamName"`
	Score    int       `json:"score"`
	PlayedAt time.Time `json:"playedAt"`
}

// QuestionInput is the body of POST /api/questions
type QuestionInput struct {
	Category      string   `json:"category" binding:"max=64"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Question      string   `json:"question" binding:"required,max=500"`
	Options       []string `json:"options" binding:"required,len=4,dive,required,max=255"`
	CorrectAnswer string   `json:"correctAnswer" binding:"required"`
}

// CreateQuestionResponse is the response for adding a question
type CreateQuestionResponse struct {
	ID uint `json:"id"`
}

// handleGetRoom handles GET /api/rooms/:roomCode
func (s *Server) handleGetRoom(c *gin.Context) {
	session, err := s.registry.GetRoom(strings.TrimSpace(c.Param("roomCode")))
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.sendError(c, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		} else {
			s.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	info := session.Info()
	s.sendSuccess(c, http.StatusOK, &GetRoomResponse{
		RoomCode:       info.RoomCode,
		TeamCount:      info.TeamCount,
		Phase:          string(info.Phase),
		CanJoin:        info.CanJoin,
		Question:       info.Question,
		TotalQuestions: info.Total,
	})
}

// handleRoomExists handles GET /api/rooms/:roomCode/exists
func (s *Server) handleRoomExists(c *gin.Context) {
	_, err := s.registry.GetRoom(strings.TrimSpace(c.Param("roomCode")))

	s.sendSuccess(c, http.StatusOK, &RoomExistsResponse{
		Exists: err == nil,
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(c *gin.Context) {
	s.sendSuccess(c, http.StatusOK, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(c *gin.Context) {
	s.sendSuccess(c, http.StatusOK, &StatsResponse{
		ActiveRooms: s.registry.RoomCount(),
		TotalTeams:  s.registry.TeamCount(),
	})
}

// handleHighScores handles GET /api/highscores
func (s *Server) handleHighScores(c *gin.Context) {
	limit := store.DefaultTopScores
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHighScores {
			s.sendError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	scores, err := s.bank.TopScores(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to load high scores", "error", err)
		s.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	response := make([]HighScoreResponse, 0, len(scores))
	for _, hs := range scores {
		response = append(response, HighScoreResponse{
			RoomCode: hs.RoomCode,
			TeamName: hs.TeamName,
			Score:    hs.Score,
			PlayedAt: hs.CreatedAt,
		})
	}

	s.sendSuccess(c, http.StatusOK, response)
}

// handleCategories handles GET /api/categories
func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.bank.Categories(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to load categories", "error", err)
		s.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(c, http.StatusOK, categories)
}

// handleAddQuestion handles POST /api/questions
func (s *Server) handleAddQuestion(c *gin.Context) {
	var input QuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		s.sendError(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	id, err := s.bank.AddQuestion(c.Request.Context(), domain.Question{
		Text:          strings.TrimSpace(input.Question),
		Options:       input.Options,
		CorrectOption: input.CorrectAnswer,
		Category:      strings.TrimSpace(input.Category),
		Difficulty:    input.Difficulty,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuestion) {
			s.sendError(c, http.StatusBadRequest, "INVALID_QUESTION", err.Error())
			return
		}
		s.logger.Error("failed to add question", "error", err)
		s.sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	s.sendSuccess(c, http.StatusCreated, &CreateQuestionResponse{ID: id})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, &Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
