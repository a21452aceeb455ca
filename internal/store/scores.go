package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// RecordScores stores the final scores of a finished game
func (s *Store) RecordScores(ctx context.Context, roomCode string, scores map[string]int) error {
	if len(scores) == 0 {
		return nil
	}

	rows := make([]HighScore, 0, len(scores))
	for team, score := range scores {
		rows = append(rows, HighScore{RoomCode: roomCode, TeamName: team, Score: score})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("record scores for room %s: %w", roomCode, err)
		}
		return nil
	})
}

// DefaultTopScores is the number of scores returned when no limit is given
const DefaultTopScores = 10

// TopScores returns the best recorded scores, highest first
func (s *Store) TopScores(ctx context.Context, limit int) ([]HighScore, error) {
	if limit <= 0 {
		limit = DefaultTopScores
	}

	scores := make([]HighScore, 0, limit)
	err := s.db.WithContext(ctx).
		Order("score DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return scores, nil
}
