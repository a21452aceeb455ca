package store

import (
	"time"

	"quizroom/internal/domain"
)

// QuestionRecord is a row of the question bank
type QuestionRecord struct {
	ID            uint   `gorm:"primaryKey"`
	Category      string `gorm:"size:64;index"`
	Difficulty    string `gorm:"size:16"`
	Question      string `gorm:"type:text;not null"`
	OptionA       string `gorm:"size:255;not null"`
	OptionB       string `gorm:"size:255;not null"`
	OptionC       string `gorm:"size:255;not null"`
	OptionD       string `gorm:"size:255;not null"`
	CorrectAnswer string `gorm:"size:255;not null"`
	CreatedAt     time.Time
}

// TableName overrides the default table name
func (QuestionRecord) TableName() string {
	return "questions"
}

// ToDomain converts the row into a playable question
func (r QuestionRecord) ToDomain() domain.Question {
	return domain.Question{
		Text:          r.Question,
		Options:       []string{r.OptionA, r.OptionB, r.OptionC, r.OptionD},
		CorrectOption: r.CorrectAnswer,
		Category:      r.Category,
		Difficulty:    r.Difficulty,
	}
}

func recordFromDomain(q domain.Question) QuestionRecord {
	return QuestionRecord{
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		Question:      q.Text,
		OptionA:       q.Options[0],
		OptionB:       q.Options[1],
		OptionC:       q.Options[2],
		OptionD:       q.Options[3],
		CorrectAnswer: q.CorrectOption,
	}
}

// HighScore is the final score of one team in a finished game
type HighScore struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RoomCode  string    `gorm:"size:6;index" json:"roomCode"`
	TeamName  string    `gorm:"size:32" json:"teamName"`
	Score     int       `gorm:"index" json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}
