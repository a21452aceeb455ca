package domain

import (
	"fmt"
	"strings"
)

// OptionCount is the number of options every question carries
const OptionCount = 4

// Question is a single trivia question drawn into a room
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctAnswer"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// Validate checks that the question is playable
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: want %d options, got %d", ErrInvalidQuestion, OptionCount, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: option %d is empty", ErrInvalidQuestion, i+1)
		}
	}
	if !q.HasOption(q.CorrectOption) {
		return fmt.Errorf("%w: correct answer %q is not an option", ErrInvalidQuestion, q.CorrectOption)
	}
	return nil
}

// HasOption reports whether option is one of the question's options
func (q Question) HasOption(option string) bool {
	for _, opt := range q.Options {
		if opt == option {
			return true
		}
	}
	return false
}

// QuestionView is what clients see while a question is open.
// It never carries the correct option.
type QuestionView struct {
	Text           string   `json:"question"`
	Options        []string `json:"options"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
	Time           int      `json:"time"`
}

// View builds the client view of the question at the given 0-based index
func (q Question) View(index, total, seconds int) QuestionView {
	options := make([]string, len(q.Options))
	copy(options, q.Options)

	return QuestionView{
		Text:           q.Text,
		Options:        options,
		QuestionNumber: index + 1,
		TotalQuestions: total,
		Time:           seconds,
	}
}
