package app

import (
	"context"
	"math/rand"
	"sync"

	"quizroom/internal/domain"
)

// QuestionSource supplies the questions for a game
type QuestionSource interface {
	// Draw returns up to count distinct questions in random order
	Draw(ctx context.Context, count int) ([]domain.Question, error)
}

// ScoreRecorder persists final scores of a finished game
type ScoreRecorder interface {
	RecordScores(ctx context.Context, roomCode string, scores map[string]int) error
}

// DeckSource draws from an in-memory deck
type DeckSource struct {
	mu        sync.Mutex
	questions []domain.Question
	rng       *rand.Rand
}

// NewDeckSource creates a source over the given questions
func NewDeckSource(questions []domain.Question, seed int64) *DeckSource {
	deck := make([]domain.Question, len(questions))
	copy(deck, questions)

	return &DeckSource{
		questions: deck,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// NewDefaultDeckSource creates a source over the built-in questions
func NewDefaultDeckSource(seed int64) *DeckSource {
	return NewDeckSource(DefaultQuestions, seed)
}

// Draw samples count questions without repeats
func (d *DeckSource) Draw(ctx context.Context, count int) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	if count <= 0 || count > len(d.questions) {
		count = len(d.questions)
	}

	drawn := make([]domain.Question, 0, count)
	for _, i := range d.rng.Perm(len(d.questions))[:count] {
		drawn = append(drawn, d.questions[i])
	}

	return drawn, nil
}

// Len returns the size of the deck
func (d *DeckSource) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.questions)
}

// DefaultQuestions is a small general-knowledge deck used when no question bank is configured
var DefaultQuestions = []domain.Question{
	// Geography
	{Text: "What is the capital of France?", Options: []string{"Berlin", "Paris", "Madrid", "Rome"}, CorrectOption: "Paris", Category: "Geography", Difficulty: "easy"},
	{Text: "Which is the longest river in the world?", Options: []string{"Amazon", "Nile", "Yangtze", "Mississippi"}, CorrectOption: "Nile", Category: "Geography", Difficulty: "medium"},
	{Text: "Which country has the most natural lakes?", Options: []string{"Canada", "Russia", "Finland", "United States"}, CorrectOption: "Canada", Category: "Geography", Difficulty: "hard"},
	{Text: "What is the capital of Australia?", Options: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, CorrectOption: "Canberra", Category: "Geography", Difficulty: "medium"},
	{Text: "Which city is split between Europe and Asia?", Options: []string{"Istanbul", "Athens", "Cairo", "Baku"}, CorrectOption: "Istanbul", Category: "Geography", Difficulty: "easy"},

	// Science
	{Text: "What is the chemical symbol for gold?", Options: []string{"Ag", "Au", "Gd", "Go"}, CorrectOption: "Au", Category: "Science", Difficulty: "easy"},
	{Text: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Jupiter", "Mars", "Mercury"}, CorrectOption: "Mars", Category: "Science", Difficulty: "easy"},
	{Text: "What is the hardest natural substance?", Options: []string{"Quartz", "Diamond", "Granite", "Topaz"}, CorrectOption: "Diamond", Category: "Science", Difficulty: "easy"},
	{Text: "How many bones are in the adult human body?", Options: []string{"196", "206", "216", "226"}, CorrectOption: "206", Category: "Science", Difficulty: "medium"},
	{Text: "What gas do plants absorb from the atmosphere?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, CorrectOption: "Carbon dioxide", Category: "Science", Difficulty: "easy"},

	// History
	{Text: "In which year did the Berlin Wall fall?", Options: []string{"1987", "1989", "1991", "1993"}, CorrectOption: "1989", Category: "History", Difficulty: "medium"},
	{Text: "Who was the first person to walk on the Moon?", Options: []string{"Buzz Aldrin", "Yuri Gagarin", "Neil Armstrong", "John Glenn"}, CorrectOption: "Neil Armstrong", Category: "History", Difficulty: "easy"},
	{Text: "Which empire built Machu Picchu?", Options: []string{"Aztec", "Maya", "Inca", "Olmec"}, CorrectOption: "Inca", Category: "History", Difficulty: "medium"},
	{Text: "In which city was the Ottoman Empire founded?", Options: []string{"Bursa", "Söğüt", "Edirne", "Konya"}, CorrectOption: "Söğüt", Category: "History", Difficulty: "hard"},

	// Sports
	{Text: "How many players does a football team field?", Options: []string{"9", "10", "11", "12"}, CorrectOption: "11", Category: "Sports", Difficulty: "easy"},
	{Text: "Which country hosted the 2016 Summer Olympics?", Options: []string{"China", "Brazil", "United Kingdom", "Japan"}, CorrectOption: "Brazil", Category: "Sports", Difficulty: "easy"},
	{Text: "How long is a marathon in kilometres?", Options: []string{"40.195", "42.195", "44.195", "41.195"}, CorrectOption: "42.195", Category: "Sports", Difficulty: "medium"},

	// Art
	{Text: "Who painted the Mona Lisa?", Options: []string{"Michelangelo", "Raphael", "Leonardo da Vinci", "Donatello"}, CorrectOption: "Leonardo da Vinci", Category: "Art", Difficulty: "easy"},
	{Text: "Which composer wrote the Ninth Symphony 'Ode to Joy'?", Options: []string{"Mozart", "Beethoven", "Bach", "Haydn"}, CorrectOption: "Beethoven", Category: "Art", Difficulty: "easy"},
	{Text: "Which artist cut off part of his own ear?", Options: []string{"Van Gogh", "Monet", "Picasso", "Dalí"}, CorrectOption: "Van Gogh", Category: "Art", Difficulty: "easy"},
}
