package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"quizroom/internal/domain"
)

// seedQuestion is the on-disk format of a question file
type seedQuestion struct {
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
}

// Draw returns up to count random questions. Rows that are not playable are skipped.
func (s *Store) Draw(ctx context.Context, count int) ([]domain.Question, error) {
	if count <= 0 {
		count = -1
	}

	var records []QuestionRecord
	err := s.db.WithContext(ctx).
		Order(s.randomOrder()).
		Limit(count).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(records))
	for _, record := range records {
		q := record.ToDomain()
		if err := q.Validate(); err != nil {
			s.logger.Warn("skipping invalid question", "id", record.ID, "error", err)
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	return questions, nil
}

// AddQuestion stores a new question
func (s *Store) AddQuestion(ctx context.Context, q domain.Question) (uint, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}

	record := recordFromDomain(q)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, fmt.Errorf("add question: %w", err)
	}

	return record.ID, nil
}

// CountQuestions returns the size of the question bank
func (s *Store) CountQuestions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&QuestionRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// Categories returns the distinct question categories
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	err := s.db.WithContext(ctx).
		Model(&QuestionRecord{}).
		Where("category <> ?", "").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// SeedFromFile loads questions from a JSON file into an empty bank.
// It returns the number of questions inserted.
func (s *Store) SeedFromFile(ctx context.Context, path string) (int, error) {
	existing, err := s.CountQuestions(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		s.logger.Debug("question bank already populated", "questions", existing)
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read questions file: %w", err)
	}

	var seeds []seedQuestion
	if err := json.Unmarshal(data, &seeds); err != nil {
		return 0, fmt.Errorf("parse questions file: %w", err)
	}

	records := make([]QuestionRecord, 0, len(seeds))
	for i, seed := range seeds {
		q := domain.Question{
			Text:          seed.Question,
			Options:       seed.Options,
			CorrectOption: seed.CorrectAnswer,
			Category:      seed.Category,
			Difficulty:    seed.Difficulty,
		}
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i+1, err)
		}
		records = append(records, recordFromDomain(q))
	}

	if len(records) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}

	s.logger.Info("question bank seeded", "questions", len(records), "file", path)

	return len(records), nil
}
