package storage

import (
	"sync"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

// QuizStorage provides in-memory storage for the active question batch of
// each Telegram user.
type QuizStorage struct {
	mu        sync.RWMutex
	questions map[int64][]entities.Question
}

// NewQuizStorage creates a new QuizStorage.
func NewQuizStorage() *QuizStorage {
	return &QuizStorage{
		questions: make(map[int64][]entities.Question),
	}
}

// Store replaces the active batch of a user.
func (s *QuizStorage) Store(telegramID int64, questions []entities.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[telegramID] = questions
}

// Get returns the active batch of a user.
func (s *QuizStorage) Get(telegramID int64) []entities.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions[telegramID]
}

// Question returns the question at position index of the active batch.
func (s *QuizStorage) Question(telegramID int64, index int) (entities.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	questions := s.questions[telegramID]
	if index < 0 || index >= len(questions) {
		return entities.Question{}, false
	}
	return questions[index], true
}

// Delete removes the active batch of a user.
func (s *QuizStorage) Delete(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.questions, telegramID)
}
