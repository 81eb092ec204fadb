package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

var (
	ErrNoQuestionsAvailable = errors.New("no questions available")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrInvalidOption        = errors.New("invalid option")
)

// SessionResult summarizes a finished repetition.
type SessionResult struct {
	Submitted int
	Correct   int
}

// StudyService runs repetition sessions on top of a client bundle.
type StudyService struct {
	api         QuestionAPI
	quizStorage QuizStorage
	batchSize   int
	defaultMode string
	now         func() time.Time
	logger      *zap.Logger
}

// NewStudyService creates a new StudyService.
func NewStudyService(
	api QuestionAPI,
	quizStorage QuizStorage,
	batchSize int,
	defaultMode string,
	logger *zap.Logger,
) *StudyService {
	if defaultMode == "" {
		defaultMode = entities.QuestionModeMixed
	}
	return &StudyService{
		api:         api,
		quizStorage: quizStorage,
		batchSize:   batchSize,
		defaultMode: defaultMode,
		now:         time.Now,
		logger:      logger,
	}
}

// StartRepetition clears the answer buffer and fetches a new question batch
// for the client's exam country and language. An empty mode means the
// configured default.
func (s *StudyService) StartRepetition(
	ctx context.Context, client *storage.Client, mode, topic string,
) ([]entities.Question, error) {
	sess := client.Session
	if !sess.IsAuthenticated() {
		return nil, session.ErrNotAuthenticated
	}
	if mode == "" {
		mode = s.defaultMode
	}

	settings := sess.Settings()
	questions, err := s.api.GetQuestions(ctx, entities.QuestionFilter{
		UserID:    sess.UserID(),
		Country:   settings.ExamCountry,
		Language:  settings.ExamLanguage,
		Mode:      mode,
		BatchSize: s.batchSize,
		Topic:     topic,
	})
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	sess.StartRepetition()
	s.quizStorage.Store(client.TelegramID, questions)

	s.logger.Debug("repetition started",
		zap.Int64("telegram_id", client.TelegramID),
		zap.String("mode", mode),
		zap.Int("questions", len(questions)),
	)

	return questions, nil
}

// Question returns the question at index of the client's active batch.
func (s *StudyService) Question(client *storage.Client, index int) (entities.Question, error) {
	q, ok := s.quizStorage.Question(client.TelegramID, index)
	if !ok {
		return entities.Question{}, ErrQuestionNotFound
	}
	return q, nil
}

// QuestionCount returns the size of the client's active batch.
func (s *StudyService) QuestionCount(client *storage.Client) int {
	return len(s.quizStorage.Get(client.TelegramID))
}

// Answer evaluates the selected option and buffers the answer. Repeated
// answers to the same question keep the first one; the returned correctness
// is always that of the buffered answer.
func (s *StudyService) Answer(client *storage.Client, question entities.Question, selected int) (bool, error) {
	if selected < 0 || selected >= len(question.Options) {
		return false, ErrInvalidOption
	}

	answer := entities.Answer{
		QuestionID:    question.ID,
		SelectedIndex: selected,
		IsCorrect:     question.IsCorrect(selected),
		Timestamp:     s.now(),
	}
	if client.Session.AddAnswer(answer) {
		return answer.IsCorrect, nil
	}

	for _, a := range client.Session.Answers() {
		if a.QuestionID == question.ID {
			return a.IsCorrect, nil
		}
	}
	return answer.IsCorrect, nil
}

// Finish submits the buffered answers and ends the repetition. The result
// is counted from the answers actually sent. On success the statistics are
// adjusted optimistically and reconciled in the background. An empty buffer
// yields a zero result. After a failure the answers stay buffered for the
// sync job.
func (s *StudyService) Finish(ctx context.Context, client *storage.Client) (SessionResult, error) {
	defer client.Session.EndRepetition()

	batch, err := client.Session.SubmitAnswers(ctx)
	if err != nil {
		return SessionResult{}, err
	}
	s.quizStorage.Delete(client.TelegramID)
	if len(batch) == 0 {
		return SessionResult{}, nil
	}

	result := SessionResult{Submitted: len(batch)}
	for _, a := range batch {
		if a.IsCorrect {
			result.Correct++
		}
	}

	client.Stats.ApplySessionResult(result.Correct, result.Submitted)
	client.Stats.ReconcileAsync(ctx, client.Session.UserID(), entities.FormatDate(s.now()))

	return result, nil
}
