package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/exam-prep-bot/internal/domain/entities"
)

const maxErrorBody = 512

// Client is a typed client for the quiz backend.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend rooted at baseURL.
// A zero timeout leaves the request without a client-side deadline.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	return nil
}

// GetUserByTelegramID looks a user up by Telegram ID.
// Returns ErrNotFound if the user is not registered.
func (c *Client) GetUserByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	var user entities.User
	path := "/users/telegram/" + strconv.FormatInt(telegramID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates the user or returns the existing record for the same Telegram ID.
func (c *Client) CreateUser(ctx context.Context, payload entities.UserCreate) (*entities.User, error) {
	var user entities.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PatchUser applies a partial update and returns the updated record.
func (c *Client) PatchUser(ctx context.Context, userID string, patch entities.UserPatch) (*entities.User, error) {
	var user entities.User
	if err := c.do(ctx, http.MethodPatch, userPath(userID, ""), nil, patch, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetQuestions returns a batch of questions matching the filter.
func (c *Client) GetQuestions(ctx context.Context, filter entities.QuestionFilter) ([]entities.Question, error) {
	q := url.Values{}
	q.Set("user_id", filter.UserID)
	setIfNotEmpty(q, "country", filter.Country)
	setIfNotEmpty(q, "language", filter.Language)
	setIfNotEmpty(q, "mode", filter.Mode)
	setIfNotEmpty(q, "topic", filter.Topic)
	if filter.BatchSize > 0 {
		q.Set("batch_size", strconv.Itoa(filter.BatchSize))
	}

	var questions []entities.Question
	if err := c.do(ctx, http.MethodGet, "/questions", q, nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SubmitAnswers records a batch of answers for the user.
func (c *Client) SubmitAnswers(ctx context.Context, userID string, answers []entities.AnswerSubmission) error {
	body := struct {
		Answers []entities.AnswerSubmission `json:"answers"`
	}{Answers: answers}
	return c.do(ctx, http.MethodPost, userPath(userID, "/answers"), nil, body, nil)
}

// GetUserStats returns aggregate answer counters.
func (c *Client) GetUserStats(ctx context.Context, userID string) (*entities.UserStats, error) {
	var stats entities.UserStats
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/stats"), nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetDailyProgress returns mastered questions for date ("YYYY-MM-DD").
// An empty date lets the backend use its own current date.
func (c *Client) GetDailyProgress(ctx context.Context, userID, date string) (*entities.DailyProgress, error) {
	q := url.Values{}
	setIfNotEmpty(q, "date", date)

	var progress entities.DailyProgress
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/daily-progress"), q, nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetWeeklyProgress returns mastered counts for the last 7 days, oldest first.
func (c *Client) GetWeeklyProgress(ctx context.Context, userID string) ([]int, error) {
	var resp struct {
		Days []int `json:"days"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/weekly-progress"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Days, nil
}

// GetExamSettings returns the user's exam date and daily goal.
func (c *Client) GetExamSettings(ctx context.Context, userID string) (*entities.ExamSettings, error) {
	var settings entities.ExamSettings
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/exam-settings"), nil, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateExamSettings writes the exam date and/or daily goal.
func (c *Client) UpdateExamSettings(ctx context.Context, userID string, update entities.ExamSettingsUpdate) (*entities.ExamSettings, error) {
	var settings entities.ExamSettings
	if err := c.do(ctx, http.MethodPut, userPath(userID, "/exam-settings"), nil, update, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetRemainingCount returns how many questions the user has not mastered yet.
func (c *Client) GetRemainingCount(ctx context.Context, userID, country, language string) (int, error) {
	q := url.Values{}
	setIfNotEmpty(q, "country", country)
	setIfNotEmpty(q, "language", language)

	var resp struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, userPath(userID, "/remaining-count"), q, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetTopics returns the ordered topic list of a question bank.
func (c *Client) GetTopics(ctx context.Context, country, language string) ([]string, error) {
	q := url.Values{}
	setIfNotEmpty(q, "country", country)
	setIfNotEmpty(q, "language", language)

	var resp struct {
		Topics []string `json:"topics"`
	}
	if err := c.do(ctx, http.MethodGet, "/topics", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}

func userPath(userID, suffix string) string {
	return "/users/" + url.PathEscape(userID) + suffix
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
