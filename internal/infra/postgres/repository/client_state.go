package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/exam-prep-bot/internal/infra/postgres"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
)

var ErrClientStateNotFound = errors.New("client state not found")

// ClientState is the persisted session of one Telegram user.
type ClientState struct {
	TelegramID int64
	State      session.PersistedState
}

// ClientStateRepository stores persisted session state as JSONB rows.
type ClientStateRepository struct {
	db postgres.DBTX
}

// NewClientStateRepository creates a new ClientStateRepository.
func NewClientStateRepository(db postgres.DBTX) *ClientStateRepository {
	return &ClientStateRepository{db: db}
}

const upsertClientStateQuery = `
	INSERT INTO client_state (telegram_id, state, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (telegram_id) DO UPDATE
	SET state = EXCLUDED.state,
	    updated_at = NOW()
`

// Get returns the persisted state of a user.
// Returns ErrClientStateNotFound if nothing was saved yet.
func (r *ClientStateRepository) Get(ctx context.Context, telegramID int64) (*session.PersistedState, error) {
	query := `
		SELECT state
		FROM client_state
		WHERE telegram_id = $1
	`

	var raw []byte
	err := r.db.QueryRow(ctx, query, telegramID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientStateNotFound
		}
		return nil, fmt.Errorf("get client state: %w", err)
	}

	var state session.PersistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode client state: %w", err)
	}

	return &state, nil
}

// Upsert saves the state of a single user.
func (r *ClientStateRepository) Upsert(ctx context.Context, telegramID int64, state session.PersistedState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode client state: %w", err)
	}

	if _, err := r.db.Exec(ctx, upsertClientStateQuery, telegramID, raw); err != nil {
		return fmt.Errorf("upsert client state: %w", err)
	}

	return nil
}

// UpsertBatch saves many states in one round trip.
func (r *ClientStateRepository) UpsertBatch(ctx context.Context, states []ClientState) error {
	if len(states) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range states {
		raw, err := json.Marshal(s.State)
		if err != nil {
			return fmt.Errorf("encode client state %d: %w", s.TelegramID, err)
		}
		batch.Queue(upsertClientStateQuery, s.TelegramID, raw)
	}

	results := r.db.SendBatch(ctx, batch)
	for range states {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("upsert client state batch: %w", err)
		}
	}

	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return nil
}

// Delete removes the persisted state of a user.
func (r *ClientStateRepository) Delete(ctx context.Context, telegramID int64) error {
	query := `DELETE FROM client_state WHERE telegram_id = $1`

	if _, err := r.db.Exec(ctx, query, telegramID); err != nil {
		return fmt.Errorf("delete client state: %w", err)
	}

	return nil
}
