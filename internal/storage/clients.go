package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/aliskhannn/exam-prep-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
	"github.com/aliskhannn/exam-prep-bot/internal/stats"
)

// StateRepository persists the restart-surviving part of a session.
type StateRepository interface {
	Get(ctx context.Context, telegramID int64) (*session.PersistedState, error)
	Upsert(ctx context.Context, telegramID int64, state session.PersistedState) error
	UpsertBatch(ctx context.Context, states []repository.ClientState) error
}

// Factory builds the empty stores of a new client bundle.
type Factory func(telegramID int64) (*session.Store, *stats.Store)

// Client is the bundle of stores belonging to one Telegram user.
type Client struct {
	TelegramID int64
	Session    *session.Store
	Stats      *stats.Store

	dirty atomic.Bool
}

// Dirty reports whether persisted fields changed since the last save.
func (c *Client) Dirty() bool {
	return c.dirty.Load()
}

// Clients is the in-memory registry of client bundles backed by a state
// repository.
type Clients struct {
	repo    StateRepository
	factory Factory
	logger  *zap.Logger

	mu      sync.RWMutex
	clients map[int64]*Client

	loads singleflight.Group
}

// NewClients creates an empty registry.
func NewClients(repo StateRepository, factory Factory, logger *zap.Logger) *Clients {
	return &Clients{
		repo:    repo,
		factory: factory,
		logger:  logger,
		clients: make(map[int64]*Client),
	}
}

// Get returns the bundle of a user, restoring it from the repository on
// first access. Concurrent first accesses share one repository read.
func (c *Clients) Get(ctx context.Context, telegramID int64) (*Client, error) {
	if client, ok := c.lookup(telegramID); ok {
		return client, nil
	}

	v, err, _ := c.loads.Do(strconv.FormatInt(telegramID, 10), func() (any, error) {
		if client, ok := c.lookup(telegramID); ok {
			return client, nil
		}
		return c.load(ctx, telegramID)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Client), nil
}

func (c *Clients) lookup(telegramID int64) (*Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	client, ok := c.clients[telegramID]
	return client, ok
}

func (c *Clients) load(ctx context.Context, telegramID int64) (*Client, error) {
	sessionStore, statsStore := c.factory(telegramID)

	persisted, err := c.repo.Get(ctx, telegramID)
	switch {
	case errors.Is(err, repository.ErrClientStateNotFound):
	case err != nil:
		return nil, fmt.Errorf("load client %d: %w", telegramID, err)
	default:
		sessionStore.Restore(*persisted)
	}

	client := &Client{
		TelegramID: telegramID,
		Session:    sessionStore,
		Stats:      statsStore,
	}
	sessionStore.Subscribe(func(change session.Change) {
		if change.Persisted() {
			client.dirty.Store(true)
		}
	})

	c.mu.Lock()
	c.clients[telegramID] = client
	c.mu.Unlock()

	c.logger.Debug("client restored",
		zap.Int64("telegram_id", telegramID),
		zap.Bool("had_state", persisted != nil),
	)

	return client, nil
}

// Range calls fn for every loaded bundle until fn returns false.
func (c *Clients) Range(fn func(client *Client) bool) {
	c.mu.RLock()
	clients := make([]*Client, 0, len(c.clients))
	for _, client := range c.clients {
		clients = append(clients, client)
	}
	c.mu.RUnlock()

	for _, client := range clients {
		if !fn(client) {
			return
		}
	}
}

// Len returns the number of loaded bundles.
func (c *Clients) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

// Save writes the persisted subset of a user's session if it changed since
// the last save.
func (c *Clients) Save(ctx context.Context, telegramID int64) error {
	client, ok := c.lookup(telegramID)
	if !ok || !client.dirty.Swap(false) {
		return nil
	}

	if err := c.repo.Upsert(ctx, telegramID, client.Session.Persisted()); err != nil {
		client.dirty.Store(true)
		return fmt.Errorf("save client %d: %w", telegramID, err)
	}

	return nil
}

// SaveDirty writes every changed bundle in one batch and returns how many
// were saved.
func (c *Clients) SaveDirty(ctx context.Context) (int, error) {
	var (
		states []repository.ClientState
		taken  []*Client
	)
	c.Range(func(client *Client) bool {
		if client.dirty.Swap(false) {
			taken = append(taken, client)
			states = append(states, repository.ClientState{
				TelegramID: client.TelegramID,
				State:      client.Session.Persisted(),
			})
		}
		return true
	})

	if err := c.repo.UpsertBatch(ctx, states); err != nil {
		for _, client := range taken {
			client.dirty.Store(true)
		}
		return 0, fmt.Errorf("save dirty clients: %w", err)
	}

	return len(states), nil
}
