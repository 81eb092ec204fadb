package storage

import (
	"sync"
	"time"
)

// PromptMessage identifies a message carrying an inline keyboard.
type PromptMessage struct {
	ChatID    int64
	MessageID int
	SentAt    time.Time
}

// MessageStorage remembers the last question prompt sent to each user, so the
// keyboard of a stale prompt can be removed when a new one is sent.
type MessageStorage struct {
	mu       sync.Mutex
	messages map[int64]PromptMessage
	now      func() time.Time
}

func NewMessageStorage() *MessageStorage {
	return &MessageStorage{
		messages: make(map[int64]PromptMessage),
		now:      time.Now,
	}
}

// Swap records a new prompt for the user and returns the previous one.
func (s *MessageStorage) Swap(telegramID, chatID int64, messageID int) (prev PromptMessage, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev = s.messages[telegramID]
	s.messages[telegramID] = PromptMessage{
		ChatID:    chatID,
		MessageID: messageID,
		SentAt:    s.now(),
	}

	return prev, hadPrev
}

// Release forgets the recorded prompt of a user if it is messageID. It
// reports whether the prompt matched.
func (s *MessageStorage) Release(telegramID int64, messageID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[telegramID]
	if !ok || msg.MessageID != messageID {
		return false
	}
	delete(s.messages, telegramID)
	return true
}
