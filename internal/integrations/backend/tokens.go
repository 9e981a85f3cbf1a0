package backend

import (
	"context"
	"sync"
)

// Tokens - пара токенов бэкенда и имя последнего входа.
type Tokens struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
}

// TokenStore хранит токены текущей сессии.
// Key определяет область single-flight обновления: один ключ - одно обновление за раз.
type TokenStore interface {
	Key(ctx context.Context) string
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, tokens Tokens) error
	Clear(ctx context.Context) error
}

// MemoryTokenStore - хранилище одной сессии в памяти процесса (CLI, тесты).
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

func NewMemoryTokenStore(initial Tokens) *MemoryTokenStore {
	return &MemoryTokenStore{tokens: initial}
}

func (s *MemoryTokenStore) Key(context.Context) string { return "memory" }

func (s *MemoryTokenStore) Load(context.Context) (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens, nil
}

func (s *MemoryTokenStore) Save(_ context.Context, tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	return nil
}

// Clear убирает токены, имя последнего входа остаётся.
func (s *MemoryTokenStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{Username: s.tokens.Username}
	return nil
}
