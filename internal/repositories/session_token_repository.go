package repositories

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"operator-console/internal/integrations/backend"
	"operator-console/pkg/utils"
)

const nonceSize = 24

// SessionTokenRepository хранит токены бэкенда по id сессии консоли.
// В Redis лежит только зашифрованный secretbox блок.
type SessionTokenRepository struct {
	cache CacheRepositoryInterface
	key   [32]byte
	ttl   time.Duration
}

func NewSessionTokenRepository(cache CacheRepositoryInterface, secret string, ttl time.Duration) *SessionTokenRepository {
	return &SessionTokenRepository{
		cache: cache,
		key:   sha256.Sum256([]byte(secret)),
		ttl:   ttl,
	}
}

func SessionKey(sessionID, name string) string {
	return fmt.Sprintf("console:session:%s:%s", sessionID, name)
}

// Key - id сессии; анонимные запросы попадают в общий ключ и токенов не имеют.
func (r *SessionTokenRepository) Key(ctx context.Context) string {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return "anonymous"
	}
	return sid
}

func (r *SessionTokenRepository) Load(ctx context.Context) (backend.Tokens, error) {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return backend.Tokens{}, nil
	}

	raw, err := r.cache.Get(ctx, SessionKey(sid, "tokens"))
	if errors.Is(err, ErrCacheMiss) {
		return backend.Tokens{}, nil
	}
	if err != nil {
		return backend.Tokens{}, err
	}

	plain, err := r.open(raw)
	if err != nil {
		return backend.Tokens{}, err
	}
	var tokens backend.Tokens
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return backend.Tokens{}, fmt.Errorf("повреждённые токены сессии: %w", err)
	}
	return tokens, nil
}

func (r *SessionTokenRepository) Save(ctx context.Context, tokens backend.Tokens) error {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return err
	}
	plain, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	sealed, err := r.seal(plain)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, SessionKey(sid, "tokens"), sealed, r.ttl)
}

// Clear убирает access и refresh, имя последнего входа сохраняется.
func (r *SessionTokenRepository) Clear(ctx context.Context) error {
	current, err := r.Load(ctx)
	if err != nil {
		current = backend.Tokens{}
	}
	if current.Username == "" {
		sid, err := utils.GetSessionIDFromCtx(ctx)
		if err != nil {
			return nil
		}
		return r.cache.Del(ctx, SessionKey(sid, "tokens"))
	}
	return r.Save(ctx, backend.Tokens{Username: current.Username})
}

func (r *SessionTokenRepository) seal(plain []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("генерация nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], plain, &nonce, &r.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (r *SessionTokenRepository) open(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < nonceSize {
		return nil, fmt.Errorf("повреждённые токены сессии")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &r.key)
	if !ok {
		return nil, fmt.Errorf("не удалось расшифровать токены сессии")
	}
	return plain, nil
}
