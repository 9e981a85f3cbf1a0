package utils

import (
	"context"

	"operator-console/pkg/contextkeys"
	apperrors "operator-console/pkg/errors"
)

// Principal - кто выполняет запрос: сессия консоли и пользователь бэкенда.
type Principal struct {
	SessionID string
	UserID    int
	Username  string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, contextkeys.SessionIDKey, p.SessionID)
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, p.UserID)
	return context.WithValue(ctx, contextkeys.UsernameKey, p.Username)
}

func GetSessionIDFromCtx(ctx context.Context) (string, error) {
	sid, ok := ctx.Value(contextkeys.SessionIDKey).(string)
	if !ok || sid == "" {
		return "", apperrors.ErrSessionIDNotFoundInContext
	}
	return sid, nil
}

// GetPrincipalFromCtx возвращает пустого Principal для анонимного запроса.
func GetPrincipalFromCtx(ctx context.Context) Principal {
	p := Principal{}
	p.SessionID, _ = ctx.Value(contextkeys.SessionIDKey).(string)
	p.UserID, _ = ctx.Value(contextkeys.UserIDKey).(int)
	p.Username, _ = ctx.Value(contextkeys.UsernameKey).(string)
	return p
}
