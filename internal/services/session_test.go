package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/integrations/backend"
	"operator-console/internal/repositories"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/service"
	"operator-console/pkg/utils"
)

type fakeAuth struct {
	me        map[string]any
	meErr     error
	loginErr  error
	loginSID  string
	loggedOut bool
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (backend.Tokens, error) {
	f.loginSID, _ = utils.GetSessionIDFromCtx(ctx)
	if f.loginErr != nil {
		return backend.Tokens{}, f.loginErr
	}
	return backend.Tokens{Access: "a", Refresh: "r", Username: username}, nil
}

func (f *fakeAuth) Me(context.Context) (map[string]any, error) { return f.me, f.meErr }

func (f *fakeAuth) Logout(context.Context) error {
	f.loggedOut = true
	return nil
}

func newSessionFixture(auth *fakeAuth) (SessionServiceInterface, service.JWTService, *repositories.MemoryCacheRepository) {
	jwt := service.NewJWTService("test-secret", time.Hour, 2*time.Hour, zap.NewNop())
	cache := repositories.NewMemoryCacheRepository()
	return NewSessionService(auth, jwt, cache, zap.NewNop()), jwt, cache
}

func TestDeriveRole(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"role", map[string]any{"role": "supervisor", "position": "x"}, "supervisor"},
		{"position", map[string]any{"role": map[string]any{"id": 1}, "position": "Оператор"}, "Оператор"},
		{"group object", map[string]any{"groups": []any{map[string]any{"name": "call-center"}}}, "call-center"},
		{"group string", map[string]any{"groups": []any{"leads"}}, "leads"},
		{"superuser", map[string]any{"is_superuser": true, "is_staff": true}, "administrator"},
		{"staff", map[string]any{"is_staff": true}, "staff"},
		{"default", map[string]any{}, "operator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveRole(tt.raw))
		})
	}
}

func TestDisplayNameAndInitials(t *testing.T) {
	assert.Equal(t, "Иван Петров", DisplayName(map[string]any{"first_name": "Иван", "last_name": "Петров", "username": "ivan"}))
	assert.Equal(t, "Петров И.", DisplayName(map[string]any{"display": "Петров И.", "first_name": "Иван"}))
	assert.Equal(t, "Петров Иван Сергеевич", DisplayName(map[string]any{"fio": "Петров Иван Сергеевич"}))
	assert.Equal(t, "ivan", DisplayName(map[string]any{"username": "ivan"}))

	assert.Equal(t, "ИП", Initials("иван петров сергеевич"))
	assert.Equal(t, "I", Initials("ivan"))
	assert.Equal(t, "", Initials("  "))
}

func TestProfileFromNumericID(t *testing.T) {
	p := ProfileFrom(map[string]any{"id": json.Number("17"), "username": "ivan"})
	assert.Equal(t, 17, p.ID)
	assert.Equal(t, "operator", p.Role)
	assert.Equal(t, "I", p.Initials)
}

func TestSessionLoginIssuesTokens(t *testing.T) {
	auth := &fakeAuth{me: map[string]any{"id": json.Number("5"), "username": "ivan", "first_name": "Иван", "last_name": "Петров"}}
	svc, jwt, cache := newSessionFixture(auth)

	session, err := svc.Login(context.Background(), dto.LoginDTO{Username: "ivan", Password: "secret"})
	require.NoError(t, err)
	require.NotNil(t, session.Profile)

	last, err := cache.Get(context.Background(), lastLoginKey)
	require.NoError(t, err)
	assert.Equal(t, "ivan", last)
	assert.Equal(t, "ИП", session.Profile.Initials)
	assert.Equal(t, 5, session.Profile.ID)

	claims, err := jwt.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.loginSID, claims.SessionID)
	assert.NotEmpty(t, claims.SessionID)
	assert.Equal(t, "ivan", claims.Username)
	assert.False(t, claims.IsRefreshToken)

	refreshed, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	claims2, err := jwt.ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, claims.SessionID, claims2.SessionID)

	_, err = svc.Refresh(context.Background(), session.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)
}

func TestSessionLoginFallsBackWhenProfileFails(t *testing.T) {
	auth := &fakeAuth{meErr: errors.New("boom")}
	svc, _, _ := newSessionFixture(auth)

	session, err := svc.Login(context.Background(), dto.LoginDTO{Username: "ivan", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "ivan", session.Profile.Username)
	assert.Equal(t, "operator", session.Profile.Role)
}

func TestSessionLoginError(t *testing.T) {
	auth := &fakeAuth{loginErr: apperrors.ErrInvalidCredentials}
	svc, _, _ := newSessionFixture(auth)

	_, err := svc.Login(context.Background(), dto.LoginDTO{Username: "ivan", Password: "bad"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSessionBootstrap(t *testing.T) {
	auth := &fakeAuth{meErr: errors.New("upstream down")}
	svc, _, _ := newSessionFixture(auth)

	assert.Nil(t, svc.Bootstrap(context.Background()))
	assert.Nil(t, svc.Bootstrap(sessionCtx("s1")))

	auth.meErr = nil
	auth.me = map[string]any{"username": "ivan", "role": "supervisor"}
	p := svc.Bootstrap(sessionCtx("s1"))
	require.NotNil(t, p)
	assert.Equal(t, "supervisor", p.Role)
}

func TestSessionLogoutClearsKeys(t *testing.T) {
	auth := &fakeAuth{}
	svc, _, cache := newSessionFixture(auth)
	ctx := sessionCtx("s1")

	require.NoError(t, cache.Set(ctx, repositories.SessionKey("s1", staleFlagKey), "1", 0))
	require.NoError(t, cache.Set(ctx, repositories.SessionKey("s1", searchGenerationKey), "3", 0))

	require.NoError(t, svc.Logout(ctx))
	assert.True(t, auth.loggedOut)

	_, err := cache.Get(ctx, repositories.SessionKey("s1", staleFlagKey))
	assert.ErrorIs(t, err, repositories.ErrCacheMiss)
	_, err = cache.Get(ctx, repositories.SessionKey("s1", searchGenerationKey))
	assert.ErrorIs(t, err, repositories.ErrCacheMiss)

	assert.Error(t, svc.Logout(context.Background()))
}
