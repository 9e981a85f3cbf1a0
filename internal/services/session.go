package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/entities"
	"operator-console/internal/integrations/backend"
	"operator-console/internal/repositories"
	apperrors "operator-console/pkg/errors"
	"operator-console/pkg/service"
	"operator-console/pkg/utils"
)

// BackendAuth - часть клиента бэкенда, нужная сессии.
type BackendAuth interface {
	Login(ctx context.Context, username, password string) (backend.Tokens, error)
	Me(ctx context.Context) (map[string]any, error)
	Logout(ctx context.Context) error
}

type SessionServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.SessionDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.SessionDTO, error)
	// Bootstrap никогда не падает: при любой ошибке возвращает nil (аноним).
	Bootstrap(ctx context.Context) *dto.ProfileDTO
	Logout(ctx context.Context) error
}

type SessionService struct {
	auth   BackendAuth
	jwt    service.JWTService
	cache  repositories.CacheRepositoryInterface
	logger *zap.Logger
}

func NewSessionService(auth BackendAuth, jwt service.JWTService, cache repositories.CacheRepositoryInterface, logger *zap.Logger) SessionServiceInterface {
	return &SessionService{auth: auth, jwt: jwt, cache: cache, logger: logger}
}

func (s *SessionService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.SessionDTO, error) {
	sid := uuid.NewString()
	ctx = utils.WithPrincipal(ctx, utils.Principal{SessionID: sid, Username: payload.Username})

	if _, err := s.auth.Login(ctx, payload.Username, payload.Password); err != nil {
		s.logger.Info("Неудачный вход", zap.String("username", payload.Username), zap.Error(err))
		return nil, err
	}

	if err := s.cache.Set(ctx, lastLoginKey, payload.Username, 0); err != nil {
		s.logger.Warn("Не удалось запомнить последнего оператора", zap.Error(err))
	}

	profile := s.Bootstrap(ctx)
	if profile == nil {
		profile = ProfileFrom(map[string]any{"username": payload.Username})
	}

	access, refresh, err := s.jwt.GenerateTokens(service.Subject{SessionID: sid, UserID: profile.ID, Username: payload.Username})
	if err != nil {
		return nil, fmt.Errorf("выпуск токенов консоли: %w", err)
	}

	s.logger.Info("Оператор вошёл", zap.String("username", payload.Username), zap.String("session", sid))
	return &dto.SessionDTO{AccessToken: access, RefreshToken: refresh, Profile: profile}, nil
}

// Refresh перевыпускает пару токенов консоли для той же серверной сессии.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*dto.SessionDTO, error) {
	claims, err := s.jwt.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	access, refresh, err := s.jwt.GenerateTokens(service.Subject{SessionID: claims.SessionID, UserID: claims.UserID, Username: claims.Username})
	if err != nil {
		return nil, err
	}
	return &dto.SessionDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *SessionService) Bootstrap(ctx context.Context) *dto.ProfileDTO {
	if _, err := utils.GetSessionIDFromCtx(ctx); err != nil {
		return nil
	}
	raw, err := s.auth.Me(ctx)
	if err != nil {
		s.logger.Debug("Профиль не загружен", zap.Error(err))
		return nil
	}
	return ProfileFrom(raw)
}

// Logout очищает токены бэкенда и все ключи сессии.
func (s *SessionService) Logout(ctx context.Context) error {
	sid, err := utils.GetSessionIDFromCtx(ctx)
	if err != nil {
		return err
	}
	if err := s.auth.Logout(ctx); err != nil {
		return err
	}
	return s.cache.Del(ctx,
		repositories.SessionKey(sid, staleFlagKey),
		repositories.SessionKey(sid, searchGenerationKey),
	)
}

// ProfileFrom собирает профиль из произвольного ответа /auth/me/.
func ProfileFrom(raw map[string]any) *dto.ProfileDTO {
	rec := entities.Record(raw)
	username := rec.String("username")
	name := DisplayName(raw)
	id, _ := strconv.Atoi(rec.String("id"))
	return &dto.ProfileDTO{
		ID:       id,
		Username: username,
		Role:     DeriveRole(raw),
		Name:     name,
		Initials: Initials(name),
		Raw:      raw,
	}
}

// DeriveRole: role, position, role_name, role_display, groups[0].name,
// затем флаги is_superuser и is_staff, иначе operator.
func DeriveRole(raw map[string]any) string {
	rec := entities.Record(raw)
	for _, key := range []string{"role", "position", "role_name", "role_display"} {
		if v := strings.TrimSpace(stringValue(rec[key])); v != "" {
			return v
		}
	}
	if groups, ok := raw["groups"].([]any); ok && len(groups) > 0 {
		var name string
		switch g := groups[0].(type) {
		case map[string]any:
			name = stringValue(g["name"])
		case string:
			name = g
		}
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	if truthy(raw["is_superuser"]) {
		return "administrator"
	}
	if truthy(raw["is_staff"]) {
		return "staff"
	}
	return "operator"
}

// DisplayName: display, "first_name last_name", fio, username.
func DisplayName(raw map[string]any) string {
	rec := entities.Record(raw)
	if v := strings.TrimSpace(stringValue(rec["display"])); v != "" {
		return v
	}
	full := strings.TrimSpace(stringValue(rec["first_name"]) + " " + stringValue(rec["last_name"]))
	if full != "" {
		return full
	}
	if v := strings.TrimSpace(stringValue(rec["fio"])); v != "" {
		return v
	}
	return rec.String("username")
}

// Initials - первые буквы первых двух слов в верхнем регистре.
func Initials(name string) string {
	var b strings.Builder
	for i, word := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// stringValue - только строки; вложенные объекты (например role: {id, name}) игнорируются.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}
