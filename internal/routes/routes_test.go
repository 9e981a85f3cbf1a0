package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"operator-console/internal/entities"
	"operator-console/internal/integrations"
	"operator-console/internal/integrations/backend"
	"operator-console/internal/integrations/mock"
	"operator-console/internal/repositories"
	"operator-console/internal/services"
	"operator-console/pkg/config"
	"operator-console/pkg/eventbus"
	"operator-console/pkg/service"
	"operator-console/pkg/utils"
	"operator-console/pkg/validation"
)

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, username, _ string) (backend.Tokens, error) {
	return backend.Tokens{Access: "a", Refresh: "r", Username: username}, nil
}

func (stubAuth) Me(context.Context) (map[string]any, error) {
	return map[string]any{"id": json.Number("3"), "username": "ivan", "first_name": "Иван", "last_name": "Петров"}, nil
}

func (stubAuth) Logout(context.Context) error { return nil }

type stubImported struct{}

func (stubImported) Replace(_ context.Context, _ string, records []entities.Record) (int, error) {
	return len(records), nil
}

func (stubImported) List(context.Context, utils.QueryParams) ([]entities.ImportedRecord, uint64, error) {
	return []entities.ImportedRecord{{BatchID: "b", Data: entities.Record{"id": "record_1"}}}, 1, nil
}

func (stubImported) Clear(context.Context) error { return nil }

type stubServiced struct{}

func (stubServiced) Create(context.Context, entities.ServicedCall) (uint64, error) { return 1, nil }

func (stubServiced) List(context.Context, utils.QueryParams) ([]entities.ServicedCall, uint64, error) {
	return nil, 0, nil
}

func (stubServiced) CountSince(context.Context, time.Time) (int, error) { return 0, nil }

func (stubServiced) Daily(context.Context, time.Time) ([]entities.DailyCount, error) { return nil, nil }

func (stubServiced) GroupCount(context.Context, string, time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

type RoutesTestSuite struct {
	suite.Suite
	e        *echo.Echo
	suspends *mock.Collection
	fixeds   *mock.Collection
	token    string
}

func TestRoutesSuite(t *testing.T) {
	suite.Run(t, new(RoutesTestSuite))
}

func (s *RoutesTestSuite) SetupTest() {
	logger := zap.NewNop()
	cfg := config.ConsoleConfig{
		MinQueryLength:      4,
		DefaultPageSize:     50,
		DefaultOrdering:     "-created_at",
		SaveCooldown:        300 * time.Millisecond,
		SessionTTL:          time.Hour,
		ImportBackupLimitMB: 4,
		ImportSampleSize:    1000,
	}

	s.suspends = mock.NewCollection(entities.OriginSuspends, entities.Record{"id": "7", "phone": "992900000007"})
	s.fixeds = mock.NewCollection(entities.OriginFixeds, entities.Record{"id": "11", "client": "Иванов"})
	registry, err := integrations.NewRegistry(
		mock.NewCollection(entities.OriginActives),
		s.suspends,
		s.fixeds,
	)
	s.Require().NoError(err)

	cache := repositories.NewMemoryCacheRepository()
	jwtSvc := service.NewJWTService("routes-secret", time.Hour, 2*time.Hour, logger)
	searchSvc, err := services.NewSearchService(&mock.Searcher{}, registry, cache, cfg, logger)
	s.Require().NoError(err)

	servicedPrefs := services.NewServicedPreferencesService(cache, cfg, logger)
	servicedSvc, err := services.NewServicedService(registry, servicedPrefs, logger)
	s.Require().NoError(err)

	svc := Services{
		Session:             services.NewSessionService(stubAuth{}, jwtSvc, cache, logger),
		Search:              searchSvc,
		Preferences:         services.NewPreferencesService(cache, cfg, logger),
		Serviced:            servicedSvc,
		ServicedPreferences: servicedPrefs,
		Card:                services.NewCardService(registry, cache, eventbus.New(logger), cfg.SaveCooldown, cfg.SessionTTL, logger),
		Importer:            services.NewImporterService(stubImported{}, cache, nil, nil, cfg, logger),
		Journal:             services.NewJournalService(stubServiced{}, logger),
	}

	s.e = echo.New()
	s.e.Validator = validation.New()
	InitRouter(s.e, svc, jwtSvc, cfg, &Loggers{Main: logger, Auth: logger, Workspace: logger, Card: logger, Admin: logger})

	rec := s.do(http.MethodPost, "/api/auth/login", `{"username":"ivan","password":"secret"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var session struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &session))
	s.token = session.AccessToken
}

func (s *RoutesTestSuite) do(method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *RoutesTestSuite) body(rec *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func (s *RoutesTestSuite) TestMeAnonymousIsNull() {
	rec := s.do(http.MethodGet, "/api/auth/me", "", "")
	s.Equal(http.StatusOK, rec.Code)
	env := s.body(rec)
	s.True(env.Status)
	s.Empty(env.Body)
}

func (s *RoutesTestSuite) TestMeWithToken() {
	rec := s.do(http.MethodGet, "/api/auth/me", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var profile struct {
		Name     string `json:"name"`
		Initials string `json:"initials"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &profile))
	s.Equal("Иван Петров", profile.Name)
	s.Equal("ИП", profile.Initials)
}

func (s *RoutesTestSuite) TestSecureRoutesNeedToken() {
	rec := s.do(http.MethodGet, "/api/workspace/search?q=9929", "", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.False(s.body(rec).Status)
}

func (s *RoutesTestSuite) TestShortSearchIsEmpty() {
	rec := s.do(http.MethodGet, "/api/workspace/search?q=99", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var res struct {
		Records []map[string]any `json:"records"`
		Total   int              `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &res))
	s.Empty(res.Records)
	s.Zero(res.Total)
}

func (s *RoutesTestSuite) TestSearchRejectsUnknownField() {
	rec := s.do(http.MethodGet, "/api/workspace/search?q=992900&by=phone,passport", "", s.token)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var details map[string]string
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &details))
	s.Contains(details, "by[1]")
}

func (s *RoutesTestSuite) TestCardRejectsUnknownSource() {
	rec := s.do(http.MethodGet, "/api/cards/7?src=archive", "", s.token)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var details map[string]string
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &details))
	s.Contains(details, "src")
	s.Zero(s.suspends.Calls("retrieve"))

	rec = s.do(http.MethodGet, "/api/cards/7?src=FIXEDS", "", s.token)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RoutesTestSuite) TestServicedListWithoutQuery() {
	rec := s.do(http.MethodGet, "/api/workspace/serviced", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Records []map[string]any `json:"records"`
		Total   int              `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &res))
	s.Require().Len(res.Records, 1)
	s.Equal("fixeds", res.Records[0]["source"])
	s.Equal(1, res.Total)

	s.Equal("-fixed_at", s.fixeds.LastParams.Ordering)
	s.Equal(50, s.fixeds.LastParams.PageSize)
	s.Empty(s.fixeds.LastParams.Query)
	s.Empty(s.fixeds.LastParams.Fields)
}

func (s *RoutesTestSuite) TestServicedShortQueryIsSentAndRemembered() {
	rec := s.do(http.MethodGet, "/api/workspace/serviced?q=%D0%98%D0%B2&by=client&page=2", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Ив", s.fixeds.LastParams.Query)
	s.Equal([]string{"client"}, s.fixeds.LastParams.Fields)
	s.Equal(2, s.fixeds.LastParams.Page)

	rec = s.do(http.MethodGet, "/api/preferences/serviced/search", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var state struct {
		Query string   `json:"q"`
		Page  int      `json:"page"`
		Ord   string   `json:"ord"`
		By    []string `json:"by"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &state))
	s.Equal("Ив", state.Query)
	s.Equal(2, state.Page)
	s.Equal("-fixed_at", state.Ord)
	s.Equal([]string{"client"}, state.By)

	rec = s.do(http.MethodGet, "/api/workspace/serviced?by=bogus", "", s.token)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutesTestSuite) TestServicedColumnsAreSeparate() {
	rec := s.do(http.MethodGet, "/api/preferences/serviced/columns", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var cols struct {
		Columns []string `json:"columns"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &cols))
	s.Equal(services.ServicedColumns, cols.Columns)

	rec = s.do(http.MethodPut, "/api/preferences/serviced/columns", `{"columns":["client"]}`, s.token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/preferences/columns", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &cols))
	s.Equal(services.DefaultColumns, cols.Columns)
}

func (s *RoutesTestSuite) TestCardResolveAndSave() {
	rec := s.do(http.MethodGet, "/api/cards/7", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var card struct {
		Origin string `json:"origin"`
		Mode   string `json:"mode"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &card))
	s.Equal("suspends", card.Origin)
	s.Equal("edit", card.Mode)

	rec = s.do(http.MethodPut, "/api/cards/7", `{"status_call":"Дозвонился","call_result":"Ответили на вопрос"}`, s.token)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(1, s.suspends.Calls("fixation"))
	s.Equal(entities.DefaultAbonentAnswer, s.suspends.LastPayload[entities.FieldAbonentAnswer])

	rec = s.do(http.MethodGet, "/api/workspace/stale", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"stale":true}`, string(s.body(rec).Body))
}

func (s *RoutesTestSuite) TestInvalidDispositionMakesNoCall() {
	rec := s.do(http.MethodPut, "/api/cards/7", `{"status_call":"Занято","call_result":"Ответили на вопрос"}`, s.token)
	s.Require().Equal(http.StatusBadRequest, rec.Code)

	var details map[string]string
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &details))
	s.Contains(details, "status_call")
	s.Zero(s.suspends.Calls("fixation"))
	s.Zero(s.suspends.Calls("retrieve"))
}

func (s *RoutesTestSuite) TestStatusChangedPatch() {
	rec := s.do(http.MethodPost, "/api/cards/disposition/status", `{"status_call":"Не дозвонился","call_result":"Аппарат выключен"}`, s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"abonent_answer":"Нет ответа"}`, string(s.body(rec).Body))
}

func (s *RoutesTestSuite) TestColumns() {
	rec := s.do(http.MethodGet, "/api/preferences/columns", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var cols struct {
		Columns []string `json:"columns"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &cols))
	s.Equal(services.DefaultColumns, cols.Columns)

	rec = s.do(http.MethodPut, "/api/preferences/columns", `{"columns":["phone","client"]}`, s.token)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, "/api/preferences/columns?preset=nope", `{}`, s.token)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RoutesTestSuite) TestAdminRecordsPaginated() {
	rec := s.do(http.MethodGet, "/api/admin/records?page=1&limit=10", "", s.token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list struct {
		List       []map[string]any `json:"list"`
		Pagination struct {
			TotalCount int `json:"total_count"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(s.body(rec).Body, &list))
	s.Len(list.List, 1)
	s.Equal(1, list.Pagination.TotalCount)
}

func TestStatsRoute(t *testing.T) {
	logger := zap.NewNop()
	jwtSvc := service.NewJWTService("k", time.Hour, time.Hour, logger)
	e := echo.New()
	e.Validator = validation.New()
	InitRouter(e, Services{Journal: services.NewJournalService(stubServiced{}, logger)}, jwtSvc, config.ConsoleConfig{}, &Loggers{
		Main: logger, Auth: logger, Workspace: logger, Card: logger, Admin: logger,
	})

	access, _, err := jwtSvc.GenerateTokens(service.Subject{SessionID: "s", Username: "ivan"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var stats entities.CallStats
	require.NoError(t, json.Unmarshal(env.Body, &stats))
	assert.Len(t, stats.Daily, 30)
}
