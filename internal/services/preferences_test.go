package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"operator-console/internal/dto"
	"operator-console/internal/repositories"
	"operator-console/pkg/utils"
)

type PreferencesTestSuite struct {
	suite.Suite
	cache *repositories.MemoryCacheRepository
	svc   PreferencesServiceInterface
	ctx   context.Context
}

func (s *PreferencesTestSuite) SetupTest() {
	s.cache = repositories.NewMemoryCacheRepository()
	s.svc = NewPreferencesService(s.cache, testConsoleConfig(), zap.NewNop())
	s.ctx = utils.WithPrincipal(context.Background(), utils.Principal{SessionID: "s", UserID: 12, Username: "ivan"})
}

func TestPreferencesSuite(t *testing.T) {
	suite.Run(t, new(PreferencesTestSuite))
}

func (s *PreferencesTestSuite) TestUserPrefix() {
	s.Equal("cccrm:u:12", UserPrefix(utils.Principal{UserID: 12, Username: "ivan"}, "petr"))
	s.Equal("cccrm:uname:ivan", UserPrefix(utils.Principal{Username: "ivan"}, "petr"))
	s.Equal("cccrm:uname:petr", UserPrefix(utils.Principal{}, "petr"))
	s.Equal("cccrm:uname:guest", UserPrefix(utils.Principal{}, ""))
}

func (s *PreferencesTestSuite) TestAnonymousUsesLastLogin() {
	s.Require().NoError(s.cache.Set(s.ctx, lastLoginKey, "petr", 0))
	anon := context.Background()

	_, err := s.svc.SetColumns(anon, []string{"phone"})
	s.Require().NoError(err)
	raw, err := s.cache.Get(anon, "cccrm:uname:petr:visible_columns_v1")
	s.Require().NoError(err)
	s.JSONEq(`["phone"]`, raw)
}

func (s *PreferencesTestSuite) TestColumnsDefaultWhenUnsetOrCorrupt() {
	cols, err := s.svc.Columns(s.ctx)
	s.Require().NoError(err)
	s.Equal(DefaultColumns, cols)

	s.Require().NoError(s.cache.Set(s.ctx, "cccrm:u:12:visible_columns_v1", "{oops", 0))
	cols, err = s.svc.Columns(s.ctx)
	s.Require().NoError(err)
	s.Equal(DefaultColumns, cols)

	s.Require().NoError(s.svc.ClearColumns(s.ctx))
	cols, err = s.svc.Columns(s.ctx)
	s.Require().NoError(err)
	s.Equal(DefaultColumns, cols)
}

func (s *PreferencesTestSuite) TestSetResetAll() {
	cols, err := s.svc.SetColumns(s.ctx, []string{"phone", " client ", "phone", ""})
	s.Require().NoError(err)
	s.Equal([]string{"phone", "client"}, cols)

	stored, err := s.svc.Columns(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"phone", "client"}, stored)

	cols, err = s.svc.SetAllColumns(s.ctx, []string{"id", "msisdn"})
	s.Require().NoError(err)
	s.Equal([]string{"id", "msisdn"}, cols)

	cols, err = s.svc.ResetColumns(s.ctx)
	s.Require().NoError(err)
	s.Equal(DefaultColumns, cols)
}

func (s *PreferencesTestSuite) TestReconcileKeepsOrder() {
	_, err := s.svc.SetColumns(s.ctx, []string{"status", "msisdn", "note", "phone"})
	s.Require().NoError(err)

	cols, err := s.svc.ReconcileColumns(s.ctx, []string{"phone", "msisdn", "status", "id"})
	s.Require().NoError(err)
	s.Equal([]string{"status", "msisdn", "phone"}, cols)

	stored, _ := s.svc.Columns(s.ctx)
	s.Equal(cols, stored)
}

func (s *PreferencesTestSuite) TestSaveSearchOnlyLongQueries() {
	s.Require().NoError(s.svc.SaveSearch(s.ctx, dto.SearchStateDTO{Query: "9929", Page: 2, PageSize: 20, Ordering: "phone", Fields: []string{"msisdn"}}))
	_, err := s.cache.Get(s.ctx, "cccrm:u:12:last_search_v1")
	s.NoError(err)

	s.Require().NoError(s.svc.SaveSearch(s.ctx, dto.SearchStateDTO{Query: "99"}))
	_, err = s.cache.Get(s.ctx, "cccrm:u:12:last_search_v1")
	s.ErrorIs(err, repositories.ErrCacheMiss)
}

func (s *PreferencesTestSuite) TestRestoreOrder() {
	saved := dto.SearchStateDTO{Query: "Иванов", Page: 3, PageSize: 20, Ordering: "client", Fields: []string{"client", "bogus"}}
	s.Require().NoError(s.svc.SaveSearch(s.ctx, saved))

	// URL с длинным q имеет приоритет
	q, _ := url.ParseQuery("q=992900&page=2&ps=10&ord=-phone&by=msisdn,phone,drop")
	state, err := s.svc.RestoreSearch(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(dto.SearchStateDTO{Query: "992900", Page: 2, PageSize: 10, Ordering: "-phone", Fields: []string{"msisdn", "phone"}}, state)

	// короткий q - берём сохранённое
	q, _ = url.ParseQuery("q=99")
	state, err = s.svc.RestoreSearch(s.ctx, q)
	s.Require().NoError(err)
	s.Equal(dto.SearchStateDTO{Query: "Иванов", Page: 3, PageSize: 20, Ordering: "client", Fields: []string{"client"}}, state)

	// ничего нет - значения по умолчанию
	s.Require().NoError(s.svc.SaveSearch(s.ctx, dto.SearchStateDTO{}))
	state, err = s.svc.RestoreSearch(s.ctx, url.Values{})
	s.Require().NoError(err)
	s.Equal(dto.SearchStateDTO{Page: 1, PageSize: 50, Ordering: "-created_at", Fields: []string{"phone"}}, state)
}

func TestSearchStateRoundTrip(t *testing.T) {
	state := dto.SearchStateDTO{Query: "992900", Page: 4, PageSize: 25, Ordering: "-created_at", Fields: []string{"phone", "client"}}
	got := ParseSearchState(SearchStateValues(state), dto.SearchStateDTO{})
	assert.Equal(t, state, got)

	got = ParseSearchState(url.Values{"page": {"abc"}, "ps": {"-1"}}, dto.SearchStateDTO{Page: 1, PageSize: 50, Fields: []string{"phone"}})
	require.Equal(t, 1, got.Page)
	assert.Equal(t, 50, got.PageSize)
}

func TestServicedPreferences(t *testing.T) {
	cache := repositories.NewMemoryCacheRepository()
	prefs := NewServicedPreferencesService(cache, testConsoleConfig(), zap.NewNop())
	ctx := utils.WithPrincipal(context.Background(), utils.Principal{SessionID: "s", UserID: 12})

	cols, err := prefs.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, ServicedColumns, cols)
	_, err = cache.Get(ctx, "cccrm:u:12:serviced_columns_v1")
	require.NoError(t, err)
	_, err = cache.Get(ctx, "cccrm:u:12:visible_columns_v1")
	assert.ErrorIs(t, err, repositories.ErrCacheMiss)

	def := prefs.DefaultState()
	assert.Equal(t, "-fixed_at", def.Ordering)
	assert.Equal(t, SearchFields, def.Fields)

	// короткий и даже пустой запрос запоминается
	require.NoError(t, prefs.SaveSearch(ctx, dto.SearchStateDTO{Query: "Ив", Page: 3, PageSize: 20, Ordering: "-fixed_at"}))
	state, err := prefs.RestoreSearch(ctx, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, dto.SearchStateDTO{Query: "Ив", Page: 3, PageSize: 20, Ordering: "-fixed_at", Fields: SearchFields}, state)

	// явная страница в URL важнее сохранённого
	state, err = prefs.RestoreSearch(ctx, url.Values{"page": {"2"}, "by": {"msisdn"}})
	require.NoError(t, err)
	assert.Equal(t, dto.SearchStateDTO{Page: 2, PageSize: 50, Ordering: "-fixed_at", Fields: []string{"msisdn"}}, state)
}
