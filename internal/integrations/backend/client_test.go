package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"operator-console/internal/entities"
	"operator-console/internal/integrations"
	"operator-console/internal/integrations/dto"
)

func newTestClient(t *testing.T, handler http.Handler, tokens Tokens) (*Client, *MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := NewMemoryTokenStore(tokens)
	return New(srv.URL+"/api/", 5*time.Second, store, zap.NewNop()), store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestConcurrentUnauthorizedTriggersSingleRefresh(t *testing.T) {
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		assert.Empty(t, r.Header.Get("Authorization"))
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	})
	mux.HandleFunc("/api/actives/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1}})
	})

	client, store := newTestClient(t, mux, Tokens{Access: "stale", Refresh: "r1", Username: "op"})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Actives.List(context.Background(), dto.ListParams{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshes))

	saved, _ := store.Load(context.Background())
	assert.Equal(t, Tokens{Access: "fresh", Refresh: "r1", Username: "op"}, saved)
}

func TestFailedRefreshClearsTokens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh expired"})
	})
	mux.HandleFunc("/api/suspends/42/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
	})

	client, store := newTestClient(t, mux, Tokens{Access: "a", Refresh: "r", Username: "op"})

	_, err := client.Suspends.Retrieve(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, integrations.IsUnauthorized(err))
	assert.Equal(t, "token expired", err.Error())

	saved, _ := store.Load(context.Background())
	assert.Empty(t, saved.Access)
	assert.Empty(t, saved.Refresh)
	assert.Equal(t, "op", saved.Username)
}

func TestUnauthorizedWithoutRefreshTokenIsReturned(t *testing.T) {
	var refreshes int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
	})
	mux.HandleFunc("/api/fixeds/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux, Tokens{})
	_, err := client.Fixeds.List(context.Background(), dto.ListParams{})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, integrations.StatusOf(err))
	assert.Equal(t, "Unauthorized", err.Error())
	assert.Zero(t, atomic.LoadInt32(&refreshes))
}

func TestLoginStoresTokensAndUsername(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Неверный логин или пароль"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": "a1", "refresh": "r1"})
	})

	client, store := newTestClient(t, mux, Tokens{})

	_, err := client.Login(context.Background(), "ivan", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Неверный логин или пароль", err.Error())

	tokens, err := client.Login(context.Background(), "ivan", "secret")
	require.NoError(t, err)
	assert.Equal(t, Tokens{Access: "a1", Refresh: "r1", Username: "ivan"}, tokens)

	saved, _ := store.Load(context.Background())
	assert.Equal(t, tokens, saved)
}

func TestMeFallsBackWhenEndpointMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client, _ := newTestClient(t, mux, Tokens{Access: "a", Username: "ivan"})
	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ivan", me["username"])
	assert.Equal(t, "operator", me["role"])
	assert.Equal(t, "I", me["initials"])
}

func TestFixationOnFixedsMakesNoRequest(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}), Tokens{Access: "a"})

	_, err := client.Fixeds.Fixation(context.Background(), "1", map[string]any{})
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFixationUsesPatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/suspends/7/fixation/", r.URL.Path)
		assert.Equal(t, "Bearer a", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "callStatus": "Дозвонился"})
	}), Tokens{Access: "a"})

	rec, err := client.Suspends.Fixation(context.Background(), "7", map[string]any{"status_call": "Дозвонился"})
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID())
	assert.Equal(t, "Дозвонился", rec.String(entities.FieldStatusCall))
}

func TestSearchAllPassesParamsAndNormalizes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search-all/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "9929", q.Get("q"))
		assert.Equal(t, "phone,msisdn", q.Get("fields"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "50", q.Get("page_size"))
		assert.Equal(t, "-created_at", q.Get("ordering"))
		_, _ = w.Write([]byte(`{"results":[{"ID":1234567890123,"MSISDN":"992900"}],"count":77}`))
	}), Tokens{Access: "a"})

	page, err := client.SearchAll(context.Background(), dto.ListParams{
		Query: "9929", Fields: []string{"phone", "msisdn"}, Page: 2, PageSize: 50, Ordering: "-created_at",
	})
	require.NoError(t, err)
	assert.Equal(t, 77, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "1234567890123", page.Results[0].ID())
	assert.Equal(t, "992900", page.Results[0].String(entities.FieldMSISDN))
}

func TestUploadExcelSendsMultipart(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "batch-1", r.FormValue("batch_tag"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "calls.xlsx", hdr.Filename)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5})
	}), Tokens{Access: "a"})

	out, err := client.UploadExcel(context.Background(), "calls.xlsx", strings.NewReader("xlsx"), dto.UploadExtras{BatchTag: "batch-1"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("5"), out["id"])
}
