package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nroshak/marketcheck/internal/model"
)

type fakeChecker struct {
	result *model.FactCheckResult
	err    error
	gotQ   string
}

func (f *fakeChecker) Run(_ context.Context, question string) (*model.FactCheckResult, error) {
	f.gotQ = question
	return f.result, f.err
}

type fakeCatalog struct {
	markets  []model.MarketRecord
	queries  []model.QueryLogEntry
	err      error
	gotLimit int
}

func (f *fakeCatalog) PopularMarkets(_ context.Context, limit, _ int, _ time.Time) ([]model.MarketRecord, error) {
	f.gotLimit = limit
	return f.markets, f.err
}

func (f *fakeCatalog) RecentQueries(_ context.Context, limit int) ([]model.QueryLogEntry, error) {
	f.gotLimit = limit
	return f.queries, f.err
}

func newTestServer(checker *fakeChecker, catalog *fakeCatalog) http.Handler {
	return NewServer(checker, catalog, zerolog.Nop()).Router()
}

func TestFactCheckEndpoint(t *testing.T) {
	checker := &fakeChecker{result: &model.FactCheckResult{
		Question: "Will BTC hit 100k?",
		Answer:   model.Answer{Summary: "Markets lean yes.", Confidence: 0.8},
	}}
	srv := newTestServer(checker, &fakeCatalog{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/factcheck",
		strings.NewReader(`{"question":"Will BTC hit 100k?"}`))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Will BTC hit 100k?", checker.gotQ)
	assert.Contains(t, rec.Body.String(), "Markets lean yes.")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestFactCheckRejectsEmptyQuestion(t *testing.T) {
	srv := newTestServer(&fakeChecker{}, &fakeCatalog{})

	for _, body := range []string{`{}`, `{"question":"   "}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/factcheck", strings.NewReader(body))
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestFactCheckParseFailureIs422(t *testing.T) {
	checker := &fakeChecker{err: errors.New("parse claim: no verifiable claim")}
	srv := newTestServer(checker, &fakeCatalog{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/factcheck",
		strings.NewReader(`{"question":"asdf"}`))
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no verifiable claim")
}

func TestPopularEndpoint(t *testing.T) {
	catalog := &fakeCatalog{markets: []model.MarketRecord{
		{PolymarketMarketID: "m1", Title: "big market"},
	}}
	srv := newTestServer(&fakeChecker{}, catalog)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/popular?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, catalog.gotLimit)
	assert.Contains(t, rec.Body.String(), "big market")
}

func TestPopularClampsLimit(t *testing.T) {
	catalog := &fakeCatalog{}
	srv := newTestServer(&fakeChecker{}, catalog)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/popular?limit=9999", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, catalog.gotLimit)
	// Empty result is a JSON array, not null.
	assert.Contains(t, rec.Body.String(), `"markets":[]`)
}

func TestQueriesEndpoint(t *testing.T) {
	catalog := &fakeCatalog{queries: []model.QueryLogEntry{
		{Question: "old question", Confidence: 0.5},
	}}
	srv := newTestServer(&fakeChecker{}, catalog)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/queries", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "old question")
}

func TestStorageErrorIs500(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("disk gone")}
	srv := newTestServer(&fakeChecker{}, catalog)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/popular", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&fakeChecker{}, &fakeCatalog{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
