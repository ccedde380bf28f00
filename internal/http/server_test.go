package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"finmate/internal/core"
	"finmate/internal/log"
	"finmate/internal/services"
	"finmate/internal/storage"
	"finmate/internal/storage/memory"
)

const devOrigin = "http://localhost:3000"

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

type storeFactory func(t *testing.T, clock storage.Clock) storage.Store

// apiSuite drives the full handler stack against a real Store.
type apiSuite struct {
	suite.Suite
	newStore storeFactory
	now      time.Time
	store    storage.Store
	srv      *Server
}

func TestAPIWithMemoryStore(t *testing.T) {
	suite.Run(t, &apiSuite{newStore: func(_ *testing.T, clock storage.Clock) storage.Store {
		return memory.New(clock)
	}})
}

func TestAPIWithSQLiteStore(t *testing.T) {
	suite.Run(t, &apiSuite{newStore: func(t *testing.T, clock storage.Clock) storage.Store {
		repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"), clock)
		require.NoError(t, err)
		return repo
	}})
}

func (s *apiSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	clock := storage.Clock(func() time.Time { return s.now })
	s.store = s.newStore(s.T(), clock)
	s.srv = NewServer(":0", services.NewExpenseService(s.store), Options{
		AllowedOrigins: []string{devOrigin},
		Clock:          clock,
		Logger:         quietLogger(),
	})
}

func (s *apiSuite) TearDownTest() {
	s.Require().NoError(s.srv.Shutdown(context.Background()))
	s.Require().NoError(s.store.Close())
}

func (s *apiSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (s *apiSuite) create(amount, category, date string) map[string]any {
	rec := s.do(http.MethodPost, "/expenses",
		`{"amount":"`+amount+`","category":"`+category+`","date":"`+date+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decodeObject(s.T(), rec)
}

// seedScenario posts 2024-01-10 Food 10, 2024-01-11 Rent 100, 2024-02-01 Food 20.
func (s *apiSuite) seedScenario() {
	s.create("10", "Food", "2024-01-10")
	s.create("100", "Rent", "2024-01-11")
	s.create("20", "Food", "2024-02-01")
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *apiSuite) TestCreateThenGet() {
	rec := s.do(http.MethodPost, "/expenses", `{"id":999,"amount":"10.00","category":"Food","date":"2024-01-15"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeObject(s.T(), rec)

	s.NotNil(created["id"])
	s.NotEqual(float64(999), created["id"], "body id is ignored on create")
	s.Equal("10.00", created["amount"])
	s.Equal("Food", created["category"])
	s.Equal("2024-01-15", created["date"])
	s.Equal("2024-06-15", created["createdAt"])
	s.Equal("application/json", rec.Header().Get("Content-Type"))

	rec = s.do(http.MethodGet, rec.Header().Get("Location"), "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(created, decodeObject(s.T(), rec))
}

func (s *apiSuite) TestSummaryOfOneCategory() {
	s.create("10.00", "Food", "2024-01-15")
	s.create("5.00", "Food", "2024-01-20")

	rec := s.do(http.MethodGet, "/expenses/summary/monthly/2024/1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[["Food","15.00"]]`, rec.Body.String())
}

func (s *apiSuite) TestSummaryOrderedByTotal() {
	s.seedScenario()

	rec := s.do(http.MethodGet, "/expenses/summary/monthly/2024/1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[["Rent","100.00"],["Food","10.00"]]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/expenses/summary/monthly/2030/1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *apiSuite) TestTrends() {
	s.seedScenario()

	rec := s.do(http.MethodGet, "/expenses/summary/trends", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[[2024,1,"110.00"],[2024,2,"20.00"]]`, rec.Body.String())
}

func (s *apiSuite) TestUpdateKeepsCreatedAt() {
	created := s.create("10.00", "Food", "2024-01-15")
	id := jsonID(created)

	s.now = s.now.AddDate(0, 0, 2)
	rec := s.do(http.MethodPut, "/expenses/"+id, `{"id":12345,"amount":"99","category":"Rent","date":"2024-01-15"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeObject(s.T(), rec)
	s.Equal(created["id"], updated["id"], "path id wins over body id")
	s.Equal(created["createdAt"], updated["createdAt"])

	rec = s.do(http.MethodGet, "/expenses/"+id, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	got := decodeObject(s.T(), rec)
	s.Equal("99.00", got["amount"])
	s.Equal("Rent", got["category"])
	s.Equal("2024-06-15", got["createdAt"])

	rec = s.do(http.MethodGet, "/expenses/12345", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *apiSuite) TestDateRange() {
	s.seedScenario()

	rec := s.do(http.MethodGet, "/expenses/date-range?startDate=2024-01-01&endDate=2024-01-31", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	rows := decodeList(s.T(), rec)
	s.Require().Len(rows, 2)
	s.Equal("2024-01-11", rows[0]["date"])
	s.Equal("2024-01-10", rows[1]["date"])

	rec = s.do(http.MethodGet, "/expenses/date-range?startDate=2024-02-01&endDate=2024-01-01", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *apiSuite) TestDateRangeRejectsBadDates() {
	for _, query := range []string{
		"?startDate=2024-01-01",
		"?endDate=2024-01-31",
		"?startDate=2024-13-01&endDate=2024-01-31",
		"?startDate=yesterday&endDate=2024-01-31",
		"",
	} {
		rec := s.do(http.MethodGet, "/expenses/date-range"+query, "")
		s.Equal(http.StatusBadRequest, rec.Code, query)
	}

	rec := s.do(http.MethodGet, "/expenses/date-range?startDate=2024-01-01", "")
	s.Equal(map[string]any{"endDate": "endDate is required"}, decodeObject(s.T(), rec))
}

func (s *apiSuite) TestAmountBoundaries() {
	rec := s.do(http.MethodPost, "/expenses", `{"amount":0,"category":"Gift","date":"2024-01-15"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal("0.00", decodeObject(s.T(), rec)["amount"])

	rec = s.do(http.MethodPost, "/expenses", `{"amount":"-0.01","category":"Gift","date":"2024-01-15"}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeObject(s.T(), rec), "amount")

	rec = s.do(http.MethodPost, "/expenses", `{"amount":"1.005","category":"Gift","date":"2024-01-15"}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal(core.ErrAmountPrecision.Error(), decodeObject(s.T(), rec)["amount"])

	rec = s.do(http.MethodPost, "/expenses", `{"amount":12.5,"category":"Gift","date":"2024-01-15"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal("12.50", decodeObject(s.T(), rec)["amount"])
}

func (s *apiSuite) TestDateBoundaries() {
	rec := s.do(http.MethodPost, "/expenses", `{"amount":"1","category":"Food","date":"2024-06-15"}`)
	s.Equal(http.StatusCreated, rec.Code, "today is allowed")

	rec = s.do(http.MethodPost, "/expenses", `{"amount":"1","category":"Food","date":"2024-06-16"}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal(core.ErrFutureDate.Error(), decodeObject(s.T(), rec)["date"])

	created := s.create("1", "Food", "2024-06-01")
	rec = s.do(http.MethodPut, "/expenses/"+jsonID(created), `{"amount":"1","category":"Food","date":"2024-06-16"}`)
	s.Equal(http.StatusBadRequest, rec.Code, "updates are validated the same way")
}

func (s *apiSuite) TestMissingFields() {
	rec := s.do(http.MethodPost, "/expenses", `{"category":"   "}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	s.Equal(map[string]any{
		"amount":   "amount is required",
		"category": "category is required",
		"date":     "date is required",
	}, decodeObject(s.T(), rec))

	for _, body := range []string{`not json`, `[]`, `null`, `{"amount":"1"} {}`} {
		rec = s.do(http.MethodPost, "/expenses", body)
		s.Require().Equal(http.StatusBadRequest, rec.Code, body)
		s.Contains(decodeObject(s.T(), rec), "body")
	}

	rec = s.do(http.MethodPost, "/expenses", `{"amount":"1","category":7,"date":20240101}`)
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	got := decodeObject(s.T(), rec)
	s.Equal("category must be a string", got["category"])
	s.Equal(core.ErrInvalidDate.Error(), got["date"])
}

func (s *apiSuite) TestNoteRoundTrip() {
	rec := s.do(http.MethodPost, "/expenses", `{"amount":"3.20","category":"Coffee","note":"flat white","date":"2024-05-02"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal("flat white", decodeObject(s.T(), rec)["note"])
}

func (s *apiSuite) TestMonthlyListing() {
	s.seedScenario()

	rec := s.do(http.MethodGet, "/expenses/monthly/2024/1", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Len(decodeList(s.T(), rec), 2)

	for _, path := range []string{
		"/expenses/monthly/2024/13",
		"/expenses/monthly/2024/0",
		"/expenses/monthly/abc/1",
		"/expenses/monthly/2024/x",
		"/expenses/summary/monthly/2024/13",
		"/expenses/summary/monthly/0/1",
	} {
		rec := s.do(http.MethodGet, path, "")
		s.Equal(http.StatusBadRequest, rec.Code, path)
	}

	rec = s.do(http.MethodGet, "/expenses/monthly/2024/13", "")
	s.Equal(core.ErrInvalidMonth.Error(), decodeObject(s.T(), rec)["month"])
}

func (s *apiSuite) TestCategoryIsExact() {
	s.create("4", "Eating Out", "2024-01-02")
	s.create("5", "eating out", "2024-01-03")

	rec := s.do(http.MethodGet, "/expenses/category/Eating%20Out", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	rows := decodeList(s.T(), rec)
	s.Require().Len(rows, 1)
	s.Equal("Eating Out", rows[0]["category"])

	rec = s.do(http.MethodGet, "/expenses/category/None", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *apiSuite) TestDeleteTwice() {
	created := s.create("10", "Food", "2024-01-15")
	path := "/expenses/" + jsonID(created)

	rec := s.do(http.MethodDelete, path, "")
	s.Require().Equal(http.StatusNoContent, rec.Code)
	s.Empty(rec.Body.String())

	rec = s.do(http.MethodGet, path, "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Empty(rec.Body.String())

	rec = s.do(http.MethodDelete, path, "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/expenses/424242", "").Code)
}

func (s *apiSuite) TestUpdateMissingDoesNotCreate() {
	rec := s.do(http.MethodPut, "/expenses/77", `{"amount":"1","category":"Food","date":"2024-01-15"}`)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/expenses", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *apiSuite) TestBadID() {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := s.do(method, "/expenses/abc", `{"amount":"1","category":"Food","date":"2024-01-15"}`)
		s.Equal(http.StatusBadRequest, rec.Code, method)
		s.Equal("id must be an integer", decodeObject(s.T(), rec)["id"])
	}
}

func (s *apiSuite) TestListAll() {
	rec := s.do(http.MethodGet, "/expenses", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	s.seedScenario()
	rec = s.do(http.MethodGet, "/expenses", "")
	s.Len(decodeList(s.T(), rec), 3)
}

func (s *apiSuite) TestHealthAndReady() {
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := s.do(http.MethodGet, path, "")
		s.Equal(http.StatusOK, rec.Code, path)
	}
	s.Equal("ready", decodeObject(s.T(), s.do(http.MethodGet, "/readyz", ""))["status"])
}

func jsonID(obj map[string]any) string {
	b, _ := json.Marshal(obj["id"])
	return string(b)
}

func TestCORS(t *testing.T) {
	srv := NewServer(":0", services.NewExpenseService(memory.New(nil)), Options{
		AllowedOrigins: []string{devOrigin},
		Logger:         quietLogger(),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set("Origin", devOrigin)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, devOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/expenses/1", nil)
	req.Header.Set("Origin", devOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, devOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestResponseHeaders(t *testing.T) {
	srv := NewServer(":0", services.NewExpenseService(memory.New(nil)), Options{Logger: quietLogger()})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.EqualValues(t, 1, srv.Metrics().TotalRequests)
}

func TestRateLimit(t *testing.T) {
	srv := NewServer(":0", services.NewExpenseService(memory.New(nil)), Options{
		Logger:            quietLogger(),
		RequestsPerMinute: 1,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
}

// failingService fails every call it overrides; the rest are never reached.
type failingService struct {
	ExpenseService
}

var errBackend = errors.New("connection refused")

func (failingService) GetAllExpenses(context.Context) ([]core.Expense, error) { return nil, errBackend }
func (failingService) Ping(context.Context) error                             { return errBackend }

func TestBackendFailures(t *testing.T) {
	srv := NewServer(":0", failingService{}, Options{Logger: quietLogger()})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, srv.Metrics().ServerErrors, "the 500 and the 503")
}

func TestMethodNotAllowed(t *testing.T) {
	srv := NewServer(":0", services.NewExpenseService(memory.New(nil)), Options{Logger: quietLogger()})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/expenses/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
