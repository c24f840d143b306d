package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetdash/internal/assistant"
	"budgetdash/internal/core"
	applog "budgetdash/internal/log"
	"budgetdash/internal/services"
	"budgetdash/internal/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string        `json:"code"`
		Message string        `json:"message"`
		Details []FieldDetail `json:"details"`
	} `json:"error"`
}

type fakePlanner struct {
	call assistant.ToolCall
	err  error
}

func (f *fakePlanner) Plan(context.Context, string, core.Date) (assistant.ToolCall, error) {
	return f.call, f.err
}

func newTestServer(t *testing.T, mutate func(*Options, *services.Services)) (*Server, *services.Services) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := services.New(repo, nil, core.DefaultMaxRecurringMonths)
	opts := Options{
		RateLimitPerMinute: 1000,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		Ready:              repo.Ping,
	}
	if mutate != nil {
		mutate(&opts, svc)
	}

	srv, err := NewServer(svc, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func doRequest(t *testing.T, srv *Server, method, url string, body any) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, url, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec, env = doRequest(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decodeData[healthResponse](t, env)
	assert.Equal(t, "ready", ready.Status)
	require.NotNil(t, ready.Metrics)
	assert.GreaterOrEqual(t, ready.Metrics.Requests, int64(2))
	assert.Zero(t, ready.Metrics.SuspiciousRequests)
	assert.Zero(t, ready.Metrics.RateLimited)
}

func TestReadyReportsMetrics(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, srv, http.MethodGet, "/projections/summary?date=2025-03-14", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := doRequest(t, srv, http.MethodGet, "/.env", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := doRequest(t, srv, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	m := decodeData[healthResponse](t, env).Metrics
	require.NotNil(t, m)
	assert.Equal(t, int64(4), m.Requests)
	assert.Equal(t, int64(1), m.SuspiciousRequests)
	assert.Equal(t, int64(1), m.SummaryCache.Hits)
	assert.Equal(t, int64(1), m.SummaryCache.Misses)
	assert.Equal(t, 1, m.SummaryCache.Size)
}

func TestReadyFailure(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options, _ *services.Services) {
		o.Ready = func(context.Context) error { return errors.New("database is locked") }
	})

	rec, env := doRequest(t, srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeUnknown, env.Error.Code)
}

func TestCategoryLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := doRequest(t, srv, http.MethodPost, "/categories", map[string]any{
		"name": "Groceries", "budget": 100, "period": "weekly",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decodeData[core.Category](t, env)
	assert.Equal(t, core.PeriodWeekly, cat.Period)
	assert.Equal(t, core.DefaultCategoryColor, cat.Color)

	// Same route under the /api prefix.
	rec, env = doRequest(t, srv, http.MethodGet, "/api/categories/"+cat.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Groceries", decodeData[core.Category](t, env).Name)

	rec, env = doRequest(t, srv, http.MethodPut, "/categories/"+cat.ID, map[string]any{"name": "Food"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Food", decodeData[core.Category](t, env).Name)

	rec, env = doRequest(t, srv, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]core.Category](t, env), 1)

	rec, env = doRequest(t, srv, http.MethodDelete, "/categories/"+cat.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cat.ID, decodeData[deletedResponse](t, env).ID)

	rec, env = doRequest(t, srv, http.MethodGet, "/categories/"+cat.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name      string
		method    string
		url       string
		body      any
		wantField string
	}{
		{"missing description", http.MethodPost, "/transactions", map[string]any{"date": "2025-01-01", "amount": 5}, "description"},
		{"bad type", http.MethodPost, "/transactions", map[string]any{"date": "2025-01-01", "amount": 5, "description": "x", "type": "refund"}, "type"},
		{"missing date", http.MethodPost, "/transactions", map[string]any{"amount": 5, "description": "x"}, "date"},
		{"negative amount", http.MethodPost, "/transactions", map[string]any{"date": "2025-01-01", "amount": -1, "description": "x"}, "amount"},
		{"unknown category", http.MethodPost, "/transactions", map[string]any{"date": "2025-01-01", "amount": 5, "description": "x", "categoryId": "nope"}, "categoryId"},
		{"empty body", http.MethodPost, "/categories", "", "body"},
		{"malformed json", http.MethodPost, "/categories", "{", "body"},
		{"bad color", http.MethodPost, "/categories", map[string]any{"name": "A", "color": "red"}, "color"},
		{"too many months", http.MethodPost, "/transactions/recurring", map[string]any{
			"base":   map[string]any{"date": "2025-01-01", "amount": 5, "description": "x"},
			"months": 25,
		}, "months"},
		{"zero months", http.MethodPost, "/transactions/recurring", map[string]any{
			"base": map[string]any{"date": "2025-01-01", "amount": 5, "description": "x"},
		}, "months"},
		{"nested missing description", http.MethodPost, "/transactions/recurring", map[string]any{
			"base":   map[string]any{"date": "2025-01-01", "amount": 5},
			"months": 3,
		}, "base.description"},
		{"bad filter date", http.MethodGet, "/transactions?startDate=2025-13-01", nil, "startDate"},
		{"inverted range", http.MethodGet, "/transactions?startDate=2025-02-01&endDate=2025-01-01", nil, "startDate"},
		{"bad summary date", http.MethodGet, "/projections/summary?date=yesterday", nil, "date"},
		{"bad scope", http.MethodDelete, "/transactions/group/g1?scope=past", nil, "scope"},
		{"bad currency", http.MethodPut, "/settings", map[string]any{"currency": "euro"}, "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, srv, tt.method, tt.url, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, CodeValidation, env.Error.Code)

			fields := make([]string, 0, len(env.Error.Details))
			for _, d := range env.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	for _, url := range []string{"/transactions/missing", "/api/transactions/missing", "/no/such/route"} {
		rec, env := doRequest(t, srv, http.MethodGet, url, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, url)
		require.NotNil(t, env.Error, url)
		assert.Equal(t, CodeNotFound, env.Error.Code, url)
		assert.Nil(t, env.Data, url)
	}
}

func TestTransactionCRUDAndFilters(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := doRequest(t, srv, http.MethodPost, "/transactions", map[string]any{
		"date": "2025-03-10", "amount": 42.5, "description": "Dinner",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decodeData[core.Transaction](t, env)
	assert.Equal(t, core.TypeExpense, tx.Type)
	assert.Equal(t, core.Cents(4250), tx.Amount)

	_, _ = doRequest(t, srv, http.MethodPost, "/transactions", map[string]any{
		"date": "2025-03-12", "amount": 1000, "description": "Salary", "type": "income",
	})

	rec, env = doRequest(t, srv, http.MethodGet, "/transactions?type=income", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incomes := decodeData[[]core.Transaction](t, env)
	require.Len(t, incomes, 1)
	assert.Equal(t, "Salary", incomes[0].Description)

	rec, env = doRequest(t, srv, http.MethodGet, "/transactions?startDate=2025-03-11&endDate=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]core.Transaction](t, env), 1)

	rec, env = doRequest(t, srv, http.MethodPut, "/transactions/"+tx.ID, map[string]any{"amount": 40, "categoryId": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.Cents(4000), decodeData[core.Transaction](t, env).Amount)

	rec, env = doRequest(t, srv, http.MethodDelete, "/transactions/"+tx.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tx.ID, decodeData[deletedResponse](t, env).ID)

	rec, _ = doRequest(t, srv, http.MethodDelete, "/transactions/"+tx.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecurringGroupOperations(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := doRequest(t, srv, http.MethodPost, "/api/transactions/recurring", map[string]any{
		"base":   map[string]any{"date": "2025-01-31", "amount": 1200, "description": "Rent", "categoryId": core.FixedCategoryID},
		"months": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	series := decodeData[[]core.Transaction](t, env)
	require.Len(t, series, 4)
	assert.Equal(t, "2025-02-28", series[1].Date.String())
	require.NotNil(t, series[0].GroupID)
	groupID := *series[0].GroupID

	rec, env = doRequest(t, srv, http.MethodPut, "/transactions/group/"+groupID, map[string]any{
		"updates":  map[string]any{"amount": 1300, "date": "2030-01-01"},
		"scope":    "future",
		"fromDate": "2025-03-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[[]core.Transaction](t, env)
	require.Len(t, updated, 2)
	assert.Equal(t, "2025-03-31", updated[0].Date.String())
	assert.Equal(t, core.Cents(130000), updated[0].Amount)

	rec, env = doRequest(t, srv, http.MethodGet, "/transactions?isFixed=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeData[[]core.Transaction](t, env)
	require.Len(t, all, 4)
	// Newest first.
	assert.Equal(t, "2025-04-30", all[0].Date.String())
	assert.Equal(t, core.Cents(130000), all[0].Amount)
	assert.Equal(t, core.Cents(120000), all[3].Amount)

	rec, env = doRequest(t, srv, http.MethodDelete, "/transactions/group/"+groupID+"?scope=future&fromDate=2025-04-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeData[groupDeletedResponse](t, env).Deleted)

	rec, env = doRequest(t, srv, http.MethodDelete, "/transactions/group/"+groupID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeData[groupDeletedResponse](t, env).Deleted)

	rec, env = doRequest(t, srv, http.MethodDelete, "/transactions/group/"+groupID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestSettingsAndSummary(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec, env := doRequest(t, srv, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	settings := decodeData[core.Settings](t, env)
	assert.Nil(t, settings.BalanceAsOf)

	rec, env = doRequest(t, srv, http.MethodPut, "/settings", map[string]any{"checkingBalance": 500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	settings = decodeData[core.Settings](t, env)
	assert.NotNil(t, settings.BalanceAsOf)

	rec, env = doRequest(t, srv, http.MethodGet, "/projections/summary?date=2025-03-14", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sum := decodeData[core.Summary](t, env)
	assert.Equal(t, "2025-03-14", sum.AsOf.String())
	assert.Equal(t, "2025-03-10", sum.WeekStart.String())

	rec, _ = doRequest(t, srv, http.MethodGet, "/projections/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportImport(t *testing.T) {
	src, _ := newTestServer(t, nil)
	_, _ = doRequest(t, src, http.MethodPost, "/categories", map[string]any{"name": "Fun", "budget": 50})
	_, _ = doRequest(t, src, http.MethodPost, "/transactions", map[string]any{
		"date": "2025-05-01", "amount": 9.99, "description": "Movie",
	})

	rec, env := doRequest(t, src, http.MethodGet, "/migrate/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "budget-export-")
	snap := decodeData[core.Snapshot](t, env)
	assert.Len(t, snap.Categories, 1)
	assert.Len(t, snap.Transactions, 1)

	dst, _ := newTestServer(t, nil)
	rec, env = doRequest(t, dst, http.MethodPost, "/migrate/import", env.Data)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeData[core.ImportResult](t, env)
	assert.Equal(t, core.ImportCounts{Imported: 1}, res.Categories)
	assert.Equal(t, core.ImportCounts{Imported: 1}, res.Transactions)

	rec, env = doRequest(t, dst, http.MethodPost, "/migrate/import", snap)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeData[core.ImportResult](t, env)
	assert.Equal(t, core.ImportCounts{Skipped: 1}, res.Transactions)

	rec, env = doRequest(t, dst, http.MethodPost, "/migrate/import", map[string]any{
		"version": 1, "transactions": []map[string]any{{"id": "t1", "description": ""}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, env.Error.Code)
}

func TestRateLimitOnlyCountsWrites(t *testing.T) {
	srv, _ := newTestServer(t, func(o *Options, _ *services.Services) {
		o.RateLimitPerMinute = 2
	})

	body := map[string]any{"name": "A"}
	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, srv, http.MethodPost, "/categories", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, env := doRequest(t, srv, http.MethodPost, "/categories", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeRateLimited, env.Error.Code)

	rec, _ = doRequest(t, srv, http.MethodGet, "/categories", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, env = doRequest(t, srv, http.MethodGet, "/readyz", nil)
	m := decodeData[healthResponse](t, env).Metrics
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.RateLimited)
	assert.Equal(t, int64(1), m.RateLimitedClients)
}

func TestAssistantRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec, _ := doRequest(t, srv, http.MethodPost, "/assistant/intent", map[string]any{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "route is absent without an assistant")

	planner := &fakePlanner{call: assistant.ToolCall{
		Name:      assistant.ToolCreateTransaction,
		Arguments: json.RawMessage(`{"date": "2025-03-14", "amount": 4.5, "description": "Tea"}`),
	}}
	srv, svc := newTestServer(t, func(o *Options, svc *services.Services) {
		o.Assistant = assistant.New(planner, assistant.NewDispatcher(svc))
	})

	rec, env := doRequest(t, srv, http.MethodPost, "/api/assistant/intent", map[string]any{"text": "bought tea for 4.50"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeData[struct {
		Operation string `json:"operation"`
	}](t, env)
	assert.Equal(t, assistant.ToolCreateTransaction, res.Operation)

	txs, err := svc.Transactions.List(context.Background(), core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Tea", txs[0].Description)

	rec, env = doRequest(t, srv, http.MethodPost, "/assistant/intent", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, env.Error.Code)

	planner.err = errors.New("upstream unavailable")
	rec, env = doRequest(t, srv, http.MethodPost, "/assistant/intent", map[string]any{"text": "anything"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeUnknown, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "upstream")
}

func TestResponseBuilder(t *testing.T) {
	b := ValidationFailed("Invalid request", []FieldDetail{{Field: "name", Message: "is required"}}).
		Header("X-Test", "1")

	e := b.Envelope()
	assert.False(t, e.Success)
	assert.Nil(t, e.Data)
	require.NotNil(t, e.Error)
	assert.Equal(t, CodeValidation, e.Error.Code)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	b.Write(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Test"))
	assert.True(t, c.IsAborted())
	assert.JSONEq(t, `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"Invalid request","details":[{"field":"name","message":"is required"}]}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	OK(c, nil)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}
