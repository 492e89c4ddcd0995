package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"transaction-service/internal/cache"
	"transaction-service/internal/models"
	"transaction-service/internal/service"
	"transaction-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, c cache.Cache) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewTransactionService(store.NewMemoryStore(), nil, "test", time.Second)
	router := gin.New()
	NewHandler(svc, c).SetupRoutes(router)
	return router
}

func newCache(t *testing.T) *cache.MemoryCache {
	c := cache.NewMemoryCache(time.Minute, 0)
	t.Cleanup(func() { c.Close() })
	return c
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"customerId": "CUST-1",
	"customerName": "Asha Rao",
	"phoneNumber": "9876543210",
	"gender": "Female",
	"region": "North",
	"productId": "PROD-9",
	"productName": "Kettle",
	"category": "Home",
	"tags": [" steel ", "", "kitchen"],
	"quantity": 2,
	"totalAmount": 1500,
	"date": "2023-05-01"
}`

func TestTransactionFlow(t *testing.T) {
	router := setupRouter(t, newCache(t))

	var created models.Transaction

	t.Run("list starts empty and is cached", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/transactions", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		assert.JSONEq(t, `{"data":[],"meta":{"total":0,"page":1,"perPage":10,"totalPages":0}}`, w.Body.String())

		w = do(router, http.MethodGet, "/api/transactions", "")
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	})

	t.Run("create", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/transactions", validBody)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "INR", created.Currency)
		assert.Equal(t, []string{"steel", "kitchen"}, created.Tags)
		assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), created.Date)
	})

	t.Run("list sees the new record after flush", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/transactions", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

		var result models.ListResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.Len(t, result.Data, 1)
		assert.Equal(t, created.ID, result.Data[0].ID)
		assert.Equal(t, int64(1), result.Meta.Total)
	})

	t.Run("update", func(t *testing.T) {
		w := do(router, http.MethodPut, "/api/transactions/"+created.ID, `{"region":"West","_id":"hijack"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var updated models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, "West", updated.Region)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Asha Rao", updated.CustomerName)
	})

	t.Run("options and stats", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/transactions/options", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"regions":["West"],"categories":["Home"]}`, w.Body.String())

		w = do(router, http.MethodGet, "/api/transactions/stats", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"totalUnits":2,"totalAmount":1500,"totalDiscount":0}`, w.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		w := do(router, http.MethodDelete, "/api/transactions/"+created.ID, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Message     string             `json:"message"`
			Transaction models.Transaction `json:"transaction"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Transaction deleted successfully", resp.Message)
		assert.Equal(t, created.ID, resp.Transaction.ID)

		w = do(router, http.MethodGet, "/api/transactions/stats", "")
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		assert.JSONEq(t, `{"totalUnits":0,"totalAmount":0,"totalDiscount":0}`, w.Body.String())
	})
}

func TestCacheKeyIgnoresParameterOrder(t *testing.T) {
	router := setupRouter(t, newCache(t))

	w := do(router, http.MethodGet, "/api/transactions?region=North&gender=Male&gender=Female", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = do(router, http.MethodGet, "/api/transactions?gender=Female&gender=Male&region=North", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestErrorResponses(t *testing.T) {
	router := setupRouter(t, newCache(t))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		errMsg string
	}{
		{"update missing", http.MethodPut, "/api/transactions/does-not-exist", `{"region":"West"}`, http.StatusNotFound, "Transaction not found"},
		{"delete missing", http.MethodDelete, "/api/transactions/does-not-exist", "", http.StatusNotFound, "Transaction not found"},
		{"malformed body", http.MethodPost, "/api/transactions", `{"customerId":`, http.StatusBadRequest, "Invalid request body"},
		{"wrong type", http.MethodPost, "/api/transactions", `{"quantity":"two"}`, http.StatusBadRequest, "Invalid request body"},
		{"missing fields", http.MethodPost, "/api/transactions", `{"customerId":"C1"}`, http.StatusBadRequest, "Validation failed"},
		{"bad page", http.MethodGet, "/api/transactions?page=zero", "", http.StatusBadRequest, "Invalid query parameter"},
		{"bad sort field", http.MethodGet, "/api/transactions?sortBy=password", "", http.StatusBadRequest, "Invalid query parameter"},
		{"bad date", http.MethodGet, "/api/transactions?startDate=yesterday", "", http.StatusBadRequest, "Invalid query parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.errMsg, resp["error"])
		})
	}
}

func TestValidationDetails(t *testing.T) {
	router := setupRouter(t, newCache(t))

	w := do(router, http.MethodPost, "/api/transactions", `{"customerId":"C1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, field := range []string{"customerName", "phoneNumber", "productId", "productName", "quantity", "date"} {
		assert.Contains(t, resp.Details, field)
	}
	assert.NotContains(t, resp.Details, "customerId")
}

func TestFailedMutationKeepsCache(t *testing.T) {
	c := newCache(t)
	router := setupRouter(t, c)

	do(router, http.MethodGet, "/api/transactions/stats", "")
	do(router, http.MethodDelete, "/api/transactions/missing", "")

	w := do(router, http.MethodGet, "/api/transactions/stats", "")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func (brokenCache) Flush(context.Context) error { return errors.New("cache down") }

func (brokenCache) Close() error { return nil }

func TestCacheFailuresDegradeToMiss(t *testing.T) {
	router := setupRouter(t, brokenCache{})

	w := do(router, http.MethodGet, "/api/transactions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = do(router, http.MethodPost, "/api/transactions", validBody)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHealthAndCORS(t *testing.T) {
	router := setupRouter(t, newCache(t))

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodOptions, "/api/transactions", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(bodyLimit(16))
	router.POST("/echo", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			badBody(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(`{"payload":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestFlushDuringLoadIsNotCached(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newCache(t)
	svc := service.NewTransactionService(store.NewMemoryStore(), nil, "test", time.Second)
	h := NewHandler(svc, c)

	loads := 0
	router := gin.New()
	router.GET("/racy", func(gc *gin.Context) {
		h.serveCached(gc, "racy", time.Minute, "load failed", func(ctx context.Context) (any, error) {
			loads++
			// a mutation commits and flushes while this payload is being built
			h.flush(ctx)
			return gin.H{"loads": loads}, nil
		})
	})

	w := do(router, http.MethodGet, "/racy", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"loads":1}`, w.Body.String())
	assert.Equal(t, 0, c.Len())

	w = do(router, http.MethodGet, "/racy", "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"loads":2}`, w.Body.String())
}
