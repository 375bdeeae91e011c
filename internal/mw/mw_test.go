package mw

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestCache_ServesSecondRequestFromStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	hits := 0
	store := cache.New(time.Minute, time.Minute)
	r.GET("/status", Cache(store, time.Minute), func(c *gin.Context) {
		hits++
		c.String(http.StatusOK, "hit %d", hits)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/status", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "hit 1", w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/status", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "hit 1", w.Body.String(), "second request comes from the cache")
	assert.Equal(t, 1, hits)
}

func TestCache_DistinguishesQueryStrings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	store := cache.New(time.Minute, time.Minute)
	r.GET("/history", Cache(store, time.Minute), func(c *gin.Context) {
		c.String(http.StatusOK, "limit=%s", c.Query("limit"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/history?limit=5", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "limit=5", w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/history?limit=10", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "limit=10", w.Body.String())
}

func TestCache_SkipsErrorResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	hits := 0
	store := cache.New(time.Minute, time.Minute)
	r.GET("/flaky", Cache(store, time.Minute), func(c *gin.Context) {
		hits++
		c.String(http.StatusInternalServerError, "boom")
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/flaky", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
	assert.Equal(t, 2, hits, "error responses are never cached")
}

func TestRateLimiter_LimitsPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimiter(rate.Limit(0.001), 2, "X-Real-IP"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client gets its own bucket.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_ManyClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimiter(rate.Limit(1), 1, "X-Real-IP"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", "10.1.0."+strconv.Itoa(i))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
