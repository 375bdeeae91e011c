package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Cache memoizes successful GET responses for ttl, keyed on the request
// URI. Status reads dominate the API traffic and tolerate short staleness.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			resp := hit.(cachedResponse)
			c.Data(resp.status, resp.contentType, resp.body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = recorder

		c.Next()

		if recorder.Status() >= 200 && recorder.Status() < 300 {
			store.Set(key, cachedResponse{
				status:      recorder.Status(),
				contentType: recorder.Header().Get("Content-Type"),
				body:        recorder.body.Bytes(),
			}, ttl)
		}
	}
}
