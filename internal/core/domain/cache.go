package domain

import "net/http"

// CachedResponse is a captured HTTP response stored under a request key.
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Status     string      `json:"status"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// CacheKey identifies a request by method and absolute URL.
func CacheKey(r *http.Request) string {
	return r.Method + " " + r.URL.String()
}
