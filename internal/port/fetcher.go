package port

import "net/http"

// Fetcher performs network requests; *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}
