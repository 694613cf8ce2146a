package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// Fetch outcomes reported to metrics.
const (
	FetchHit          = "hit"
	FetchStored       = "miss_stored"
	FetchUncached     = "miss_uncached"
	FetchNetworkError = "network_error"
	FetchPassthrough  = "passthrough"
	FetchWriteError   = "cache_write_error"
)

type GatewayConfig struct {
	// Version names the only store that survives Activate.
	Version    string
	Origin     string
	SeedAssets []string
}

// CacheGateway serves requests from the current versioned store when an
// entry exists and otherwise from the network. Entries never expire; a new
// Version followed by Activate is the only way to drop them.
type CacheGateway struct {
	cfg     GatewayConfig
	origin  *url.URL
	storage port.CacheStorage
	fetcher port.Fetcher
	metrics port.GatewayMetrics
	logger  *zap.Logger
}

func NewCacheGateway(cfg GatewayConfig, storage port.CacheStorage, fetcher port.Fetcher, metrics port.GatewayMetrics, logger *zap.Logger) (*CacheGateway, error) {
	if cfg.Version == "" {
		return nil, errors.New("cache version is required")
	}
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	return &CacheGateway{
		cfg:     cfg,
		origin:  origin,
		storage: storage,
		fetcher: fetcher,
		metrics: metrics,
		logger:  logger,
	}, nil
}

func (g *CacheGateway) Version() string { return g.cfg.Version }

// Install opens the current store and pre-populates it with the seed
// assets. Nothing is written unless every seed fetch returns 200.
func (g *CacheGateway) Install(ctx context.Context) error {
	store, err := g.storage.OpenOrCreate(ctx, g.cfg.Version)
	if err != nil {
		return fmt.Errorf("%w: open store %s: %v", domain.ErrInstallFailed, g.cfg.Version, err)
	}

	entries := make(map[string]*domain.CachedResponse, len(g.cfg.SeedAssets))
	for _, asset := range g.cfg.SeedAssets {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.resolve(asset), nil)
		if err != nil {
			return fmt.Errorf("%w: build request for %s: %v", domain.ErrInstallFailed, asset, err)
		}

		resp, err := g.fetcher.Do(req)
		if err != nil {
			return fmt.Errorf("%w: fetch %s: %v", domain.ErrInstallFailed, asset, err)
		}
		captured, err := capture(resp)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", domain.ErrInstallFailed, asset, err)
		}
		if captured.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: fetch %s: status %d", domain.ErrInstallFailed, asset, captured.StatusCode)
		}
		entries[domain.CacheKey(req)] = captured
	}

	if err := store.PutAll(ctx, entries); err != nil {
		return fmt.Errorf("%w: write seed assets: %v", domain.ErrInstallFailed, err)
	}

	g.logger.Info("cache installed",
		zap.String("version", g.cfg.Version),
		zap.Int("assets", len(entries)),
	)
	return nil
}

// Activate deletes every store other than the current version and returns
// the deleted names.
func (g *CacheGateway) Activate(ctx context.Context) ([]string, error) {
	names, err := g.storage.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cache stores: %w", err)
	}

	var deleted []string
	for _, name := range names {
		if name == g.cfg.Version {
			continue
		}
		ok, err := g.storage.Delete(ctx, name)
		if err != nil {
			return deleted, fmt.Errorf("delete cache store %s: %w", name, err)
		}
		if ok {
			deleted = append(deleted, name)
			g.logger.Info("deleted stale cache store", zap.String("name", name))
		}
	}
	return deleted, nil
}

// Fetch serves req from cache or network. Requests with a scheme other than
// http or https go straight to the fetcher and its result, error included,
// is returned untouched. For http(s) requests the returned error is always
// nil: a network failure becomes a synthetic 503. Only GET requests read or
// write the cache.
func (g *CacheGateway) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	if !isHTTP(req.URL) {
		g.metrics.ObserveFetch(FetchPassthrough)
		return g.fetcher.Do(req)
	}

	key := domain.CacheKey(req)

	if !isCacheable(req) {
		resp, err := g.fetcher.Do(req)
		if err != nil {
			g.metrics.ObserveFetch(FetchNetworkError)
			g.logger.Debug("network fetch failed", zap.String("key", key), zap.Error(err))
			return serviceUnavailable(req), nil
		}
		g.metrics.ObserveFetch(FetchUncached)
		return resp, nil
	}

	store, err := g.storage.OpenOrCreate(ctx, g.cfg.Version)
	if err != nil {
		// lookup and write are best-effort; fall through to the network
		g.logger.Warn("cache store unavailable", zap.String("version", g.cfg.Version), zap.Error(err))
		store = nil
	}

	if store != nil {
		cached, ok, err := store.Get(ctx, key)
		if err != nil {
			g.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			g.metrics.ObserveFetch(FetchHit)
			return toResponse(cached, req), nil
		}
	}

	resp, err := g.fetcher.Do(req)
	if err != nil {
		g.metrics.ObserveFetch(FetchNetworkError)
		g.logger.Debug("network fetch failed", zap.String("key", key), zap.Error(err))
		return serviceUnavailable(req), nil
	}

	if resp.StatusCode != http.StatusOK || !g.isBasic(req) {
		g.metrics.ObserveFetch(FetchUncached)
		return resp, nil
	}

	captured, err := capture(resp)
	if err != nil {
		g.metrics.ObserveFetch(FetchNetworkError)
		g.logger.Debug("reading network response failed", zap.String("key", key), zap.Error(err))
		return serviceUnavailable(req), nil
	}

	switch {
	case store == nil:
		g.metrics.ObserveFetch(FetchWriteError)
	default:
		if err := store.Put(ctx, key, captured); err != nil {
			g.metrics.ObserveFetch(FetchWriteError)
			g.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			break
		}
		g.metrics.ObserveFetch(FetchStored)
	}

	return toResponse(captured, req), nil
}

// isBasic reports whether req targets the gateway's own origin.
func (g *CacheGateway) isBasic(req *http.Request) bool {
	return strings.EqualFold(req.URL.Scheme, g.origin.Scheme) &&
		strings.EqualFold(req.URL.Host, g.origin.Host)
}

func (g *CacheGateway) resolve(asset string) string {
	ref, err := url.Parse(asset)
	if err != nil {
		return asset
	}
	return g.origin.ResolveReference(ref).String()
}

func isCacheable(req *http.Request) bool {
	return req.Method == "" || req.Method == http.MethodGet
}

func isHTTP(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// capture drains and closes the body so the response can be stored and
// replayed independently.
func capture(resp *http.Response) (*domain.CachedResponse, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &domain.CachedResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

func toResponse(c *domain.CachedResponse, req *http.Request) *http.Response {
	status := c.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", c.StatusCode, http.StatusText(c.StatusCode))
	}
	return &http.Response{
		Status:        status,
		StatusCode:    c.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        c.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(c.Body)),
		ContentLength: int64(len(c.Body)),
		Request:       req,
	}
}

func serviceUnavailable(req *http.Request) *http.Response {
	body := http.StatusText(http.StatusServiceUnavailable)
	return &http.Response{
		Status:        "503 Service Unavailable",
		StatusCode:    http.StatusServiceUnavailable,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
