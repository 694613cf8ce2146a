package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Gateway is the cache gateway as seen by the HTTP layer.
type Gateway interface {
	Fetch(ctx context.Context, req *http.Request) (*http.Response, error)
}

type ContactSubmitter interface {
	Submit(ctx context.Context, form domain.ContactForm) (*domain.ContactMessage, error)
}

type HTTPHandler struct {
	gateway Gateway
	contact ContactSubmitter
	metrics http.Handler
	origin  *url.URL
	// allowed holds the hosts absolute-form requests may target.
	allowed map[string]struct{}
	logger  *zap.Logger
}

type ContactHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// NewHTTPHandler builds the handler. Absolute-form requests are proxied
// only to the origin host and the extra allowedHosts.
func NewHTTPHandler(gateway Gateway, contact ContactSubmitter, metrics http.Handler, origin *url.URL, allowedHosts []string, logger *zap.Logger) *HTTPHandler {
	allowed := map[string]struct{}{strings.ToLower(origin.Host): {}}
	for _, host := range allowedHosts {
		allowed[strings.ToLower(host)] = struct{}{}
	}
	return &HTTPHandler{
		gateway: gateway,
		contact: contact,
		metrics: metrics,
		origin:  origin,
		allowed: allowed,
		logger:  logger,
	}
}

// Routes serves local endpoints and hands every other request to the
// gateway. Absolute-form requests (forward proxy use) always go to the
// gateway, whatever their path.
func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	r.Post("/api/contact", h.Contact)
	r.HandleFunc("/*", h.Proxy)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.IsAbs() {
			h.Proxy(w, req)
			return
		}
		r.ServeHTTP(w, req)
	})
}

func (h *HTTPHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := r.URL
	if target.IsAbs() && !h.allowedTarget(target) {
		h.logger.Warn("proxy target rejected", zap.String("host", target.Host))
		http.Error(w, "forbidden proxy target", http.StatusForbidden)
		return
	}
	if !target.IsAbs() {
		target = h.origin.ResolveReference(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})
	}

	out := r.Clone(r.Context())
	out.URL = target
	out.Host = target.Host
	out.RequestURI = ""
	for _, hdr := range hopHeaders {
		out.Header.Del(hdr)
	}

	resp, err := h.gateway.Fetch(r.Context(), out)
	if err != nil {
		h.logger.Debug("passthrough fetch failed", zap.String("url", target.String()), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	for _, hdr := range hopHeaders {
		w.Header().Del(hdr)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug("copy response body", zap.String("url", target.String()), zap.Error(err))
	}
}

func (h *HTTPHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var form domain.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ContactHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	msg, err := h.contact.Submit(r.Context(), form)
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, ContactHTTPResponse{
				Success: false,
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("contact submission failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ContactHTTPResponse{
			Success: false,
			Message: "internal error",
		})
		return
	}

	writeJSON(w, http.StatusCreated, ContactHTTPResponse{
		Success: true,
		Message: "message received",
		ID:      msg.ID,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) allowedTarget(u *url.URL) bool {
	_, ok := h.allowed[strings.ToLower(u.Host)]
	return ok
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrContactNameRequired,
		domain.ErrContactEmailInvalid,
		domain.ErrContactSubjectRequired,
		domain.ErrContactMessageRequired,
		domain.ErrContactMessageTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
