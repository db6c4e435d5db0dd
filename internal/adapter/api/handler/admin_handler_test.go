package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/usecase"
)

// mockCacheAdmin is a mock implementation of CacheAdmin.
type mockCacheAdmin struct {
	Removed int64
	Info    *domain.CacheInfo
	Status  *domain.CacheHealth
	Err     error
}

func (m *mockCacheAdmin) Invalidate(context.Context, string) (int64, error) {
	return m.Removed, m.Err
}

func (m *mockCacheAdmin) SourceInfo(_ context.Context, source string) (*domain.CacheInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	info := *m.Info
	info.Source = source
	return &info, nil
}

func (m *mockCacheAdmin) Health(context.Context) (*domain.CacheHealth, error) {
	return m.Status, m.Err
}

func newAdminTestRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Get("/admin/cache/health", h.CacheHealth)
	r.Get("/admin/cache/sources/{source}", h.GetSourceInfo)
	r.Delete("/admin/cache/sources/{source}", h.InvalidateSource)
	return r
}

func TestAdminHandler(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		admin          *mockCacheAdmin
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Health",
			method:         http.MethodGet,
			path:           "/health",
			admin:          &mockCacheAdmin{},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:           "Invalidate",
			method:         http.MethodDelete,
			path:           "/admin/cache/sources/s1",
			admin:          &mockCacheAdmin{Removed: 4},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"removed":4}`,
		},
		{
			name:           "Invalidate without cache",
			method:         http.MethodDelete,
			path:           "/admin/cache/sources/s1",
			admin:          &mockCacheAdmin{Err: usecase.ErrCacheDisabled},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "Source info",
			method:         http.MethodGet,
			path:           "/admin/cache/sources/s1",
			admin:          &mockCacheAdmin{Info: &domain.CacheInfo{Entries: 2, ExpiresIn: "1m0s"}},
			expectedStatus: http.StatusOK,
			expectedBody:   `"source":"s1"`,
		},
		{
			name:           "Cache unreachable",
			method:         http.MethodGet,
			path:           "/admin/cache/health",
			admin:          &mockCacheAdmin{Status: &domain.CacheHealth{Available: false, Error: "dial tcp: refused"}},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(tt.admin, testLogger())
			rr := httptest.NewRecorder()
			newAdminTestRouter(h).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			if tt.expectedBody != "" && !json.Valid(rr.Body.Bytes()) {
				t.Fatalf("expected JSON body, got %q", rr.Body.String())
			}
			if tt.expectedBody != "" && !strings.Contains(rr.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, rr.Body.String())
			}
		})
	}
}
