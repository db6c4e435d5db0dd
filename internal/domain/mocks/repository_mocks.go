package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// MockLogSource is a mock implementation of domain.LogSource for testing.
type MockLogSource struct {
	mu      sync.Mutex
	Records []domain.LogRecord
	Err     error
	Queries []domain.LogQuery
}

func (m *MockLogSource) ListLogs(ctx context.Context, q domain.LogQuery) ([]domain.LogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.LogRecord, len(m.Records))
	for i, r := range m.Records {
		out[i] = r.Clone()
	}
	return out, nil
}

// Calls returns how many times ListLogs was invoked.
func (m *MockLogSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// MockSummarySource is a mock implementation of domain.SummarySource for testing.
type MockSummarySource struct {
	mu      sync.Mutex
	Time    *domain.TimeSummary
	Intents *domain.IntentSummary
	Stats   *domain.SourceStats
	Err     error
	Queries []domain.SummaryQuery
}

func (m *MockSummarySource) TimeSummary(ctx context.Context, q domain.SummaryQuery) (*domain.TimeSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Time == nil {
		return &domain.TimeSummary{}, nil
	}
	return m.Time, nil
}

func (m *MockSummarySource) IntentSummary(ctx context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Intents, nil
}

func (m *MockSummarySource) SourceStats(ctx context.Context, q domain.SummaryQuery) (*domain.SourceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, q)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Stats, nil
}

// Calls returns how many summary queries were made.
func (m *MockSummarySource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// MockCache is an in-memory domain.CacheRepository.
type MockCache struct {
	mu          sync.Mutex
	Entries     map[string][]byte
	GetErr      error
	SetErr      error
	Invalidated []string

	// InvalidateErr is returned by the first InvalidateFailures calls, or by every
	// call when InvalidateFailures is 0.
	InvalidateErr      error
	InvalidateFailures int
	invalidateCalls    int
}

func NewMockCache() *MockCache {
	return &MockCache{Entries: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, source, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.Entries[source+"|"+key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, source, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Entries[source+"|"+key] = value
	return nil
}

func (m *MockCache) InvalidateSource(ctx context.Context, source string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateCalls++
	if m.InvalidateErr != nil && (m.InvalidateFailures == 0 || m.invalidateCalls <= m.InvalidateFailures) {
		return 0, m.InvalidateErr
	}
	m.Invalidated = append(m.Invalidated, source)
	var n int64
	for k := range m.Entries {
		if strings.HasPrefix(k, source+"|") {
			delete(m.Entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of cached entries.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

// MockCacheAdmin is a mock implementation of domain.CacheAdminRepository.
type MockCacheAdmin struct {
	Info   *domain.CacheInfo
	Health *domain.CacheHealth
	Err    error
}

func (m *MockCacheAdmin) SourceInfo(ctx context.Context, source string) (*domain.CacheInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Info == nil {
		return &domain.CacheInfo{Source: source}, nil
	}
	return m.Info, nil
}

func (m *MockCacheAdmin) ServerInfo(ctx context.Context) (*domain.CacheHealth, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Health, nil
}
