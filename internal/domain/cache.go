package domain

import "context"

// CacheInfo describes the cached queries of one source.
type CacheInfo struct {
	Source    string `json:"source"`
	Entries   int64  `json:"entries"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

// CacheHealth is the reachability of the cache server.
type CacheHealth struct {
	Available bool   `json:"available"`
	Latency   string `json:"latency,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CacheAdminRepository exposes cache internals to operators.
type CacheAdminRepository interface {
	SourceInfo(ctx context.Context, source string) (*CacheInfo, error)
	ServerInfo(ctx context.Context) (*CacheHealth, error)
}
