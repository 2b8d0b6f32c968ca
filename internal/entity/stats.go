package entity

// ServiceStats is the aggregated service status surface.
type ServiceStats struct {
	Version       string                 `json:"version"`
	UptimeSeconds float64                `json:"uptime"`
	AIProvider    string                 `json:"ai_provider"`
	Model         string                 `json:"model"`
	CacheEnabled  bool                   `json:"cache_enabled"`
	CacheSize     int64                  `json:"cache_size"`
	RecordCount   int64                  `json:"qa_records_count"`
	RecordsByType map[QuestionType]int64 `json:"records_by_type,omitempty"`
	RateLimit     *RateLimitStats        `json:"rate_limit,omitempty"`
}

// RateLimitStats mirrors the request limiter counters.
type RateLimitStats struct {
	TotalRequests     int64 `json:"total_requests"`
	BlockedRequests   int64 `json:"blocked_requests"`
	ActiveIdentifiers int   `json:"active_identifiers"`
	MaxRequests       int   `json:"max_requests"`
	WindowSeconds     int64 `json:"time_window"`
}

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Version      string `json:"version"`
	CacheEnabled bool   `json:"cache_enabled"`
	AIProvider   string `json:"ai_provider"`
	Model        string `json:"model"`
}
