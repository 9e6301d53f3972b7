package store

// AgentStats is the read-only aggregate view of one agent's store, derived
// purely from the three entity tables plus the store file size. It is
// consumed by external dashboards; there are no separate counters to keep in
// sync.
type AgentStats struct {
	Agent               string `json:"agent"`
	TotalDecisions      int64  `json:"total_decisions"`
	ResolvedDecisions   int64  `json:"resolved_decisions"`
	UnresolvedDecisions int64  `json:"unresolved_decisions"`
	ActivePatterns      int64  `json:"active_patterns"`
	TotalKnowledge      int64  `json:"total_knowledge"`
	WinCount            int64  `json:"win_count"`
	LossCount           int64  `json:"loss_count"`
	// WinRate is a percentage in [0, 100], one decimal place.
	WinRate float64 `json:"win_rate"`
	// AvgConfidence is the mean stated confidence of resolved decisions.
	AvgConfidence float64 `json:"avg_confidence"`
	// RecentPatterns7d counts patterns created in the last 7 days.
	RecentPatterns7d int64   `json:"recent_patterns_7d"`
	DBSizeKB         float64 `json:"db_size_kb"`
}
