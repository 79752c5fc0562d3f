package monitor

import (
	"sync/atomic"
)

// WorkloadStats counts the operations a benchmark issued against one
// collection.
type WorkloadStats struct {
	InsertCount  uint64
	QueryCount   uint64
	MatchedCount uint64
}

func NewWorkloadStats() *WorkloadStats {
	return &WorkloadStats{}
}

func (ws *WorkloadStats) RecordInsert() {
	atomic.AddUint64(&ws.InsertCount, 1)
}

func (ws *WorkloadStats) RecordQuery(matched int) {
	atomic.AddUint64(&ws.QueryCount, 1)
	atomic.AddUint64(&ws.MatchedCount, uint64(matched))
}

func (ws *WorkloadStats) Inserts() uint64 { return atomic.LoadUint64(&ws.InsertCount) }
func (ws *WorkloadStats) Queries() uint64 { return atomic.LoadUint64(&ws.QueryCount) }

// GetRowsPerQuery returns the mean number of matches per range query.
func (ws *WorkloadStats) GetRowsPerQuery() float64 {
	queries := atomic.LoadUint64(&ws.QueryCount)
	matched := atomic.LoadUint64(&ws.MatchedCount)

	if queries == 0 {
		return 0.0
	}
	return float64(matched) / float64(queries)
}
