package monitor

import (
	"sync"
	"testing"
)

func TestWorkloadStatsConcurrent(t *testing.T) {
	ws := NewWorkloadStats()
	if ws.GetRowsPerQuery() != 0 {
		t.Fatalf("expected 0 rows/query before any query")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ws.RecordInsert()
				ws.RecordQuery(3)
			}
		}()
	}
	wg.Wait()

	if ws.Inserts() != 800 || ws.Queries() != 800 {
		t.Fatalf("expected 800 inserts and queries, got %d and %d", ws.Inserts(), ws.Queries())
	}
	if ws.GetRowsPerQuery() != 3 {
		t.Fatalf("expected 3 rows/query, got %v", ws.GetRowsPerQuery())
	}
}
