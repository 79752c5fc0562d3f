package storage

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"rangeindex/pkg/common"
	"rangeindex/pkg/core"
)

func testRecords() []common.Record {
	return []common.Record{
		{ID: 1, Name: "Widget", Category: "tools", Price: 9.99},
		{ID: 2, Name: "Gadget", Category: "tools", Price: 10},
		{ID: 3, Name: "Novel", Category: "books", Price: 55.5},
		{ID: 4, Name: "Atlas", Category: "books", Price: 55.5},
		{ID: 5, Name: "Console", Category: "games", Price: 100},
		{ID: 6, Name: "Yacht", Category: "leisure", Price: 100.01},
		{ID: -7, Name: "Refund", Category: "misc", Price: -3},
	}
}

type store interface {
	core.Collection
	core.Deleter
	Get(id int64) (common.Record, bool, error)
}

func exerciseStore(t *testing.T, s store) {
	t.Helper()
	for _, r := range testRecords() {
		if err := s.Put(r); err != nil {
			t.Fatalf("put %d: %v", r.ID, err)
		}
	}
	if s.Len() != 7 {
		t.Fatalf("expected 7 records, got %d", s.Len())
	}

	got, err := core.ScanAll(s, 10, 100)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	wantIDs := []int64{2, 3, 4, 5}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d records in [10,100], got %v", len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, got[i].ID)
		}
	}
	if got[1].Name != "Novel" || got[1].Category != "books" || got[1].Price != 55.5 {
		t.Fatalf("record not round-tripped: %+v", got[1])
	}

	neg, _ := core.ScanAll(s, -1e18, 0)
	if len(neg) != 1 || neg[0].ID != -7 {
		t.Fatalf("expected the negative price record, got %v", neg)
	}
	if empty, _ := core.ScanAll(s, 100, 10); len(empty) != 0 {
		t.Fatalf("inverted range returned %v", empty)
	}

	if err := s.Put(common.Record{ID: 3, Name: "Novel", Category: "books", Price: 5}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if s.Len() != 7 {
		t.Fatalf("overwrite changed count to %d", s.Len())
	}
	if got, _ := core.ScanAll(s, 50, 60); len(got) != 1 || got[0].ID != 4 {
		t.Fatalf("stale entry after overwrite: %v", got)
	}
	rec, ok, err := s.Get(3)
	if err != nil || !ok || rec.Price != 5 {
		t.Fatalf("get after overwrite: rec=%+v ok=%v err=%v", rec, ok, err)
	}

	if found, err := s.Delete(3); err != nil || !found {
		t.Fatalf("delete: found=%v err=%v", found, err)
	}
	if found, _ := s.Delete(3); found {
		t.Fatalf("second delete should miss")
	}
	if _, ok, _ := s.Get(3); ok {
		t.Fatalf("deleted record still readable")
	}
	if s.Len() != 6 {
		t.Fatalf("expected 6 records after delete, got %d", s.Len())
	}
}

func TestSQLiteCollection(t *testing.T) {
	s, err := NewSQLiteCollection(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteBatchAndTruncate(t *testing.T) {
	s, err := NewSQLiteCollection(filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	batch := make([]common.Record, 300)
	for i := range batch {
		batch[i] = common.Record{ID: int64(i), Name: fmt.Sprint("n", i), Category: "c", Price: float64(i)}
	}
	if err := s.PutBatch(batch); err != nil {
		t.Fatalf("batch put: %v", err)
	}
	if s.Len() != 300 {
		t.Fatalf("expected 300 rows, got %d", s.Len())
	}
	if err := s.Truncate(); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected 0 rows after truncate, got %d", s.Len())
	}
}

func TestPebbleCollectionInMemory(t *testing.T) {
	p, err := NewPebbleCollection("")
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	defer p.Close()
	exerciseStore(t, p)
}

func TestPebbleCollectionReopenCounts(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPebbleCollection(dir)
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	for _, r := range testRecords() {
		if err := p.Put(r); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	p2, err := NewPebbleCollection(dir)
	if err != nil {
		t.Fatalf("reopen pebble: %v", err)
	}
	defer p2.Close()
	if p2.Len() != len(testRecords()) {
		t.Fatalf("expected %d records after reopen, got %d", len(testRecords()), p2.Len())
	}
}

func TestFloatEncodingPreservesOrder(t *testing.T) {
	values := []float64{math.Inf(-1), -1e9, -3.5, -0.0001, 0, 0.0001, 1, 10, 99.99, 100, 1e12, math.Inf(1)}
	for i := 1; i < len(values); i++ {
		a, b := encodeFloat(values[i-1]), encodeFloat(values[i])
		if a >= b {
			t.Fatalf("encode(%v)=%x not below encode(%v)=%x", values[i-1], a, values[i], b)
		}
	}
	for _, v := range values {
		if got := decodeFloat(encodeFloat(v)); got != v {
			t.Fatalf("decode(encode(%v)) = %v", v, got)
		}
	}
	if encodeFloat(math.Copysign(0, -1)) != encodeFloat(0) {
		t.Fatal("negative zero should encode like zero")
	}
}

func TestDecodeRecordRejectsTruncatedValues(t *testing.T) {
	full := encodeRecord(common.Record{ID: 9, Name: "abc", Category: "def", Price: 1})
	for n := 0; n < len(full); n++ {
		if _, err := decodeRecord(full[:n]); err == nil {
			t.Fatalf("expected error for %d-byte prefix", n)
		}
	}
	if _, err := decodeRecord(full); err != nil {
		t.Fatalf("decode full value: %v", err)
	}
}
