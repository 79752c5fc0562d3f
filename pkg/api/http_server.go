package api

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rangeindex/pkg/bench"
	"rangeindex/pkg/common"
	"rangeindex/pkg/core"
	"rangeindex/pkg/monitor"
	"rangeindex/pkg/sql"
)

// Store is an in-process collection that also answers point lookups and
// deletes.
type Store interface {
	core.Collection
	core.Deleter
	Get(id int64) (common.Record, bool)
}

type Server struct {
	store Store
	stats *monitor.WorkloadStats
}

func NewServer(store Store) *Server {
	return &Server{store: store, stats: monitor.NewWorkloadStats()}
}

// Handler returns the routes served by the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/get", s.handleGet)
	mux.HandleFunc("/api/put", s.handlePut)
	mux.HandleFunc("/api/del", s.handleDelete)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/benchmark", s.handleBenchmark)
	return mux
}

func (s *Server) Start(addr string) error {
	log.Printf("[API] Server listening on %s (%s, %d records)...", addr, s.store.Type(), s.store.Len())
	return http.ListenAndServe(addr, s.Handler())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryFloat parses a finite float parameter. NaN and infinities are
// rejected because they have no place in the (price, id) key order.
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be finite, got %s", name, v)
	}
	return f, nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	rec, found := s.store.Get(id)
	duration := time.Since(start)

	if !found {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"record":     rec,
		"latency_ns": duration.Nanoseconds(),
	})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var rec common.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := s.store.Put(rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.stats.RecordInsert()
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	removed, err := s.store.Delete(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"id": id, "deleted": removed})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	minPrice, err1 := queryFloat(r, "min", 0)
	maxPrice, err2 := queryFloat(r, "max", 0)
	if err1 != nil || err2 != nil {
		http.Error(w, "Invalid price bound", http.StatusBadRequest)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	start := time.Now()
	records := make([]common.Record, 0)
	truncated := false
	err := s.store.Scan(minPrice, maxPrice, func(rec common.Record) bool {
		if len(records) == limit {
			truncated = true
			return false
		}
		records = append(records, rec)
		return true
	})
	duration := time.Since(start)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.stats.RecordQuery(len(records))

	writeJSON(w, map[string]any{
		"records":    records,
		"count":      len(records),
		"truncated":  truncated,
		"latency_ns": duration.Nanoseconds(),
	})
}

// handleQuery answers "SELECT * FROM items ..." with a point lookup or a
// price range scan.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	stmt, err := sql.Parse(r.URL.Query().Get("q"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(stmt.Table, "items") {
		http.Error(w, "unknown table: "+stmt.Table, http.StatusNotFound)
		return
	}

	start := time.Now()
	records := make([]common.Record, 0)
	if id, ok := stmt.IsPointLookup(); ok {
		if rec, found := s.store.Get(id); found && stmt.Limit != 0 {
			records = append(records, rec)
		}
	} else {
		lo, hi := stmt.PriceRange()
		err = s.store.Scan(lo, hi, func(rec common.Record) bool {
			if stmt.Limit >= 0 && len(records) >= stmt.Limit {
				return false
			}
			records = append(records, rec)
			return true
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.stats.RecordQuery(len(records))
	}

	writeJSON(w, map[string]any{
		"records":    records,
		"count":      len(records),
		"latency_ns": time.Since(start).Nanoseconds(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"type":           s.store.Type(),
		"records":        s.store.Len(),
		"inserts":        s.stats.Inserts(),
		"queries":        s.stats.Queries(),
		"rows_per_query": s.stats.GetRowsPerQuery(),
	}
	if o, ok := s.store.(*core.OrderedCollection); ok {
		resp["tree"] = o.Stats()
		if err := o.Check(); err != nil {
			resp["check"] = err.Error()
		} else {
			resp["check"] = "ok"
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	minPrice, err1 := queryFloat(r, "min", 10)
	maxPrice, err2 := queryFloat(r, "max", 100)
	if err1 != nil || err2 != nil {
		http.Error(w, "Invalid price bound", http.StatusBadRequest)
		return
	}
	repeat := 100
	if v := r.URL.Query().Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid n", http.StatusBadRequest)
			return
		}
		repeat = n
	}

	res, err := bench.Measure(r.Context(), s.store, minPrice, maxPrice, repeat, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"collection":    res.Name,
		"queries":       repeat,
		"matches":       res.Matched,
		"total_seconds": res.Elapsed.Seconds(),
		"avg_ns":        res.Elapsed.Nanoseconds() / int64(repeat),
	})
}
