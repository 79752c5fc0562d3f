// Package bench times price range queries against interchangeable
// collections and reports which one answers them fastest.
package bench

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"rangeindex/pkg/common"
	"rangeindex/pkg/config"
	"rangeindex/pkg/core"
	"rangeindex/pkg/monitor"

	"golang.org/x/sync/errgroup"
)

// BatchPutter is implemented by collections that load faster in batches.
type BatchPutter interface {
	PutBatch(records []common.Record) error
}

// Result is the timing of one collection.
type Result struct {
	Name     string
	Elapsed  time.Duration
	Matched  int // matches per query
	Records  int
	LoadTime time.Duration
	Stats    *monitor.WorkloadStats
}

// Report is the outcome of one benchmark run.
type Report struct {
	MinPrice float64
	MaxPrice float64
	Repeat   int
	Results  []Result
}

// Load is the outcome of filling one collection.
type Load struct {
	Took  time.Duration
	Stats *monitor.WorkloadStats
}

// Populate loads records into every collection. Each collection is filled
// on its own goroutine and is never shared between goroutines.
func Populate(ctx context.Context, colls []core.Collection, records []common.Record, batchSize int) ([]Load, error) {
	loads := make([]Load, len(colls))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range colls {
		g.Go(func() error {
			stats := monitor.NewWorkloadStats()
			start := time.Now()
			if err := load(ctx, c, records, batchSize, stats); err != nil {
				return fmt.Errorf("bench: populate %s: %w", c.Type(), err)
			}
			loads[i] = Load{Took: time.Since(start), Stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loads, nil
}

func load(ctx context.Context, c core.Collection, records []common.Record, batchSize int, stats *monitor.WorkloadStats) error {
	if bp, ok := c.(BatchPutter); ok && batchSize > 0 {
		for start := 0; start < len(records); start += batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := min(start+batchSize, len(records))
			if err := bp.PutBatch(records[start:end]); err != nil {
				return err
			}
			for range end - start {
				stats.RecordInsert()
			}
		}
		return nil
	}
	for i, r := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := c.Put(r); err != nil {
			return err
		}
		stats.RecordInsert()
	}
	return nil
}

// Measure runs repeat identical range queries against c and returns the
// total elapsed time. Queries are counted in stats, which may be nil.
func Measure(ctx context.Context, c core.Collection, minPrice, maxPrice float64, repeat int, stats *monitor.WorkloadStats) (Result, error) {
	if stats == nil {
		stats = monitor.NewWorkloadStats()
	}
	res := Result{Name: c.Type(), Records: c.Len(), Stats: stats}
	var out []common.Record
	collect := func(r common.Record) bool {
		out = append(out, r)
		return true
	}

	start := time.Now()
	for i := 0; i < repeat; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out = out[:0]
		if err := c.Scan(minPrice, maxPrice, collect); err != nil {
			return res, fmt.Errorf("bench: query %s: %w", c.Type(), err)
		}
		res.Stats.RecordQuery(len(out))
	}
	res.Elapsed = time.Since(start)
	res.Matched = len(out)
	return res, nil
}

// Run populates colls with records and times cfg.Bench.Repeat range
// queries against each of them in turn.
func Run(ctx context.Context, cfg *config.Config, colls []core.Collection, records []common.Record) (*Report, error) {
	log.Printf("[Bench] Loading %d records into %d collections...", len(records), len(colls))
	loads, err := Populate(ctx, colls, records, cfg.Storage.BatchSize)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		MinPrice: cfg.Bench.MinPrice,
		MaxPrice: cfg.Bench.MaxPrice,
		Repeat:   cfg.Bench.Repeat,
	}
	for i, c := range colls {
		log.Printf("[Bench] %s: loaded %d records in %v", c.Type(), c.Len(), loads[i].Took)
		res, err := Measure(ctx, c, rep.MinPrice, rep.MaxPrice, rep.Repeat, loads[i].Stats)
		if err != nil {
			return nil, err
		}
		res.LoadTime = loads[i].Took
		rep.Results = append(rep.Results, res)
	}

	if mismatch := rep.mismatch(); mismatch != "" {
		log.Printf("[Bench] Warning: collections disagree on the result size: %s", mismatch)
	}
	return rep, nil
}

func (r *Report) mismatch() string {
	if len(r.Results) < 2 {
		return ""
	}
	for _, res := range r.Results[1:] {
		if res.Matched != r.Results[0].Matched {
			var parts []string
			for _, x := range r.Results {
				parts = append(parts, fmt.Sprintf("%s=%d", x.Name, x.Matched))
			}
			return strings.Join(parts, " ")
		}
	}
	return ""
}

// Fastest returns the result with the smallest elapsed time. It panics on
// an empty report.
func (r *Report) Fastest() Result {
	return slices.MinFunc(r.Results, func(a, b Result) int {
		return cmp.Compare(a.Elapsed, b.Elapsed)
	})
}

// Verdict names the fastest collection for the workload.
func (r *Report) Verdict() string {
	if len(r.Results) == 0 {
		return "No collections were measured."
	}
	fastest := r.Fastest()
	var others []string
	for _, res := range r.Results {
		if res.Name != fastest.Name {
			others = append(others, res.Name)
		}
	}
	if len(others) == 0 {
		return fmt.Sprintf("%s was the only collection measured.", fastest.Name)
	}
	return fmt.Sprintf("%s is faster than %s for range queries!", fastest.Name, strings.Join(others, ", "))
}

// Print writes one elapsed-time line per collection followed by the
// verdict.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Range [%g, %g] x %d queries\n", r.MinPrice, r.MaxPrice, r.Repeat)
	for _, res := range r.Results {
		fmt.Fprintf(w, "Total range_query time for %s: %.6f seconds (%d matches/query)\n",
			res.Name, res.Elapsed.Seconds(), res.Matched)
	}
	fmt.Fprintln(w, r.Verdict())
}
