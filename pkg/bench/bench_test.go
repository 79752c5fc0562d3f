package bench

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rangeindex/pkg/config"
	"rangeindex/pkg/dataset"

	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	require.Equal(t, []string{"bptree", "gbtree", "hashmap", "pebble", "sqlite"}, Names())
}

func TestOpenRejectsUnknown(t *testing.T) {
	_, err := Open(config.Default(), []string{"bptree", "skiplist"}, 0)
	require.ErrorContains(t, err, "skiplist")

	_, err = Open(config.Default(), nil, 0)
	require.Error(t, err)
}

func TestOpenDeduplicates(t *testing.T) {
	colls, err := Open(config.Default(), []string{"bptree", " BPTree ", "hashmap"}, 10)
	require.NoError(t, err)
	defer closeAll(colls)
	require.Len(t, colls, 2)
}

func TestRunAllCollectionsAgree(t *testing.T) {
	cfg := config.Default()
	cfg.Index.Order = 5
	cfg.Bench.Repeat = 3
	cfg.Storage.BatchSize = 64

	records := dataset.Generate(1000, 3, 200)
	want := 0
	for _, r := range records {
		if r.InPriceRange(cfg.Bench.MinPrice, cfg.Bench.MaxPrice) {
			want++
		}
	}
	require.NotZero(t, want)

	colls, err := Open(cfg, Names(), len(records))
	require.NoError(t, err)
	defer closeAll(colls)

	rep, err := Run(context.Background(), cfg, colls, records)
	require.NoError(t, err)
	require.Len(t, rep.Results, len(Names()))
	for _, res := range rep.Results {
		require.Equal(t, want, res.Matched, res.Name)
		require.Equal(t, len(records), res.Records, res.Name)
		require.Equal(t, uint64(len(records)), res.Stats.Inserts(), res.Name)
		require.Equal(t, uint64(3), res.Stats.Queries(), res.Name)
		require.InDelta(t, float64(want), res.Stats.GetRowsPerQuery(), 1e-9, res.Name)
	}
	require.Empty(t, rep.mismatch())
}

func TestPopulateHonoursCancel(t *testing.T) {
	colls, err := Open(config.Default(), []string{"bptree"}, 0)
	require.NoError(t, err)
	defer closeAll(colls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Populate(ctx, colls, dataset.Generate(10, 1, 10), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerdictAndPrint(t *testing.T) {
	rep := &Report{
		MinPrice: 10,
		MaxPrice: 100,
		Repeat:   100,
		Results: []Result{
			{Name: "hashmap", Elapsed: 900 * time.Millisecond, Matched: 40},
			{Name: "bptree", Elapsed: 150 * time.Millisecond, Matched: 40},
		},
	}
	require.Equal(t, "bptree", rep.Fastest().Name)
	require.Equal(t, "bptree is faster than hashmap for range queries!", rep.Verdict())

	var buf bytes.Buffer
	rep.Print(&buf)
	out := buf.String()
	require.Contains(t, out, "Total range_query time for hashmap: 0.900000 seconds")
	require.Contains(t, out, "Total range_query time for bptree: 0.150000 seconds")
	require.True(t, strings.HasSuffix(out, "bptree is faster than hashmap for range queries!\n"))

	single := &Report{Results: rep.Results[:1]}
	require.Equal(t, "hashmap was the only collection measured.", single.Verdict())
}

func TestMismatchIsReported(t *testing.T) {
	rep := &Report{Results: []Result{{Name: "a", Matched: 1}, {Name: "b", Matched: 2}}}
	require.Equal(t, "a=1 b=2", rep.mismatch())
}

func TestSaveChart(t *testing.T) {
	rep := &Report{
		MinPrice: 10, MaxPrice: 100, Repeat: 100,
		Results: []Result{
			{Name: "bptree", Elapsed: 2 * time.Millisecond},
			{Name: "hashmap", Elapsed: 30 * time.Millisecond},
		},
	}
	path := filepath.Join(t.TempDir(), "out", "chart.svg")
	require.NoError(t, SaveChart(rep, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size())

	require.Error(t, SaveChart(&Report{}, path))
}
