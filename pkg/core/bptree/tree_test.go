package bptree

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectKeys[K any, V any](seq iter.Seq2[K, V]) []K {
	var keys []K
	for k := range seq {
		keys = append(keys, k)
	}
	return keys
}

func TestNewRejectsSmallOrder(t *testing.T) {
	for _, order := range []int{-1, 0, 1, 2} {
		_, err := NewOrdered[int, string](order)
		require.ErrorIs(t, err, ErrInvalidOrder, "order=%d", order)
	}
	tree, err := NewOrdered[int, string](MinOrder)
	require.NoError(t, err)
	require.Equal(t, 0, tree.Len())
	require.Equal(t, 1, tree.Height())
	require.NoError(t, tree.Check())
}

func TestEmptyTree(t *testing.T) {
	tree, err := NewOrdered[int, string](4)
	require.NoError(t, err)

	_, ok := tree.Get(42)
	require.False(t, ok)
	require.Empty(t, tree.Collect(0, 100))
	require.False(t, tree.Delete(42))

	_, _, ok = tree.Min()
	require.False(t, ok)
	require.NoError(t, tree.Check())
}

func TestOrderFourScenario(t *testing.T) {
	tree, err := NewOrdered[int, string](4)
	require.NoError(t, err)

	for _, k := range []int{10, 20, 5, 6, 12, 30, 7, 17} {
		require.NoError(t, tree.Insert(k, fmt.Sprintf("item-%d", k)))
		require.NoError(t, tree.Check())
	}
	require.Equal(t, 2, tree.Height())
	require.Equal(t, 8, tree.Len())

	got := tree.Collect(6, 17)
	require.Len(t, got, 5)
	for i, want := range []int{6, 7, 10, 12, 17} {
		require.Equal(t, want, got[i].Key)
		require.Equal(t, fmt.Sprintf("item-%d", want), got[i].Value)
	}
}

func TestMonotonicInsertHeight(t *testing.T) {
	const n = 1000
	for _, order := range []int{3, 4, 8, 32} {
		t.Run(fmt.Sprintf("order=%d", order), func(t *testing.T) {
			tree, err := NewOrdered[int, int](order)
			require.NoError(t, err)
			for k := 0; k < n; k++ {
				require.NoError(t, tree.Insert(k, k*k))
			}
			require.NoError(t, tree.Check())

			lower := int(math.Ceil(math.Log(n) / math.Log(float64(order))))
			upper := 1 + int(math.Ceil(math.Log(n)/math.Log(float64(tree.minChildren()))))
			require.GreaterOrEqual(t, tree.Height(), lower)
			require.LessOrEqual(t, tree.Height(), upper)

			visited := 0
			prev := -1
			for k, v := range tree.All() {
				require.Greater(t, k, prev)
				require.Equal(t, k*k, v)
				prev = k
				visited++
			}
			require.Equal(t, n, visited)
		})
	}
}

func TestOverwriteKeepsSingleEntry(t *testing.T) {
	tree, err := NewOrdered[int, string](4)
	require.NoError(t, err)
	for k := 0; k < 20; k++ {
		require.NoError(t, tree.Insert(k, "first"))
	}
	stats := tree.Stats()

	require.NoError(t, tree.Insert(7, "second"))
	require.Equal(t, 20, tree.Len())
	require.Equal(t, stats, tree.Stats())

	v, ok := tree.Get(7)
	require.True(t, ok)
	require.Equal(t, "second", v)

	got := tree.Collect(7, 7)
	require.Equal(t, []Entry[int, string]{{Key: 7, Value: "second"}}, got)
}

func TestInvertedRangeIsEmpty(t *testing.T) {
	tree, err := NewOrdered[int, int](5)
	require.NoError(t, err)
	for k := 0; k < 100; k++ {
		require.NoError(t, tree.Insert(k, k))
	}
	for _, r := range [][2]int{{10, 9}, {100, 0}, {51, 50}} {
		require.Empty(t, tree.Collect(r[0], r[1]), "range %v", r)
	}
}

func TestRangeEarlyBreak(t *testing.T) {
	tree, err := NewOrdered[int, int](4)
	require.NoError(t, err)
	for k := 0; k < 200; k++ {
		require.NoError(t, tree.Insert(k, k))
	}

	seen := 0
	for k := range tree.Range(50, 150) {
		if k == 60 {
			break
		}
		seen++
	}
	require.Equal(t, 10, seen)
	require.NoError(t, tree.Check())

	// The sequence is restartable.
	require.Len(t, collectKeys(tree.Range(50, 150)), 101)
	require.Len(t, collectKeys(tree.Range(50, 150)), 101)
}

func TestRangeBoundsBetweenKeys(t *testing.T) {
	tree, err := NewOrdered[int, int](4)
	require.NoError(t, err)
	for k := 0; k < 100; k += 10 {
		require.NoError(t, tree.Insert(k, k))
	}
	require.Equal(t, []int{20, 30, 40}, collectKeys(tree.Range(11, 49)))
	require.Equal(t, []int{0}, collectKeys(tree.Range(-5, 5)))
	require.Equal(t, []int{90}, collectKeys(tree.Range(85, 1000)))
	require.Empty(t, collectKeys(tree.Range(91, 1000)))
	require.Empty(t, collectKeys(tree.Range(41, 49)))
}

func TestAgainstReferenceMap(t *testing.T) {
	for _, order := range []int{3, 4, 5, 8, 33} {
		t.Run(fmt.Sprintf("order=%d", order), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(uint64(order), 42))
			tree, err := NewOrdered[int, int](order)
			require.NoError(t, err)
			ref := make(map[int]int)

			for op := 0; op < 4000; op++ {
				k := rng.IntN(600)
				if rng.IntN(3) == 0 {
					_, want := ref[k]
					require.Equal(t, want, tree.Delete(k), "delete %d", k)
					delete(ref, k)
				} else {
					v := rng.Int()
					require.NoError(t, tree.Insert(k, v))
					ref[k] = v
				}
				if op%7 == 0 {
					require.NoError(t, tree.Check(), "after op %d", op)
				}
			}
			require.NoError(t, tree.Check())
			require.Equal(t, len(ref), tree.Len())

			for k := -10; k < 620; k++ {
				want, wantOK := ref[k]
				got, ok := tree.Get(k)
				require.Equal(t, wantOK, ok, "key %d", k)
				require.Equal(t, want, got, "key %d", k)
			}

			keys := make([]int, 0, len(ref))
			for k := range ref {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for i := 0; i < 50; i++ {
				lo, hi := rng.IntN(650)-25, rng.IntN(650)-25
				var want []int
				for _, k := range keys {
					if k >= lo && k <= hi {
						want = append(want, k)
					}
				}
				got := tree.Collect(lo, hi)
				require.Len(t, got, len(want), "range [%d, %d]", lo, hi)
				for j, e := range got {
					require.Equal(t, want[j], e.Key)
					require.Equal(t, ref[e.Key], e.Value)
				}
			}
		})
	}
}

func TestDeleteEverything(t *testing.T) {
	for _, order := range []int{3, 4, 7} {
		t.Run(fmt.Sprintf("order=%d", order), func(t *testing.T) {
			tree, err := NewOrdered[int, int](order)
			require.NoError(t, err)
			const n = 500
			for k := 0; k < n; k++ {
				require.NoError(t, tree.Insert(k, k))
			}
			rng := rand.New(rand.NewPCG(7, uint64(order)))
			perm := rng.Perm(n)
			for i, k := range perm {
				require.True(t, tree.Delete(k))
				require.False(t, tree.Has(k))
				require.NoError(t, tree.Check(), "after deleting %d keys", i+1)
			}
			require.Equal(t, 0, tree.Len())
			require.Equal(t, 1, tree.Height())
			require.Equal(t, 1, tree.Stats().Nodes)
			require.Empty(t, tree.Collect(0, n))
		})
	}
}

func TestNodesAreRecycled(t *testing.T) {
	tree, err := NewOrdered[int, int](4)
	require.NoError(t, err)
	for round := 0; round < 3; round++ {
		for k := 0; k < 300; k++ {
			require.NoError(t, tree.Insert(k, k))
		}
		for k := 0; k < 300; k++ {
			require.True(t, tree.Delete(k))
		}
		require.NoError(t, tree.Check())
	}
	require.LessOrEqual(t, len(tree.nodes), 300)
}

func TestCapacityError(t *testing.T) {
	tree, err := NewOrdered[int, int](3, WithMaxNodes(1))
	require.NoError(t, err)

	require.NoError(t, tree.Insert(1, 1))
	require.NoError(t, tree.Insert(2, 2))
	require.ErrorIs(t, tree.Insert(3, 3), ErrCapacity)
	require.Equal(t, 2, tree.Len())
	require.False(t, tree.Has(3))
	require.NoError(t, tree.Check())

	// Overwrites need no new nodes.
	require.NoError(t, tree.Insert(2, 20))
	v, _ := tree.Get(2)
	require.Equal(t, 20, v)
}

func TestClear(t *testing.T) {
	tree, err := NewOrdered[int, int](4)
	require.NoError(t, err)
	for k := 0; k < 100; k++ {
		require.NoError(t, tree.Insert(k, k))
	}
	tree.Clear()
	require.Equal(t, 0, tree.Len())
	require.Equal(t, 1, tree.Height())
	require.NoError(t, tree.Check())
	require.NoError(t, tree.Insert(5, 5))
	require.Equal(t, []int{5}, collectKeys(tree.All()))
}

func TestCustomComparator(t *testing.T) {
	type pair struct{ a, b int }
	byPair := func(x, y pair) int {
		if c := cmp.Compare(x.a, y.a); c != 0 {
			return c
		}
		return cmp.Compare(x.b, y.b)
	}
	tree, err := New[pair, string](4, byPair)
	require.NoError(t, err)
	for a := 0; a < 5; a++ {
		for b := 0; b < 5; b++ {
			require.NoError(t, tree.Insert(pair{a, b}, fmt.Sprint(a, b)))
		}
	}
	got := collectKeys(tree.Range(pair{2, math.MinInt}, pair{2, math.MaxInt}))
	require.Equal(t, []pair{{2, 0}, {2, 1}, {2, 2}, {2, 3}, {2, 4}}, got)
}

func TestCheckDetectsCorruption(t *testing.T) {
	tree, err := NewOrdered[int, int](4)
	require.NoError(t, err)
	for k := 0; k < 50; k++ {
		require.NoError(t, tree.Insert(k, k))
	}
	leaf := tree.node(tree.leftmostLeaf())
	leaf.keys[0], leaf.keys[1] = leaf.keys[1], leaf.keys[0]
	require.ErrorIs(t, tree.Check(), ErrCorrupt)
}

func TestDanglingHandlePanics(t *testing.T) {
	tree, err := NewOrdered[int, int](4)
	require.NoError(t, err)
	require.Panics(t, func() { tree.node(99) })
}

func BenchmarkInsertRandom(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	keys := make([]int, b.N)
	for i := range keys {
		keys[i] = rng.Int()
	}
	tree, _ := NewOrdered[int, int](32)
	b.ResetTimer()
	for i, k := range keys {
		_ = tree.Insert(k, i)
	}
}

func BenchmarkRange100(b *testing.B) {
	tree, _ := NewOrdered[int, int](32)
	for k := 0; k < 100_000; k++ {
		_ = tree.Insert(k, k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lo := i % 99_900
		n := 0
		for range tree.Range(lo, lo+99) {
			n++
		}
		if n != 100 {
			b.Fatalf("got %d entries", n)
		}
	}
}
