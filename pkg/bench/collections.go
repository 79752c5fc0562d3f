package bench

import (
	"fmt"
	"slices"
	"strings"

	"rangeindex/pkg/config"
	"rangeindex/pkg/core"
	"rangeindex/pkg/core/memory"
	"rangeindex/pkg/storage"
)

type factory func(cfg *config.Config, sizeHint int) (core.Collection, error)

var factories = map[string]factory{
	"bptree": func(cfg *config.Config, _ int) (core.Collection, error) {
		return core.NewOrderedCollection(cfg.Index.Order)
	},
	"hashmap": func(_ *config.Config, sizeHint int) (core.Collection, error) {
		return core.NewHashCollection(sizeHint), nil
	},
	"gbtree": func(cfg *config.Config, _ int) (core.Collection, error) {
		return memory.NewMemTable(cfg.Index.BTreeDegree), nil
	},
	"sqlite": func(cfg *config.Config, _ int) (core.Collection, error) {
		return storage.NewSQLiteCollection(cfg.Storage.SQLitePath)
	},
	"pebble": func(cfg *config.Config, _ int) (core.Collection, error) {
		return storage.NewPebbleCollection(cfg.Storage.PebbleDir)
	},
}

// Names lists the collections the harness can build.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open builds the named collections. On error, any already opened are
// closed.
func Open(cfg *config.Config, names []string, sizeHint int) ([]core.Collection, error) {
	var out []core.Collection
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		seen[name] = true

		f, ok := factories[name]
		if !ok {
			closeAll(out)
			return nil, fmt.Errorf("bench: unknown collection %q (have %s)", name, strings.Join(Names(), ", "))
		}
		c, err := f(cfg, sizeHint)
		if err != nil {
			closeAll(out)
			return nil, fmt.Errorf("bench: open %s: %w", name, err)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("bench: no collections selected")
	}
	return out, nil
}

func closeAll(colls []core.Collection) {
	for _, c := range colls {
		c.Close()
	}
}
