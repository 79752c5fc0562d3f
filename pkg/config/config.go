package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Bench   BenchConfig   `yaml:"bench"`
	Storage StorageConfig `yaml:"storage"`
}

type IndexConfig struct {
	Order       int `yaml:"order"`        // max children per B+ tree node
	BTreeDegree int `yaml:"btree_degree"` // degree of the google/btree reference
}

type BenchConfig struct {
	Dataset     string   `yaml:"dataset"`  // CSV path, may end in .zst or .lz4
	Generate    int      `yaml:"generate"` // >0: synthesize this many records instead
	Seed        uint64   `yaml:"seed"`
	MinPrice    float64  `yaml:"min_price"`
	MaxPrice    float64  `yaml:"max_price"`
	Repeat      int      `yaml:"repeat"`
	Collections []string `yaml:"collections"`
	Chart       string   `yaml:"chart"` // optional .png/.svg output
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
	PebbleDir  string `yaml:"pebble_dir"` // empty: in-memory filesystem
	BatchSize  int    `yaml:"batch_size"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Order:       32,
			BTreeDegree: 32,
		},
		Bench: BenchConfig{
			Dataset:     "csv/generated_items_data.csv",
			Seed:        1,
			MinPrice:    10,
			MaxPrice:    100,
			Repeat:      100,
			Collections: []string{"bptree", "hashmap"},
		},
		Storage: StorageConfig{
			SQLitePath: ":memory:",
			BatchSize:  500,
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/rangebench.yaml", "rangebench.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, fmt.Errorf("config: %s: %w", p, err)
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", configPath, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Index.Order == 0 {
		cfg.Index.Order = 32
	}
	if cfg.Index.BTreeDegree < 2 {
		cfg.Index.BTreeDegree = 32
	}
	if cfg.Bench.Repeat <= 0 {
		cfg.Bench.Repeat = 100
	}
	if len(cfg.Bench.Collections) == 0 {
		cfg.Bench.Collections = []string{"bptree", "hashmap"}
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = ":memory:"
	}
	if cfg.Storage.BatchSize <= 0 {
		cfg.Storage.BatchSize = 500
	}
}

// Validate rejects settings the benchmark cannot run with. An inverted
// price range is allowed; it simply matches nothing.
func (c *Config) Validate() error {
	var errs []error
	if c.Index.Order < 3 {
		errs = append(errs, fmt.Errorf("index.order must be at least 3, got %d", c.Index.Order))
	}
	if c.Bench.Repeat <= 0 {
		errs = append(errs, fmt.Errorf("bench.repeat must be positive, got %d", c.Bench.Repeat))
	}
	if c.Bench.Generate < 0 {
		errs = append(errs, fmt.Errorf("bench.generate must not be negative, got %d", c.Bench.Generate))
	}
	if c.Bench.Generate == 0 && c.Bench.Dataset == "" {
		errs = append(errs, errors.New("bench.dataset is required unless bench.generate is set"))
	}
	return errors.Join(errs...)
}
