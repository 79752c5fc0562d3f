package main

import (
	"flag"
	"log"

	"rangeindex/pkg/api"
	"rangeindex/pkg/common"
	"rangeindex/pkg/config"
	"rangeindex/pkg/core"
	"rangeindex/pkg/dataset"
)

// main 加载数据集到 B+ 树索引，并通过 HTTP 提供查询。
func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configPath := flag.String("config", "", "YAML config file")
	dataPath := flag.String("data", "", "CSV dataset to preload (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dataPath != "" {
		cfg.Bench.Dataset = *dataPath
	}

	idx, err := core.NewOrderedCollection(cfg.Index.Order)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	defer idx.Close()

	var records []common.Record
	if cfg.Bench.Generate > 0 {
		records = dataset.Generate(cfg.Bench.Generate, cfg.Bench.Seed, 1000)
	} else if cfg.Bench.Dataset != "" {
		records, err = dataset.Load(cfg.Bench.Dataset)
		if err != nil {
			log.Printf("[Server] Starting empty, dataset not loaded: %v", err)
		}
	}
	for _, r := range records {
		if err := idx.Put(r); err != nil {
			log.Fatalf("Failed to index record %d: %v", r.ID, err)
		}
	}
	log.Printf("[Server] Indexed %d records (order=%d)", idx.Len(), cfg.Index.Order)

	if err := api.NewServer(idx).Start(*addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
