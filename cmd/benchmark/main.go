package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"rangeindex/pkg/bench"
	"rangeindex/pkg/common"
	"rangeindex/pkg/config"
	"rangeindex/pkg/dataset"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default: configs/rangebench.yaml if present)")
	dataPath := flag.String("data", "", "CSV dataset with ID,Name,Category,Price columns (.zst/.lz4 allowed)")
	generate := flag.Int("generate", 0, "Synthesize this many records instead of reading -data")
	minPrice := flag.Float64("min", 0, "Lower price bound (inclusive)")
	maxPrice := flag.Float64("max", 0, "Upper price bound (inclusive)")
	repeat := flag.Int("n", 0, "Number of range queries per collection")
	order := flag.Int("order", 0, "B+ tree order")
	collections := flag.String("collections", "", "Comma separated collections: "+strings.Join(bench.Names(), ","))
	chart := flag.String("chart", "", "Write a bar chart of the results (.png/.svg)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 命令行参数优先于配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Bench.Dataset = *dataPath
		case "generate":
			cfg.Bench.Generate = *generate
		case "min":
			cfg.Bench.MinPrice = *minPrice
		case "max":
			cfg.Bench.MaxPrice = *maxPrice
		case "n":
			cfg.Bench.Repeat = *repeat
		case "order":
			cfg.Index.Order = *order
		case "collections":
			cfg.Bench.Collections = strings.Split(*collections, ",")
		case "chart":
			cfg.Bench.Chart = *chart
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	records, err := loadRecords(cfg)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	colls, err := bench.Open(cfg, cfg.Bench.Collections, len(records))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		for _, c := range colls {
			if err := c.Close(); err != nil {
				log.Printf("[Bench] Close %s: %v", c.Type(), err)
			}
		}
	}()

	rep, err := bench.Run(ctx, cfg, colls, records)
	if err != nil {
		log.Printf("Benchmark failed: %v", err)
		return
	}

	fmt.Println("---------------------------------------------------")
	rep.Print(os.Stdout)

	if cfg.Bench.Chart != "" {
		if err := bench.SaveChart(rep, cfg.Bench.Chart); err != nil {
			log.Printf("[Bench] Chart failed: %v", err)
		} else {
			log.Printf("[Bench] Chart written to %s", cfg.Bench.Chart)
		}
	}
}

func loadRecords(cfg *config.Config) ([]common.Record, error) {
	if cfg.Bench.Generate > 0 {
		log.Printf("[Bench] Generating %d records (seed=%d)", cfg.Bench.Generate, cfg.Bench.Seed)
		return dataset.Generate(cfg.Bench.Generate, cfg.Bench.Seed, 1000), nil
	}
	log.Printf("[Bench] Reading %s", cfg.Bench.Dataset)
	return dataset.Load(cfg.Bench.Dataset)
}
