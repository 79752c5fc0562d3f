package main

import (
	"flag"
	"log"
	"time"

	"rangeindex/pkg/dataset"
)

func main() {
	n := flag.Int("n", 100000, "Number of records")
	seed := flag.Uint64("seed", 1, "Random seed")
	out := flag.String("out", "csv/generated_items_data.csv", "Output file (.csv, .csv.zst or .csv.lz4)")
	maxPrice := flag.Float64("max-price", 1000, "Prices are drawn from [0, max-price]")
	flag.Parse()

	if *n <= 0 {
		log.Fatalf("-n must be positive, got %d", *n)
	}

	start := time.Now()
	records := dataset.Generate(*n, *seed, *maxPrice)
	if err := dataset.Save(*out, records); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	log.Printf("Wrote %d records to %s in %v", len(records), *out, time.Since(start))
}
