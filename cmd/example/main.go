package main

import (
	"fmt"
	"log"
	"time"

	"rangeindex/pkg/common"
	"rangeindex/pkg/core"
)

func main() {
	idx, err := core.NewOrderedCollection(4)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	defer idx.Close()

	items := []common.Record{
		{ID: 1, Name: "Desk Lamp", Category: "Home", Price: 24.5},
		{ID: 2, Name: "Notebook", Category: "Office", Price: 3.2},
		{ID: 3, Name: "Headphones", Category: "Audio", Price: 89.99},
		{ID: 4, Name: "Kettle", Category: "Home", Price: 35},
		{ID: 5, Name: "Monitor", Category: "Office", Price: 189},
	}
	start := time.Now()
	for _, it := range items {
		if err := idx.Put(it); err != nil {
			log.Fatalf("Put failed: %v", err)
		}
	}
	fmt.Printf("Indexed %d items in %v\n", idx.Len(), time.Since(start))

	fmt.Println("Items priced 10 to 100:")
	start = time.Now()
	idx.Scan(10, 100, func(r common.Record) bool {
		fmt.Printf("  %s\n", r.String())
		return true
	})
	fmt.Printf("Scan done in %v\n", time.Since(start))

	st := idx.Stats()
	fmt.Printf("Tree: order=%d height=%d nodes=%d\n", st.Order, st.Height, st.Nodes)
}
