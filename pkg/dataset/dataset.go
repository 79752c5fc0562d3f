// Package dataset loads and writes the item catalogue used by the benchmark.
//
// The on-disk format is CSV with the header ID,Name,Category,Price. Files
// ending in .zst or .lz4 are transparently (de)compressed.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rangeindex/pkg/common"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrMalformedRecord is wrapped by every row-level parse failure.
var ErrMalformedRecord = errors.New("dataset: malformed record")

// Header is the column layout written by Write.
var Header = []string{"ID", "Name", "Category", "Price"}

// Load reads every record from path.
func Load(path string) ([]common.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompress(path, f)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	records, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: zstd: %w", err)
		}
		return dec, dec.Close, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

// Parse reads CSV records. Columns are located by header name, so extra
// columns and any column order are accepted.
func Parse(r io.Reader) ([]common.Record, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	idx := make([]int, len(Header))
	for i, name := range Header {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedRecord, name)
		}
		idx[i] = c
	}

	var records []common.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		records = append(records, rec)
	}
}

func parseRow(row []string, idx []int) (common.Record, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(row[idx[0]]), 10, 64)
	if err != nil {
		return common.Record{}, fmt.Errorf("ID %q: %w", row[idx[0]], err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row[idx[3]]), 64)
	if err != nil {
		return common.Record{}, fmt.Errorf("Price %q: %w", row[idx[3]], err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return common.Record{}, fmt.Errorf("Price %q is not finite", row[idx[3]])
	}
	return common.Record{
		ID:       id,
		Name:     row[idx[1]],
		Category: row[idx[2]],
		Price:    price,
	}, nil
}

// Write emits records as CSV with Header.
func Write(w io.Writer, records []common.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	row := make([]string, len(Header))
	for _, r := range records {
		row[0] = strconv.FormatInt(r.ID, 10)
		row[1] = r.Name
		row[2] = r.Category
		row[3] = strconv.FormatFloat(r.Price, 'f', -1, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes records to path, compressing by extension.
func Save(path string, records []common.Record) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("dataset: mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		enc, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("dataset: zstd: %w", err)
		}
		w = enc
	case ".lz4":
		w = lz4.NewWriter(f)
	default:
		return Write(f, records)
	}

	if err := Write(w, records); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
