package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"rangeindex/pkg/common"
	"rangeindex/pkg/core"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Key layout:
//
//	'p' [price 8B] [id 8B] -> encoded record
//	'i' [id 8B]            -> [price 8B]
//
// Both numbers are encoded so that bytewise order matches numeric order.
const (
	prefixPrice = 'p'
	prefixID    = 'i'
)

var errBadValue = errors.New("pebble: malformed record value")

// PebbleCollection keeps records in a Pebble LSM keyed by (price, id).
// An empty dir keeps everything on an in-memory filesystem.
type PebbleCollection struct {
	db    *pebble.DB
	mu    sync.Mutex
	count int
}

var _ core.Collection = (*PebbleCollection)(nil)
var _ core.Deleter = (*PebbleCollection)(nil)

func NewPebbleCollection(dir string) (*PebbleCollection, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	if dir == "" {
		dir = "rangeindex"
		opts.FS = vfs.NewMem()
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble: open: %w", err)
	}
	p := &PebbleCollection{db: db}
	if err := p.recount(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *PebbleCollection) recount() error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{prefixID},
		UpperBound: []byte{prefixID + 1},
	})
	if err != nil {
		return fmt.Errorf("pebble: recount: %w", err)
	}
	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	p.count = n
	return iter.Close()
}

// lookupPrice returns the price currently indexed for id.
func (p *PebbleCollection) lookupPrice(id int64) (float64, bool, error) {
	val, closer, err := p.db.Get(idKey(id))
	if err == pebble.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("pebble: get %d: %w", id, err)
	}
	defer closer.Close()
	if len(val) != 8 {
		return 0, false, errBadValue
	}
	return decodeFloat(binary.BigEndian.Uint64(val)), true, nil
}

func (p *PebbleCollection) Put(rec common.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	old, exists, err := p.lookupPrice(rec.ID)
	if err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()
	if exists && old != rec.Price {
		if err := b.Delete(priceKey(common.PriceKey{Price: old, ID: rec.ID}), nil); err != nil {
			return err
		}
	}
	if err := b.Set(priceKey(rec.Key()), encodeRecord(rec), nil); err != nil {
		return err
	}
	price := binary.BigEndian.AppendUint64(nil, encodeFloat(rec.Price))
	if err := b.Set(idKey(rec.ID), price, nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("pebble: put %d: %w", rec.ID, err)
	}
	if !exists {
		p.count++
	}
	return nil
}

func (p *PebbleCollection) Get(id int64) (common.Record, bool, error) {
	price, ok, err := p.lookupPrice(id)
	if err != nil || !ok {
		return common.Record{}, false, err
	}
	val, closer, err := p.db.Get(priceKey(common.PriceKey{Price: price, ID: id}))
	if err != nil {
		return common.Record{}, false, fmt.Errorf("pebble: get %d: %w", id, err)
	}
	defer closer.Close()
	rec, err := decodeRecord(val)
	return rec, err == nil, err
}

func (p *PebbleCollection) Delete(id int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok, err := p.lookupPrice(id)
	if err != nil || !ok {
		return false, err
	}
	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Delete(priceKey(common.PriceKey{Price: price, ID: id}), nil); err != nil {
		return false, err
	}
	if err := b.Delete(idKey(id), nil); err != nil {
		return false, err
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return false, fmt.Errorf("pebble: delete %d: %w", id, err)
	}
	p.count--
	return true, nil
}

func (p *PebbleCollection) Scan(minPrice, maxPrice float64, fn func(common.Record) bool) error {
	if minPrice > maxPrice {
		return nil
	}
	lo, hi := common.PriceBounds(minPrice, maxPrice)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: priceKey(lo),
		UpperBound: append(priceKey(hi), 0), // UpperBound is exclusive
	})
	if err != nil {
		return fmt.Errorf("pebble: scan: %w", err)
	}
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			iter.Close()
			return err
		}
		if !fn(rec) {
			break
		}
	}
	return iter.Close()
}

func (p *PebbleCollection) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *PebbleCollection) Type() string { return "pebble" }

func (p *PebbleCollection) Close() error {
	return p.db.Close()
}

// encodeFloat maps f to a uint64 whose unsigned order matches the float
// order. Negative zero is folded onto zero.
func encodeFloat(f float64) uint64 {
	if f == 0 {
		f = 0
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | 1<<63
}

func decodeFloat(u uint64) float64 {
	if u&(1<<63) != 0 {
		return math.Float64frombits(u &^ (1 << 63))
	}
	return math.Float64frombits(^u)
}

func encodeInt(v int64) uint64 { return uint64(v) ^ 1<<63 }

func priceKey(k common.PriceKey) []byte {
	b := make([]byte, 0, 17)
	b = append(b, prefixPrice)
	b = binary.BigEndian.AppendUint64(b, encodeFloat(k.Price))
	return binary.BigEndian.AppendUint64(b, encodeInt(k.ID))
}

func idKey(id int64) []byte {
	b := make([]byte, 0, 9)
	b = append(b, prefixID)
	return binary.BigEndian.AppendUint64(b, encodeInt(id))
}

// [id 8B] [price 8B] [name uvarint+bytes] [category uvarint+bytes]
func encodeRecord(r common.Record) []byte {
	b := make([]byte, 0, 16+2*binary.MaxVarintLen16+len(r.Name)+len(r.Category))
	b = binary.BigEndian.AppendUint64(b, uint64(r.ID))
	b = binary.BigEndian.AppendUint64(b, math.Float64bits(r.Price))
	b = binary.AppendUvarint(b, uint64(len(r.Name)))
	b = append(b, r.Name...)
	b = binary.AppendUvarint(b, uint64(len(r.Category)))
	return append(b, r.Category...)
}

func decodeRecord(b []byte) (common.Record, error) {
	if len(b) < 16 {
		return common.Record{}, errBadValue
	}
	r := common.Record{
		ID:    int64(binary.BigEndian.Uint64(b[0:8])),
		Price: math.Float64frombits(binary.BigEndian.Uint64(b[8:16])),
	}
	b = b[16:]
	var ok bool
	if r.Name, b, ok = readString(b); !ok {
		return common.Record{}, errBadValue
	}
	if r.Category, _, ok = readString(b); !ok {
		return common.Record{}, errBadValue
	}
	return r, nil
}

func readString(b []byte) (string, []byte, bool) {
	n, sz := binary.Uvarint(b)
	if sz <= 0 || uint64(len(b)-sz) < n {
		return "", nil, false
	}
	end := sz + int(n)
	return string(b[sz:end]), b[end:], true
}
