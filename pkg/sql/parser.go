package sql

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"rangeindex/pkg/common"
)

// SelectStmt represents a parsed SELECT * FROM table statement.
type SelectStmt struct {
	Table string
	Where *WhereClause
	Limit int
}

// WhereClause is a single predicate on price or id. Op is one of
// =, >, <, >=, <= or BETWEEN; Hi is only used by BETWEEN.
type WhereClause struct {
	Field string
	Op    string
	Value float64
	Hi    float64
}

const num = `(-?\d+(?:\.\d+)?)`

var selectRe = regexp.MustCompile(`(?i)^SELECT\s+\*\s+FROM\s+([a-zA-Z_][a-zA-Z0-9_]*)` +
	`(?:\s+WHERE\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*(?:(>=|<=|=|>|<)\s*` + num + `|\s(BETWEEN)\s+` + num + `\s+AND\s+` + num + `))?` +
	`(?:\s+LIMIT\s+(\d+))?\s*$`)

// Parse parses simple SQL:
// "SELECT * FROM items"
// "SELECT * FROM items WHERE price BETWEEN 10 AND 100"
// "SELECT * FROM items WHERE price >= 10.5 LIMIT 5"
// "SELECT * FROM items WHERE id = 42"
func Parse(s string) (*SelectStmt, error) {
	orig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if orig == "" {
		return nil, errors.New("empty query")
	}

	m := selectRe.FindStringSubmatch(orig)
	if m == nil {
		return nil, errors.New("syntax: expected SELECT * FROM <table> [WHERE price <op> <n> | price BETWEEN <a> AND <b> | id = <n>] [LIMIT <n>]")
	}

	stmt := &SelectStmt{
		Table: m[1],
		Limit: -1,
	}

	if m[2] != "" {
		w := &WhereClause{Field: strings.ToLower(m[2])}
		if m[5] != "" {
			w.Op = "BETWEEN"
			w.Value, _ = strconv.ParseFloat(m[6], 64)
			w.Hi, _ = strconv.ParseFloat(m[7], 64)
		} else {
			w.Op = m[3]
			w.Value, _ = strconv.ParseFloat(m[4], 64)
		}

		switch w.Field {
		case "price":
		case "id":
			if w.Op != "=" || w.Value != math.Trunc(w.Value) {
				return nil, errors.New("only WHERE id = <int> is supported")
			}
		default:
			return nil, errors.New("only WHERE price or WHERE id is supported")
		}
		stmt.Where = w
	}

	if m[8] != "" {
		limit, err := strconv.Atoi(m[8])
		if err != nil {
			return nil, errors.New("invalid LIMIT value")
		}
		stmt.Limit = limit
	}

	return stmt, nil
}

// IsPointLookup reports whether the statement selects a single id.
func (stmt *SelectStmt) IsPointLookup() (int64, bool) {
	if stmt.Where == nil || stmt.Where.Field != "id" {
		return 0, false
	}
	return int64(stmt.Where.Value), true
}

// PriceRange returns the inclusive price bounds the statement selects.
// Strict comparisons are narrowed to the next representable float.
func (stmt *SelectStmt) PriceRange() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if stmt.Where == nil || stmt.Where.Field != "price" {
		return lo, hi
	}
	v := stmt.Where.Value
	switch stmt.Where.Op {
	case "=":
		return v, v
	case ">=":
		return v, hi
	case ">":
		return math.Nextafter(v, hi), hi
	case "<=":
		return lo, v
	case "<":
		return lo, math.Nextafter(v, lo)
	case "BETWEEN":
		return v, stmt.Where.Hi
	}
	return lo, hi
}

// Match evaluates the WHERE clause against rec.
func (stmt *SelectStmt) Match(rec common.Record) bool {
	if stmt.Where == nil {
		return true
	}
	if id, ok := stmt.IsPointLookup(); ok {
		return rec.ID == id
	}
	lo, hi := stmt.PriceRange()
	return rec.InPriceRange(lo, hi)
}
