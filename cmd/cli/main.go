package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"rangeindex/pkg/core/bptree"
)

const Prompt = "bptree> "

func main() {
	order := flag.Int("order", 4, "B+ tree order (max children per node)")
	flag.Parse()

	sh, err := newShell(*order, os.Stdout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("B+ tree shell (order=%d). Type 'help' for commands.\n", *order)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		if sh.exec(scanner.Text()) {
			return
		}
	}
}

type shell struct {
	tree *bptree.Tree[int64, string]
	out  io.Writer
}

func newShell(order int, out io.Writer) (*shell, error) {
	tree, err := bptree.NewOrdered[int64, string](order)
	if err != nil {
		return nil, err
	}
	return &shell{tree: tree, out: out}, nil
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "put", "set":
		s.handlePut(parts)
	case "get":
		s.handleGet(parts)
	case "del", "rm":
		s.handleDel(parts)
	case "scan":
		s.handleScan(parts)
	case "stats":
		st := s.tree.Stats()
		fmt.Fprintf(s.out, "order=%d len=%d height=%d nodes=%d leaves=%d\n",
			st.Order, st.Len, st.Height, st.Nodes, st.Leaves)
	case "check":
		if err := s.tree.Check(); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		} else {
			fmt.Fprintln(s.out, "OK")
		}
	case "help":
		s.printHelp()
	case "exit", "quit":
		fmt.Fprintln(s.out, "Bye!")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: '%s'. Type 'help'.\n", cmd)
	}
	return false
}

func (s *shell) handlePut(parts []string) {
	if len(parts) < 3 {
		fmt.Fprintln(s.out, "Usage: put <key_int> <value_string>")
		return
	}
	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Fprintln(s.out, "Error: Key must be an integer (e.g., 1001)")
		return
	}

	start := time.Now()
	err = s.tree.Insert(key, strings.Join(parts[2:], " "))
	duration := time.Since(start)

	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	} else {
		fmt.Fprintf(s.out, "OK (%v)\n", duration)
	}
}

func (s *shell) handleGet(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintln(s.out, "Usage: get <key_int>")
		return
	}
	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Fprintln(s.out, "Error: Key must be an integer")
		return
	}

	val, ok := s.tree.Get(key)
	if !ok {
		fmt.Fprintln(s.out, "(not found)")
		return
	}
	fmt.Fprintf(s.out, "\"%s\"\n", val)
}

func (s *shell) handleDel(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintln(s.out, "Usage: del <key_int>")
		return
	}
	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Fprintln(s.out, "Error: Key must be an integer")
		return
	}

	if s.tree.Delete(key) {
		fmt.Fprintln(s.out, "Deleted")
	} else {
		fmt.Fprintln(s.out, "(not found)")
	}
}

func (s *shell) handleScan(parts []string) {
	if len(parts) < 3 {
		fmt.Fprintln(s.out, "Usage: scan <start_key> <end_key>")
		return
	}
	startKey, err1 := strconv.ParseInt(parts[1], 10, 64)
	endKey, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(s.out, "Error: Keys must be integers")
		return
	}

	count := 0
	for k, v := range s.tree.Range(startKey, endKey) {
		if count == 20 {
			fmt.Fprintln(s.out, "  ...")
			break
		}
		fmt.Fprintf(s.out, "  [%d] -> %s\n", k, v)
		count++
	}
	fmt.Fprintf(s.out, "Found %d records\n", count)
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
Commands:
  put <key> <value>      Insert/Update record
  get <key>              Retrieve record
  del <key>              Delete record
  scan <start> <end>     Range query (inclusive)
  stats                  Tree shape
  check                  Verify tree invariants
  exit                   Exit shell`)
}
