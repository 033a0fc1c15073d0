package wake

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// LookupDelimiter separates a name from its address in a lookup file line.
const LookupDelimiter = ":"

// LookupTable maps names to hardware address strings. The zero value is an
// empty table.
type LookupTable struct {
	entries map[string]string
	order   []string
}

// ParseLookupTable reads lines of the form "name : address". Lines without a
// delimiter are skipped; fields after the second are ignored. A later line
// replaces an earlier one with the same name.
func ParseLookupTable(r io.Reader) (*LookupTable, error) {
	t := &LookupTable{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), LookupDelimiter)
		if len(fields) < 2 {
			continue
		}
		t.Set(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read lookup table")
	}
	return t, nil
}

// ParseLookupTableString is ParseLookupTable over a string.
func ParseLookupTableString(s string) *LookupTable {
	t, _ := ParseLookupTable(strings.NewReader(s))
	return t
}

// Set adds or replaces an entry. Names keep the position of their first
// insertion.
func (t *LookupTable) Set(name, addr string) {
	if t.entries == nil {
		t.entries = make(map[string]string)
	}
	if _, ok := t.entries[name]; !ok {
		t.order = append(t.order, name)
	}
	t.entries[name] = addr
}

func (t *LookupTable) Lookup(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	addr, ok := t.entries[name]
	return addr, ok
}

func (t *LookupTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Names are in file order.
func (t *LookupTable) Names() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// First returns the entry that appeared first in the file.
func (t *LookupTable) First() (name, addr string, ok bool) {
	if t.Len() == 0 {
		return "", "", false
	}
	name = t.order[0]
	return name, t.entries[name], true
}
