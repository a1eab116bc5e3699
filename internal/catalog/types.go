// Package catalog implements the schema/record layer on top of the
// pager: a process-wide list of tables, each with a linked list of
// typed fields, record-level read/write at page offsets, and a
// persisted catalog file describing it all across sessions.
package catalog

import "github.com/arjenvanzwam/blockdb/internal/pager"

// FieldType is the type tag of a field: INT (4 bytes) or STR (a
// declared fixed length).
type FieldType int

const (
	FieldInt FieldType = iota
	FieldStr
)

func (t FieldType) String() string {
	if t == FieldInt {
		return "int"
	}
	return "str"
}

// MaxRecordLen is the largest a record may be: a block minus its
// header.
const MaxRecordLen = pager.BlockSize - pager.PageHeaderSize

// Field describes one field of a schema: its name, type, byte length
// (4 for INT, the declared length for STR), and byte offset within a
// record. Singly linked to the next field.
type Field struct {
	Name   string
	Type   FieldType
	Len    int
	Offset int
	Next   *Field
}

// Schema is a table's name, its ordered field list, the total record
// length, and a back-pointer to its Table.
type Schema struct {
	Name   string
	Fields *Field
	Len    int
	Table  *Table
}

// FieldByName linear-searches the field list by name.
func (s *Schema) FieldByName(name string) *Field {
	for f := s.Fields; f != nil; f = f.Next {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldIndex returns the position of name within the schema's field
// list (and so within a Record's Values slice), or -1 if absent.
func (s *Schema) FieldIndex(name string) int {
	i := 0
	for f := s.Fields; f != nil; f = f.Next {
		if f.Name == name {
			return i
		}
		i++
	}
	return -1
}

// FieldNames returns the schema's field names in declaration order.
func (s *Schema) FieldNames() []string {
	var names []string
	for f := s.Fields; f != nil; f = f.Next {
		names = append(names, f.Name)
	}
	return names
}

// NumFields counts the schema's fields.
func (s *Schema) NumFields() int {
	n := 0
	for f := s.Fields; f != nil; f = f.Next {
		n++
	}
	return n
}

// Table is a schema, a record count, a scan/append cursor page, and a
// link into the global table list.
type Table struct {
	Schema     *Schema
	NumRecords int
	Next       *Table

	// curPage is the pinned page backing the table's current scan or
	// append position. The pager's pinning discipline keeps it from
	// being evicted out from under an in-progress scan.
	curPage *pager.Page
}

// Position selects where SetTablePosition primes a table's cursor.
type Position int

const (
	Beg Position = iota
	End
)

// Cell is one field's value in a Record: an INT or a STR, tagged by
// the schema's field type at that position.
type Cell struct {
	Int int
	Str string
}

// Record is a heap-allocated vector of per-field values, one cell per
// field of the schema it was built from.
type Record struct {
	Values []Cell
}

// NewRecord allocates a record with one cell per field of s.
func NewRecord(s *Schema) *Record {
	return &Record{Values: make([]Cell, s.NumFields())}
}
