package catalog

import (
	"fmt"

	"github.com/arjenvanzwam/blockdb/internal/pager"
)

// FillRecord assigns values to r's cells positionally, respecting
// each field's declared type.
func FillRecord(r *Record, s *Schema, values ...interface{}) error {
	if len(values) != len(r.Values) {
		return fmt.Errorf("catalog: expected %d values, got %d", len(r.Values), len(values))
	}
	i := 0
	for f := s.Fields; f != nil; f = f.Next {
		switch f.Type {
		case FieldInt:
			if err := assignIntField(r, i, values[i]); err != nil {
				return fmt.Errorf("catalog: field %q: %w", f.Name, err)
			}
		case FieldStr:
			if err := assignStrField(r, i, values[i]); err != nil {
				return fmt.Errorf("catalog: field %q: %w", f.Name, err)
			}
		}
		i++
	}
	return nil
}

func assignIntField(r *Record, i int, value interface{}) error {
	switch v := value.(type) {
	case int:
		r.Values[i].Int = v
	case int64:
		r.Values[i].Int = int(v)
	default:
		return fmt.Errorf("expected an integer value, got %T", value)
	}
	return nil
}

func assignStrField(r *Record, i int, value interface{}) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected a string value, got %T", value)
	}
	r.Values[i].Str = v
	return nil
}

// EqualRecord compares r1 and r2 field by field using type-appropriate
// comparison.
func EqualRecord(r1, r2 *Record, s *Schema) bool {
	i := 0
	for f := s.Fields; f != nil; f = f.Next {
		switch f.Type {
		case FieldInt:
			if r1.Values[i].Int != r2.Values[i].Int {
				return false
			}
		case FieldStr:
			if r1.Values[i].Str != r2.Values[i].Str {
				return false
			}
		}
		i++
	}
	return true
}

// writeRecordAt lays out r's fields contiguously at offset in p,
// schema order, INT as 4-byte little-endian, STR as declared-length
// NUL-padded bytes.
func writeRecordAt(p pageWriter, offset int, r *Record, s *Schema) bool {
	i := 0
	for f := s.Fields; f != nil; f = f.Next {
		switch f.Type {
		case FieldInt:
			if !p.PutIntAt(offset+f.Offset, r.Values[i].Int) {
				return false
			}
		case FieldStr:
			if !p.PutStringAt(offset+f.Offset, r.Values[i].Str, f.Len) {
				return false
			}
		}
		i++
	}
	return true
}

// ReadRecordAt reads a record's fields directly out of a page at a
// caller-chosen offset, for operators (notably binary search) that
// need random access rather than the sequential GetRecord cursor.
func ReadRecordAt(p *pager.Page, offset int, s *Schema) *Record {
	return readRecordAt(p, offset, s)
}

// readRecordAt reads a record's fields out of p at offset.
func readRecordAt(p pageReader, offset int, s *Schema) *Record {
	r := NewRecord(s)
	i := 0
	for f := s.Fields; f != nil; f = f.Next {
		switch f.Type {
		case FieldInt:
			r.Values[i].Int = p.GetIntAt(offset + f.Offset)
		case FieldStr:
			r.Values[i].Str = p.GetStringAt(offset+f.Offset, f.Len)
		}
		i++
	}
	return r
}

// pageReader/pageWriter narrow *pager.Page down to the byte accessors
// record marshaling needs.
type pageReader interface {
	GetIntAt(offset int) int
	GetStringAt(offset, length int) string
}

type pageWriter interface {
	PutIntAt(offset, value int) bool
	PutStringAt(offset int, value string, length int) bool
}
