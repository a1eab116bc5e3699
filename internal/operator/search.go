package operator

import (
	"fmt"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/arjenvanzwam/blockdb/internal/pager"
)

// CompareOp is one of the comparison operators the selection operator
// understands.
type CompareOp string

const (
	OpEQ         CompareOp = "="
	OpLT         CompareOp = "<"
	OpLE         CompareOp = "<="
	OpGT         CompareOp = ">"
	OpGE         CompareOp = ">="
	OpNE         CompareOp = "!="
	OpBinarySearch CompareOp = "=="
)

// matches deliberately swaps < and > relative to ordinary mathematical
// sense: the comparison is always expressed as "val OP rec", not
// "rec OP val". Preserved bit-for-bit rather than silently corrected;
// see DESIGN.md for the decision record.
func matches(op CompareOp, val, rec int) bool {
	switch op {
	case OpEQ:
		return val == rec
	case OpLT:
		return val < rec
	case OpLE:
		return val <= rec
	case OpGT:
		return val > rec
	case OpGE:
		return val >= rec
	case OpNE:
		return val != rec
	default:
		return false
	}
}

// Search selects rows of t where attr (which must be an INT field)
// compares to val under op, materializing matches into a new result
// table. op == "==" selects the binary-search path over an
// assumed-sorted file instead of a linear scan; string selection is
// unsupported.
func Search(db *catalog.Database, t *catalog.Table, attrName string, op CompareOp, val int) (*catalog.Table, error) {
	attr := t.Schema.FieldByName(attrName)
	if attr == nil {
		return nil, fmt.Errorf("operator: unknown field %q", attrName)
	}
	if attr.Type != catalog.FieldInt {
		return nil, fmt.Errorf("operator: selection on field %q requires an INT field, not %s", attrName, attr.Type)
	}

	resultSchema, err := copySchema(db, t.Schema, nextResultName("tmp_tbl__", t.Schema.Name))
	if err != nil {
		return nil, err
	}
	result := resultSchema.Table

	defer func() {
		db.Log.Infof("search: reads=%d writes=%d seeks=%d", db.Pager.Profiler().Reads, db.Pager.Profiler().Writes, db.Pager.Profiler().Seeks)
		db.Pager.ProfilerReset()
	}()

	if op == OpBinarySearch {
		if err := binarySearch(db, t, attr, val, result); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := linearScan(db, t, attr, op, val, result); err != nil {
		return nil, err
	}
	return result, nil
}

func linearScan(db *catalog.Database, t *catalog.Table, attr *catalog.Field, op CompareOp, val int, result *catalog.Table) error {
	idx := t.Schema.FieldIndex(attr.Name)
	if err := db.SetTablePosition(t, catalog.Beg); err != nil {
		return err
	}
	for {
		rec, ok, err := db.GetRecord(t)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if matches(op, val, rec.Values[idx].Int) {
			if err := db.AppendRecord(result, rec); err != nil {
				return err
			}
		}
	}
}

// binarySearch performs binary search by logical record index over an
// assumed-sorted file. free_bytes is the usable byte span per block:
// the largest multiple of the record length that fits in
// BlockSize-PageHeaderSize. A byte cursor mid over the logical,
// header-free record stream maps to (block, offset-in-block) via
// free_bytes; each step narrows [min,max] by one record length.
//
// The page is re-fetched on every iteration rather than keeping a pin
// held across the whole search, at the cost of extra pager traffic.
// Deliberate, not an oversight. See DESIGN.md.
func binarySearch(db *catalog.Database, t *catalog.Table, attr *catalog.Field, val int, result *catalog.Table) error {
	s := t.Schema
	usable := pager.BlockSize - pager.PageHeaderSize
	freeBytes := usable - (usable % s.Len)
	if freeBytes == 0 {
		return fmt.Errorf("operator: record length %d does not fit in a block", s.Len)
	}

	n := t.NumRecords
	if n == 0 {
		return nil
	}

	min, max := 0, (n-1)*s.Len
	for min <= max {
		mid := (min + max) / 2
		mid -= mid % s.Len

		blk := mid / freeBytes
		offsetInBlock := pager.PageHeaderSize + (mid % freeBytes)

		p, err := db.Pager.GetPage(s.Name, blk)
		if err != nil {
			return err
		}
		recVal := p.GetIntAt(offsetInBlock + attr.Offset)

		switch {
		case recVal == val:
			rec := catalog.ReadRecordAt(p, offsetInBlock, s)
			if err := db.Pager.Unpin(p); err != nil {
				return err
			}
			return db.AppendRecord(result, rec)
		case recVal < val:
			if err := db.Pager.Unpin(p); err != nil {
				return err
			}
			min = mid + s.Len
		default:
			if err := db.Pager.Unpin(p); err != nil {
				return err
			}
			max = mid - s.Len
		}
	}
	return nil
}
