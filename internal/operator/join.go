package operator

import (
	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/arjenvanzwam/blockdb/internal/pager"
)

// JoinStrategy selects the algorithm NaturalJoin uses to pair rows of
// its two inputs: an explicit parameter rather than a build tag.
type JoinStrategy int

const (
	NestedLoop JoinStrategy = iota
	BlockNestedLoop
)

// NaturalJoin pairs rows of left and right on their first common field
// name, materializing left's fields followed by right's non-duplicate
// fields into a new result table.
func NaturalJoin(db *catalog.Database, left, right *catalog.Table, strategy JoinStrategy) (*catalog.Table, error) {
	joinField, err := commonFieldName(left.Schema, right.Schema)
	if err != nil {
		return nil, err
	}

	dstSchema, err := joinSchema(db, left.Schema, right.Schema, nextResultName("tmp_tbl__", left.Schema.Name+"_"+right.Schema.Name))
	if err != nil {
		return nil, err
	}
	result := dstSchema.Table

	leftIdx := left.Schema.FieldIndex(joinField)
	rightIdx := right.Schema.FieldIndex(joinField)

	switch strategy {
	case BlockNestedLoop:
		err = blockNestedLoopJoin(db, left, right, leftIdx, rightIdx, dstSchema, result)
	default:
		err = nestedLoopJoin(db, left, right, leftIdx, rightIdx, dstSchema, result)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// combine builds one result record out of a matching (lRec, rRec)
// pair: all of left's fields, then right's fields whose names don't
// already appear in left.
func combine(lRec, rRec *catalog.Record, left, right, dst *catalog.Schema) *catalog.Record {
	out := catalog.NewRecord(dst)
	i := 0
	for f := left.Fields; f != nil; f = f.Next {
		li := left.FieldIndex(f.Name)
		out.Values[i] = lRec.Values[li]
		i++
	}
	for f := right.Fields; f != nil; f = f.Next {
		if left.FieldByName(f.Name) != nil {
			continue
		}
		ri := right.FieldIndex(f.Name)
		out.Values[i] = rRec.Values[ri]
		i++
	}
	return out
}

// nestedLoopJoin rescans right once per row of left.
func nestedLoopJoin(db *catalog.Database, left, right *catalog.Table, leftIdx, rightIdx int, dst *catalog.Schema, result *catalog.Table) error {
	if err := db.SetTablePosition(left, catalog.Beg); err != nil {
		return err
	}
	for {
		lRec, ok, err := db.GetRecord(left)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if err := db.SetTablePosition(right, catalog.Beg); err != nil {
			return err
		}
		for {
			rRec, ok, err := db.GetRecord(right)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if !equalCell(lRec.Values[leftIdx], rRec.Values[rightIdx]) {
				continue
			}
			if err := db.AppendRecord(result, combine(lRec, rRec, left.Schema, right.Schema, dst)); err != nil {
				return err
			}
		}
	}
}

// blockNestedLoopJoin buffers as many rows of left as fit in one block
// of its own file, then rescans right once per buffered block instead
// of once per row, trading memory for fewer passes over right.
func blockNestedLoopJoin(db *catalog.Database, left, right *catalog.Table, leftIdx, rightIdx int, dst *catalog.Schema, result *catalog.Table) error {
	usable := pager.BlockSize - pager.PageHeaderSize
	recLen := left.Schema.Len
	batchSize := usable / recLen
	if batchSize <= 0 {
		batchSize = 1
	}

	if err := db.SetTablePosition(left, catalog.Beg); err != nil {
		return err
	}

	batch := make([]*catalog.Record, 0, batchSize)
	drainBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := db.SetTablePosition(right, catalog.Beg); err != nil {
			return err
		}
		for {
			rRec, ok, err := db.GetRecord(right)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			for _, lRec := range batch {
				if !equalCell(lRec.Values[leftIdx], rRec.Values[rightIdx]) {
					continue
				}
				if err := db.AppendRecord(result, combine(lRec, rRec, left.Schema, right.Schema, dst)); err != nil {
					return err
				}
			}
		}
		batch = batch[:0]
		return nil
	}

	for {
		lRec, ok, err := db.GetRecord(left)
		if err != nil {
			return err
		}
		if !ok {
			return drainBatch()
		}
		batch = append(batch, lRec)
		if len(batch) == batchSize {
			if err := drainBatch(); err != nil {
				return err
			}
		}
	}
}

func equalCell(a, b catalog.Cell) bool {
	return a.Int == b.Int && a.Str == b.Str
}
