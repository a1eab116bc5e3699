// Package operator implements the three relational operators this
// engine supports: selection (search), projection (project), and
// natural join, each materializing its output as a new on-disk table
// through the same append path used for user data.
package operator

import (
	"fmt"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
)

// copySchema builds a new schema under newName with the same fields
// (same names, types, and declared lengths) as src, offsets
// recomputed from scratch.
func copySchema(db *catalog.Database, src *catalog.Schema, newName string) (*catalog.Schema, error) {
	dst, err := db.NewSchema(newName)
	if err != nil {
		return nil, err
	}
	for f := src.Fields; f != nil; f = f.Next {
		declLen := f.Len
		if _, err := db.AddField(dst, f.Name, f.Type, declLen); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// joinSchema builds the schema for a natural join of left and right:
// all of left's fields, followed by right's fields whose names don't
// already appear in left.
func joinSchema(db *catalog.Database, left, right *catalog.Schema, newName string) (*catalog.Schema, error) {
	dst, err := db.NewSchema(newName)
	if err != nil {
		return nil, err
	}
	for f := left.Fields; f != nil; f = f.Next {
		if _, err := db.AddField(dst, f.Name, f.Type, f.Len); err != nil {
			return nil, err
		}
	}
	for f := right.Fields; f != nil; f = f.Next {
		if left.FieldByName(f.Name) != nil {
			continue
		}
		if _, err := db.AddField(dst, f.Name, f.Type, f.Len); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// commonFieldName returns the first field name that appears in both
// schemas, in left's declaration order, and an error if there is none.
func commonFieldName(left, right *catalog.Schema) (string, error) {
	for f := left.Fields; f != nil; f = f.Next {
		if right.FieldByName(f.Name) != nil {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("operator: no common field between %q and %q to join on", left.Name, right.Name)
}

var resultCounter int

// nextResultName returns a fresh name for a temporary result table
// with the given naming prefix, avoiding collisions within a process
// run.
func nextResultName(prefix, base string) string {
	resultCounter++
	return fmt.Sprintf("%s%s_%d", prefix, base, resultCounter)
}
