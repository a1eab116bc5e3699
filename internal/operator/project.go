package operator

import (
	"fmt"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
)

// Project builds a new table holding only the named fields of t, in
// the order given, materializing one output record per input record.
func Project(db *catalog.Database, t *catalog.Table, fieldNames ...string) (*catalog.Table, error) {
	if len(fieldNames) == 0 {
		return nil, fmt.Errorf("operator: project requires at least one field")
	}

	srcIdx := make([]int, len(fieldNames))
	for i, name := range fieldNames {
		f := t.Schema.FieldByName(name)
		if f == nil {
			return nil, fmt.Errorf("operator: unknown field %q", name)
		}
		srcIdx[i] = t.Schema.FieldIndex(name)
	}

	dstSchema, err := db.NewSchema(nextResultName("project__", t.Schema.Name))
	if err != nil {
		return nil, err
	}
	for _, name := range fieldNames {
		f := t.Schema.FieldByName(name)
		if _, err := db.AddField(dstSchema, f.Name, f.Type, f.Len); err != nil {
			return nil, err
		}
	}
	result := dstSchema.Table

	if err := db.SetTablePosition(t, catalog.Beg); err != nil {
		return nil, err
	}
	for {
		rec, ok, err := db.GetRecord(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		out := catalog.NewRecord(dstSchema)
		for i, si := range srcIdx {
			out.Values[i] = rec.Values[si]
		}
		if err := db.AppendRecord(result, out); err != nil {
			return nil, err
		}
	}
}
