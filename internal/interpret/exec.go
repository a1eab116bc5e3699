package interpret

import (
	"fmt"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/arjenvanzwam/blockdb/internal/operator"
)

// ErrQuit is returned by Execute when the statement was "quit", so the
// REPL loop in cmd/blockdb knows to stop reading further commands.
var ErrQuit = fmt.Errorf("interpret: quit")

func execStatement(db *catalog.Database, stmt interface{}) (*ResultSet, error) {
	switch s := stmt.(type) {
	case *HelpStmt:
		return &ResultSet{Rows: [][]string{{helpText}}}, nil
	case *QuitStmt:
		return nil, ErrQuit
	case *PrintStmt:
		return &ResultSet{Rows: [][]string{{s.Text}}}, nil
	case *ShowDatabaseStmt:
		return execShowDatabase(db), nil
	case *CreateTableStmt:
		return nil, execCreateTable(db, s)
	case *DropTableStmt:
		return nil, execDropTable(db, s)
	case *InsertStmt:
		return nil, execInsert(db, s)
	case *SelectStmt:
		return execSelect(db, s)
	default:
		return nil, fmt.Errorf("interpret: unknown statement type %T", stmt)
	}
}

const helpText = `help             show this text
quit             exit the REPL
# comment        ignored
print text       echo text
show database    list tables and row counts
create table NAME ( f1 TYPE, ... )   TYPE is int or str[N]
drop table NAME;
insert into NAME values ( v1, v2, ... );
select a,b,* from T [natural join U] [where ATTR OP INT];`

func execShowDatabase(db *catalog.Database) *ResultSet {
	rs := &ResultSet{Columns: []string{"table", "num_records"}}
	for _, t := range db.Tables() {
		rs.Rows = append(rs.Rows, []string{t.Schema.Name, intCell(t.NumRecords)})
	}
	return rs
}

func execCreateTable(db *catalog.Database, s *CreateTableStmt) error {
	schema, err := db.NewSchema(s.Table)
	if err != nil {
		return err
	}
	for _, f := range s.Fields {
		typ := catalog.FieldInt
		length := 4
		if f.Type == "str" {
			typ = catalog.FieldStr
			length = f.Len
		}
		if _, err := db.AddField(schema, f.Name, typ, length); err != nil {
			_ = db.RemoveTable(schema.Table)
			return fmt.Errorf("interpret: create table %q: %w", s.Table, err)
		}
	}
	return nil
}

func execDropTable(db *catalog.Database, s *DropTableStmt) error {
	t := db.GetTable(s.Table)
	if t == nil {
		return fmt.Errorf("interpret: unknown table %q", s.Table)
	}
	return db.RemoveTable(t)
}

func execInsert(db *catalog.Database, s *InsertStmt) error {
	t := db.GetTable(s.Table)
	if t == nil {
		return fmt.Errorf("interpret: unknown table %q", s.Table)
	}
	vals := make([]interface{}, len(s.Values))
	for i, v := range s.Values {
		if v.IsInt {
			vals[i] = v.Int
		} else {
			vals[i] = v.Str
		}
	}
	rec := catalog.NewRecord(t.Schema)
	if err := catalog.FillRecord(rec, t.Schema, vals...); err != nil {
		return fmt.Errorf("interpret: insert into %q: %w", s.Table, err)
	}
	return db.AppendRecord(t, rec)
}

func execSelect(db *catalog.Database, s *SelectStmt) (*ResultSet, error) {
	t := db.GetTable(s.From)
	if t == nil {
		return nil, fmt.Errorf("interpret: unknown table %q", s.From)
	}

	src := t
	var temps []*catalog.Table
	defer func() {
		for _, tmp := range temps {
			_ = db.RemoveTable(tmp)
		}
	}()

	if s.Join != "" {
		other := db.GetTable(s.Join)
		if other == nil {
			return nil, fmt.Errorf("interpret: unknown table %q", s.Join)
		}
		joined, err := operator.NaturalJoin(db, t, other, operator.NestedLoop)
		if err != nil {
			return nil, err
		}
		src = joined
		temps = append(temps, joined)
	}

	if s.Where != nil {
		op := operator.CompareOp(s.Where.Op)
		filtered, err := operator.Search(db, src, s.Where.Attr, op, s.Where.Val)
		if err != nil {
			return nil, err
		}
		src = filtered
		temps = append(temps, filtered)
	}

	fieldNames := s.Fields
	if len(fieldNames) == 1 && fieldNames[0] == "*" {
		fieldNames = src.Schema.FieldNames()
	} else {
		projected, err := operator.Project(db, src, fieldNames...)
		if err != nil {
			return nil, err
		}
		src = projected
		temps = append(temps, projected)
		fieldNames = src.Schema.FieldNames()
	}

	return renderTable(db, src, fieldNames)
}

func renderTable(db *catalog.Database, t *catalog.Table, fieldNames []string) (*ResultSet, error) {
	rs := &ResultSet{Columns: fieldNames}
	idx := make([]int, len(fieldNames))
	for i, name := range fieldNames {
		f := t.Schema.FieldByName(name)
		if f == nil {
			return nil, fmt.Errorf("interpret: unknown field %q", name)
		}
		idx[i] = t.Schema.FieldIndex(name)
	}

	if err := db.SetTablePosition(t, catalog.Beg); err != nil {
		return nil, err
	}
	for {
		rec, ok, err := db.GetRecord(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row := make([]string, len(fieldNames))
		for i, fi := range idx {
			f := t.Schema.FieldByName(fieldNames[i])
			if f.Type == catalog.FieldInt {
				row[i] = intCell(rec.Values[fi].Int)
			} else {
				row[i] = strCell(rec.Values[fi].Str)
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}
