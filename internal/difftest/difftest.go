// Package difftest is a differential test harness: it runs the same
// create/insert/select statements against a real SQLite table (via
// mattn/go-sqlite3) and against the block engine, and diffs the
// resulting row sets. Test-only collaborator, not a shipped feature.
package difftest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/arjenvanzwam/blockdb/internal/operator"
)

// Harness owns a block-engine database and a companion SQLite
// database over the same logical schema.
type Harness struct {
	Block  *catalog.Database
	SQLite *sql.DB
}

// New opens a block database rooted at dir and a file-backed SQLite
// database alongside it.
func New(dir string) (*Harness, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	logger := log.New()
	logger.SetLevel(log.WarnLevel)

	block, err := catalog.OpenDB(dir, catalog.DefaultPoolPages, catalog.DefaultMaxOpenFiles, logger)
	if err != nil {
		return nil, err
	}

	sqlitePath := filepath.Join(dir, "difftest-sqlite.db")
	sqliteDB, err := sql.Open("sqlite3", sqlitePath)
	if err != nil {
		_ = catalog.CloseDB(block)
		return nil, err
	}

	return &Harness{Block: block, SQLite: sqliteDB}, nil
}

// Close releases both underlying databases.
func (h *Harness) Close() error {
	sqliteErr := h.SQLite.Close()
	blockErr := catalog.CloseDB(h.Block)
	if blockErr != nil {
		return blockErr
	}
	return sqliteErr
}

// FieldSpec is one column of a table created in both engines.
type FieldSpec struct {
	Name string
	Type catalog.FieldType
	Len  int // declared STR length; unused for INT
}

// CreateTable creates name with the given fields in both the block
// engine and SQLite, using "TEXT"/"INTEGER" for the SQLite side.
func (h *Harness) CreateTable(name string, fields []FieldSpec) error {
	schema, err := h.Block.NewSchema(name)
	if err != nil {
		return err
	}
	var cols []string
	for _, f := range fields {
		length := f.Len
		sqlType := "TEXT"
		if f.Type == catalog.FieldInt {
			length = 4
			sqlType = "INTEGER"
		}
		if _, err := h.Block.AddField(schema, f.Name, f.Type, length); err != nil {
			return err
		}
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, sqlType))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(cols, ", "))
	_, err = h.SQLite.Exec(ddl)
	return err
}

// Insert appends values to name in both engines, in schema field
// order.
func (h *Harness) Insert(name string, values ...interface{}) error {
	t := h.Block.GetTable(name)
	if t == nil {
		return fmt.Errorf("difftest: unknown table %q", name)
	}
	rec := catalog.NewRecord(t.Schema)
	if err := catalog.FillRecord(rec, t.Schema, values...); err != nil {
		return err
	}
	if err := h.Block.AppendRecord(t, rec); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	dml := fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, placeholders)
	_, err := h.SQLite.Exec(dml, values...)
	return err
}

// blockRows reads every row of name from the block engine,
// stringifying each field, in field declaration order.
func (h *Harness) blockRows(name string) ([][]string, error) {
	t := h.Block.GetTable(name)
	if t == nil {
		return nil, fmt.Errorf("difftest: unknown table %q", name)
	}
	if err := h.Block.SetTablePosition(t, catalog.Beg); err != nil {
		return nil, err
	}
	var rows [][]string
	for {
		rec, ok, err := h.Block.GetRecord(t)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row := make([]string, len(rec.Values))
		i := 0
		for f := t.Schema.Fields; f != nil; f = f.Next {
			if f.Type == catalog.FieldInt {
				row[i] = fmt.Sprintf("%d", rec.Values[i].Int)
			} else {
				row[i] = rec.Values[i].Str
			}
			i++
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (h *Harness) sqliteRows(query string) ([][]string, error) {
	rows, err := h.SQLite.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]string
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range raw {
			row[i] = fmt.Sprintf("%v", v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// DiffSelectAll compares every row of table in the block engine
// against "SELECT * FROM table" in SQLite, order-independent, and
// returns a human-readable description of any mismatch (empty string
// if the row sets agree).
func (h *Harness) DiffSelectAll(table string) (string, error) {
	blockRows, err := h.blockRows(table)
	if err != nil {
		return "", err
	}
	sqliteRows, err := h.sqliteRows(fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return "", err
	}
	return diffRowSets(blockRows, sqliteRows), nil
}

// DiffNaturalJoin runs NaturalJoin(left, right) through the block
// engine's operator package and an equivalent SQL natural join through
// SQLite, diffing the results.
func (h *Harness) DiffNaturalJoin(left, right string, strategy operator.JoinStrategy) (string, error) {
	l := h.Block.GetTable(left)
	r := h.Block.GetTable(right)
	if l == nil || r == nil {
		return "", fmt.Errorf("difftest: unknown table in join %q/%q", left, right)
	}
	joined, err := operator.NaturalJoin(h.Block, l, r, strategy)
	if err != nil {
		return "", err
	}
	defer func() { _ = h.Block.RemoveTable(joined) }()

	blockRows, err := h.blockRows(joined.Schema.Name)
	if err != nil {
		return "", err
	}
	sqliteRows, err := h.sqliteRows(fmt.Sprintf("SELECT * FROM %s NATURAL JOIN %s", left, right))
	if err != nil {
		return "", err
	}
	return diffRowSets(blockRows, sqliteRows), nil
}

func diffRowSets(a, b [][]string) string {
	sa := stringifyRows(a)
	sb := stringifyRows(b)
	sort.Strings(sa)
	sort.Strings(sb)
	if len(sa) != len(sb) {
		return fmt.Sprintf("row count mismatch: block=%d sqlite=%d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return fmt.Sprintf("row mismatch at %d: block=%q sqlite=%q", i, sa[i], sb[i])
		}
	}
	return ""
}

func stringifyRows(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.Join(r, "|")
	}
	return out
}
