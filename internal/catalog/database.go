package catalog

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/arjenvanzwam/blockdb/internal/pager"
)

// Database is the global catalog state: the system directory, the
// head of the table list, and the pager that owns the file handles,
// buffer pages, and LRU queues backing every table.
type Database struct {
	Log *log.Logger

	dir   string
	Pager *pager.Pager

	tables *Table
	tail   *Table
}

// DefaultPoolPages and DefaultMaxOpenFiles are the pager sizing this
// package uses when a caller doesn't ask for anything different.
const (
	DefaultPoolPages   = 64
	DefaultMaxOpenFiles = 16
)

// OpenDB initializes the pager over dir and reads the catalog file
// (db.db), rebuilding the table list in file order.
func OpenDB(dir string, poolPages, maxOpenFiles int, logger *log.Logger) (*Database, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if poolPages <= 0 {
		poolPages = DefaultPoolPages
	}
	if maxOpenFiles <= 0 {
		maxOpenFiles = DefaultMaxOpenFiles
	}

	pg := pager.New(poolPages, maxOpenFiles, logger)
	if err := pg.SetSystemDir(dir); err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}

	db := &Database{
		Log:   logger,
		dir:   dir,
		Pager: pg,
	}
	if err := db.readCatalog(); err != nil {
		_ = pg.Terminate()
		return nil, fmt.Errorf("catalog: read catalog: %w", err)
	}
	return db, nil
}

// CloseDB rotates the existing catalog file to its backup name,
// writes a fresh one by traversing the table list, releases the
// tables, and terminates the pager.
func CloseDB(db *Database) error {
	if err := db.writeCatalog(); err != nil {
		return fmt.Errorf("catalog: write catalog: %w", err)
	}
	db.tables = nil
	db.tail = nil
	return db.Pager.Terminate()
}

// Dir returns the database's system directory.
func (db *Database) Dir() string {
	return db.dir
}

// Tables returns the table list in its current link order, head
// first.
func (db *Database) Tables() []*Table {
	var out []*Table
	for t := db.tables; t != nil; t = t.Next {
		out = append(out, t)
	}
	return out
}

// GetTable linear-searches the table list by name.
func (db *Database) GetTable(name string) *Table {
	for t := db.tables; t != nil; t = t.Next {
		if t.Schema.Name == name {
			return t
		}
	}
	return nil
}

// GetSchema linear-searches the table list by name and returns the
// matching schema.
func (db *Database) GetSchema(name string) *Schema {
	if t := db.GetTable(name); t != nil {
		return t.Schema
	}
	return nil
}

// NewSchema creates a schema and its enclosing table, links them
// bidirectionally, and pushes the table to the head of the table
// list. Returns an error if name is already in use.
func (db *Database) NewSchema(name string) (*Schema, error) {
	if db.GetTable(name) != nil {
		return nil, fmt.Errorf("catalog: table %q already exists", name)
	}
	s := &Schema{Name: name}
	t := &Table{Schema: s}
	s.Table = t
	db.pushFront(t)
	return s, nil
}

// AddField appends a field to s, assigning its offset and updating
// the schema's total record length. Rejects a field that would push
// the record length past MaxRecordLen.
func (db *Database) AddField(s *Schema, name string, typ FieldType, declLen int) (*Field, error) {
	length := declLen
	if typ == FieldInt {
		length = 4
	}
	if s.Len+length > MaxRecordLen {
		return nil, fmt.Errorf("catalog: field %q would push record length to %d, max is %d", name, s.Len+length, MaxRecordLen)
	}

	f := &Field{Name: name, Type: typ, Len: length, Offset: s.Len}
	if s.Fields == nil {
		s.Fields = f
	} else {
		last := s.Fields
		for last.Next != nil {
			last = last.Next
		}
		last.Next = f
	}
	s.Len += length
	return f, nil
}

// RemoveTable unlinks t from the table list, closes its file, and
// renames the data file to its backup name ("_NAME").
func (db *Database) RemoveTable(t *Table) error {
	db.unlink(t)

	if t.curPage != nil {
		_ = db.Pager.Unpin(t.curPage)
		t.curPage = nil
	}

	name := t.Schema.Name
	if err := db.Pager.CloseFile(name); err != nil {
		return err
	}
	return renameToBackup(db.dir, name)
}

func (db *Database) pushFront(t *Table) {
	t.Next = db.tables
	db.tables = t
	if db.tail == nil {
		db.tail = t
	}
}

func (db *Database) pushBack(t *Table) {
	t.Next = nil
	if db.tail == nil {
		db.tables = t
	} else {
		db.tail.Next = t
	}
	db.tail = t
}

func (db *Database) unlink(t *Table) {
	if db.tables == t {
		db.tables = t.Next
		if db.tail == t {
			db.tail = nil
		}
		return
	}
	for cur := db.tables; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			if db.tail == t {
				db.tail = cur
			}
			return
		}
	}
}
