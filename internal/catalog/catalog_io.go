package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	catalogFileName   = "db.db"
	catalogBackupName = "__backup_db.db"
)

func typeCode(t FieldType) int {
	if t == FieldInt {
		return 0
	}
	return 1
}

func typeFromCode(code int) (FieldType, error) {
	switch code {
	case 0:
		return FieldInt, nil
	case 1:
		return FieldStr, nil
	default:
		return 0, fmt.Errorf("catalog: unknown field type code %d", code)
	}
}

// readCatalog loads db.db (if it exists) into the table list, in file
// order: for each table, a line "name num_fields", then num_fields
// lines "field_name type_code len offset", then one line
// "num_records".
func (db *Database) readCatalog() error {
	path := filepath.Join(db.dir, catalogFileName)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		header := strings.Fields(scanner.Text())
		if len(header) == 0 {
			continue
		}
		if len(header) != 2 {
			return fmt.Errorf("catalog: malformed table header %q", scanner.Text())
		}
		name := header[0]
		numFields, err := strconv.Atoi(header[1])
		if err != nil {
			return fmt.Errorf("catalog: malformed field count %q: %w", header[1], err)
		}

		s := &Schema{Name: name}
		t := &Table{Schema: s}
		s.Table = t

		for i := 0; i < numFields; i++ {
			if !scanner.Scan() {
				return fmt.Errorf("catalog: unexpected end of file reading fields of %q", name)
			}
			parts := strings.Fields(scanner.Text())
			if len(parts) != 4 {
				return fmt.Errorf("catalog: malformed field line %q", scanner.Text())
			}
			code, err := strconv.Atoi(parts[1])
			if err != nil {
				return err
			}
			typ, err := typeFromCode(code)
			if err != nil {
				return err
			}
			length, err := strconv.Atoi(parts[2])
			if err != nil {
				return err
			}
			offset, err := strconv.Atoi(parts[3])
			if err != nil {
				return err
			}

			field := &Field{Name: parts[0], Type: typ, Len: length, Offset: offset}
			if s.Fields == nil {
				s.Fields = field
			} else {
				last := s.Fields
				for last.Next != nil {
					last = last.Next
				}
				last.Next = field
			}
			if offset+length > s.Len {
				s.Len = offset + length
			}
		}

		if !scanner.Scan() {
			return fmt.Errorf("catalog: missing record count for %q", name)
		}
		numRecs, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return fmt.Errorf("catalog: malformed record count %q: %w", scanner.Text(), err)
		}
		t.NumRecords = numRecs

		db.pushBack(t)
	}
	return scanner.Err()
}

// writeCatalog rotates any existing db.db to __backup_db.db, then
// writes a fresh one by traversing the table list.
func (db *Database) writeCatalog() error {
	path := filepath.Join(db.dir, catalogFileName)
	backupPath := filepath.Join(db.dir, catalogBackupName)

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, backupPath); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for t := db.tables; t != nil; t = t.Next {
		s := t.Schema
		if _, err := fmt.Fprintf(w, "%s %d\n", s.Name, s.NumFields()); err != nil {
			return err
		}
		for field := s.Fields; field != nil; field = field.Next {
			if _, err := fmt.Fprintf(w, "%s %d %d %d\n", field.Name, typeCode(field.Type), field.Len, field.Offset); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%d\n", t.NumRecords); err != nil {
			return err
		}
	}
	return w.Flush()
}

// renameToBackup renames dir/name to dir/_name, the convention used
// for a dropped table's data file. A no-op if the source doesn't
// exist (e.g. the table was created but never written to).
func renameToBackup(dir, name string) error {
	oldPath := filepath.Join(dir, name)
	if _, err := os.Stat(oldPath); os.IsNotExist(err) {
		return nil
	}
	newPath := filepath.Join(dir, "_"+name)
	return os.Rename(oldPath, newPath)
}
