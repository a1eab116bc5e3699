package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenDB(t.TempDir(), 8, 8, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func createPeople(t *testing.T, db *Database) *Table {
	t.Helper()
	s, err := db.NewSchema("people")
	require.NoError(t, err)
	_, err = db.AddField(s, "id", FieldInt, 4)
	require.NoError(t, err)
	_, err = db.AddField(s, "name", FieldStr, 8)
	require.NoError(t, err)
	return s.Table
}

func TestAddFieldAssignsOffsets(t *testing.T) {
	db := newTestDB(t)
	t1 := createPeople(t, db)

	id := t1.Schema.FieldByName("id")
	name := t1.Schema.FieldByName("name")
	assert.Equal(t, 0, id.Offset)
	assert.Equal(t, 4, name.Offset)
	assert.Equal(t, 12, t1.Schema.Len)
}

func TestAddFieldRejectsOverflow(t *testing.T) {
	db := newTestDB(t)
	s, err := db.NewSchema("big")
	require.NoError(t, err)

	_, err = db.AddField(s, "blob", FieldStr, MaxRecordLen-3)
	require.NoError(t, err)

	_, err = db.AddField(s, "overflow", FieldStr, 4)
	assert.Error(t, err)
}

func TestAppendAndScanPreservesOrder(t *testing.T) {
	db := newTestDB(t)
	t1 := createPeople(t, db)

	for i, name := range []string{"ann", "bob", "cid"} {
		r := NewRecord(t1.Schema)
		require.NoError(t, FillRecord(r, t1.Schema, i+1, name))
		require.NoError(t, db.AppendRecord(t1, r))
	}

	require.NoError(t, db.SetTablePosition(t1, Beg))
	var names []string
	for {
		r, ok, err := db.GetRecord(t1)
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, r.Values[1].Str)
	}
	assert.Equal(t, []string{"ann", "bob", "cid"}, names)
	assert.Equal(t, 3, t1.NumRecords)
}

func TestCloseAndReopenPreservesSchemaAndRows(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(dir, 8, 8, nil)
	require.NoError(t, err)

	t1 := createPeople(t, db)
	r := NewRecord(t1.Schema)
	require.NoError(t, FillRecord(r, t1.Schema, 1, "ann"))
	require.NoError(t, db.AppendRecord(t1, r))
	require.NoError(t, CloseDB(db))

	db2, err := OpenDB(dir, 8, 8, nil)
	require.NoError(t, err)
	defer func() { _ = CloseDB(db2) }()

	t2 := db2.GetTable("people")
	require.NotNil(t, t2)
	assert.Equal(t, 1, t2.NumRecords)
	assert.Equal(t, []string{"id", "name"}, t2.Schema.FieldNames())

	require.NoError(t, db2.SetTablePosition(t2, Beg))
	rec, ok, err := db2.GetRecord(t2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, rec.Values[0].Int)
	assert.Equal(t, "ann", rec.Values[1].Str)
}

func TestRemoveTableRenamesDataFile(t *testing.T) {
	db := newTestDB(t)
	t1 := createPeople(t, db)
	require.NoError(t, db.AppendRecord(t1, NewRecord(t1.Schema)))

	require.NoError(t, db.RemoveTable(t1))
	assert.Nil(t, db.GetTable("people"))
	assert.FileExists(t, filepath.Join(db.Dir(), "_people"))
}

func TestEqualRecord(t *testing.T) {
	db := newTestDB(t)
	t1 := createPeople(t, db)

	r1 := NewRecord(t1.Schema)
	require.NoError(t, FillRecord(r1, t1.Schema, 1, "ann"))
	r2 := NewRecord(t1.Schema)
	require.NoError(t, FillRecord(r2, t1.Schema, 1, "ann"))
	r3 := NewRecord(t1.Schema)
	require.NoError(t, FillRecord(r3, t1.Schema, 2, "bob"))

	assert.True(t, EqualRecord(r1, r2, t1.Schema))
	assert.False(t, EqualRecord(r1, r3, t1.Schema))
}
