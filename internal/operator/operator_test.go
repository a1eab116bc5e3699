package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
)

func newTestDB(t *testing.T) *catalog.Database {
	t.Helper()
	db, err := catalog.OpenDB(t.TempDir(), 16, 8, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.CloseDB(db) })
	return db
}

func createTable(t *testing.T, db *catalog.Database, name string, fields ...catalog.Field) *catalog.Table {
	t.Helper()
	s, err := db.NewSchema(name)
	require.NoError(t, err)
	for _, f := range fields {
		_, err := db.AddField(s, f.Name, f.Type, f.Len)
		require.NoError(t, err)
	}
	return s.Table
}

func insert(t *testing.T, db *catalog.Database, tbl *catalog.Table, values ...interface{}) {
	t.Helper()
	r := catalog.NewRecord(tbl.Schema)
	require.NoError(t, catalog.FillRecord(r, tbl.Schema, values...))
	require.NoError(t, db.AppendRecord(tbl, r))
}

func peopleTable(t *testing.T, db *catalog.Database) *catalog.Table {
	t.Helper()
	tbl := createTable(t, db, "people",
		catalog.Field{Name: "id", Type: catalog.FieldInt, Len: 4},
		catalog.Field{Name: "name", Type: catalog.FieldStr, Len: 8},
	)
	insert(t, db, tbl, 1, "ann")
	insert(t, db, tbl, 2, "bob")
	insert(t, db, tbl, 3, "cid")
	return tbl
}

func scanInts(t *testing.T, db *catalog.Database, tbl *catalog.Table, fieldName string) []int {
	t.Helper()
	idx := tbl.Schema.FieldIndex(fieldName)
	require.NoError(t, db.SetTablePosition(tbl, catalog.Beg))
	var out []int
	for {
		r, ok, err := db.GetRecord(tbl)
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, r.Values[idx].Int)
	}
	return out
}

func TestSearchEquality(t *testing.T) {
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	result, err := Search(db, tbl, "id", OpEQ, 2)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.Equal(t, []int{2}, scanInts(t, db, result, "id"))
}

func TestSearchSwappedComparator(t *testing.T) {
	// "<"/">" are deliberately swapped relative to ordinary mathematical
	// sense: "id > 1" selects rows where "1 > rec.id", which for
	// {1,2,3} matches nothing. Preserved, not corrected.
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	result, err := Search(db, tbl, "id", OpGT, 1)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.Empty(t, scanInts(t, db, result, "id"))
}

func TestSearchNotEqual(t *testing.T) {
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	result, err := Search(db, tbl, "id", OpNE, 2)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.ElementsMatch(t, []int{1, 3}, scanInts(t, db, result, "id"))
}

func TestSearchBinarySearchOnSortedFile(t *testing.T) {
	db := newTestDB(t)
	tbl := createTable(t, db, "sorted", catalog.Field{Name: "k", Type: catalog.FieldInt, Len: 4})
	for i := 0; i < 200; i++ {
		insert(t, db, tbl, i)
	}

	result, err := Search(db, tbl, "k", OpBinarySearch, 137)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.Equal(t, []int{137}, scanInts(t, db, result, "k"))
}

func TestSearchRejectsStringField(t *testing.T) {
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	_, err := Search(db, tbl, "name", OpEQ, 0)
	assert.Error(t, err)
}

func TestProjectAllFieldsEqualsSource(t *testing.T) {
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	result, err := Project(db, tbl, "id", "name")
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.Equal(t, scanInts(t, db, tbl, "id"), scanInts(t, db, result, "id"))
}

func TestProjectSubsetOfFields(t *testing.T) {
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	result, err := Project(db, tbl, "name")
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.Equal(t, 1, result.Schema.NumFields())
	assert.Equal(t, []string{"name"}, result.Schema.FieldNames())
}

func TestProjectUnknownFieldErrors(t *testing.T) {
	db := newTestDB(t)
	tbl := peopleTable(t, db)

	_, err := Project(db, tbl, "nope")
	assert.Error(t, err)
}

func setupJoinTables(t *testing.T, db *catalog.Database) (*catalog.Table, *catalog.Table) {
	t.Helper()
	left := peopleTable(t, db)
	right := createTable(t, db, "ages",
		catalog.Field{Name: "id", Type: catalog.FieldInt, Len: 4},
		catalog.Field{Name: "age", Type: catalog.FieldInt, Len: 4},
	)
	insert(t, db, right, 1, 30)
	insert(t, db, right, 2, 40)
	return left, right
}

func TestNaturalJoinNestedLoop(t *testing.T) {
	db := newTestDB(t)
	left, right := setupJoinTables(t, db)

	result, err := NaturalJoin(db, left, right, NestedLoop)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(result) }()

	assert.Equal(t, []string{"id", "name", "age"}, result.Schema.FieldNames())
	assert.Equal(t, []int{1, 2}, scanInts(t, db, result, "id"))
	assert.Equal(t, []int{30, 40}, scanInts(t, db, result, "age"))
}

func TestNaturalJoinBlockNestedLoopAgreesWithNestedLoop(t *testing.T) {
	db := newTestDB(t)
	left, right := setupJoinTables(t, db)

	nested, err := NaturalJoin(db, left, right, NestedLoop)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(nested) }()

	block, err := NaturalJoin(db, left, right, BlockNestedLoop)
	require.NoError(t, err)
	defer func() { _ = db.RemoveTable(block) }()

	assert.Equal(t, scanInts(t, db, nested, "id"), scanInts(t, db, block, "id"))
	assert.Equal(t, scanInts(t, db, nested, "age"), scanInts(t, db, block, "age"))
}

func TestNaturalJoinNoCommonFieldErrors(t *testing.T) {
	db := newTestDB(t)
	left := createTable(t, db, "a", catalog.Field{Name: "x", Type: catalog.FieldInt, Len: 4})
	right := createTable(t, db, "b", catalog.Field{Name: "y", Type: catalog.FieldInt, Len: 4})

	_, err := NaturalJoin(db, left, right, NestedLoop)
	assert.Error(t, err)
}
