package difftest

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/arjenvanzwam/blockdb/internal/catalog"
	"github.com/arjenvanzwam/blockdb/internal/operator"
)

type DiffTestSuite struct {
	suite.Suite
	h *Harness
}

func (s *DiffTestSuite) SetupTest() {
	h, err := New(s.T().TempDir())
	s.Require().NoError(err)
	s.h = h
}

func (s *DiffTestSuite) TearDownTest() {
	s.NoError(s.h.Close())
}

func TestDiffTestSuite(t *testing.T) {
	suite.Run(t, new(DiffTestSuite))
}

func (s *DiffTestSuite) TestSelectAllAgreesWithSQLite() {
	s.Require().NoError(s.h.CreateTable("people", []FieldSpec{
		{Name: "id", Type: catalog.FieldInt},
		{Name: "name", Type: catalog.FieldStr, Len: 8},
	}))
	s.Require().NoError(s.h.Insert("people", 1, "ann"))
	s.Require().NoError(s.h.Insert("people", 2, "bob"))

	diff, err := s.h.DiffSelectAll("people")
	s.Require().NoError(err)
	s.Empty(diff, "block engine and sqlite should agree on the row set")
}

func (s *DiffTestSuite) TestNaturalJoinAgreesWithSQLiteNestedLoop() {
	s.Require().NoError(s.h.CreateTable("people", []FieldSpec{
		{Name: "id", Type: catalog.FieldInt},
		{Name: "name", Type: catalog.FieldStr, Len: 8},
	}))
	s.Require().NoError(s.h.CreateTable("ages", []FieldSpec{
		{Name: "id", Type: catalog.FieldInt},
		{Name: "age", Type: catalog.FieldInt},
	}))
	s.Require().NoError(s.h.Insert("people", 1, "ann"))
	s.Require().NoError(s.h.Insert("people", 2, "bob"))
	s.Require().NoError(s.h.Insert("ages", 1, 30))
	s.Require().NoError(s.h.Insert("ages", 2, 40))

	diff, err := s.h.DiffNaturalJoin("people", "ages", operator.NestedLoop)
	s.Require().NoError(err)
	s.Empty(diff)
}

func (s *DiffTestSuite) TestNaturalJoinAgreesWithSQLiteBlockNestedLoop() {
	s.Require().NoError(s.h.CreateTable("people", []FieldSpec{
		{Name: "id", Type: catalog.FieldInt},
		{Name: "name", Type: catalog.FieldStr, Len: 8},
	}))
	s.Require().NoError(s.h.CreateTable("ages", []FieldSpec{
		{Name: "id", Type: catalog.FieldInt},
		{Name: "age", Type: catalog.FieldInt},
	}))
	s.Require().NoError(s.h.Insert("people", 1, "ann"))
	s.Require().NoError(s.h.Insert("people", 2, "bob"))
	s.Require().NoError(s.h.Insert("ages", 1, 30))
	s.Require().NoError(s.h.Insert("ages", 2, 40))

	diff, err := s.h.DiffNaturalJoin("people", "ages", operator.BlockNestedLoop)
	s.Require().NoError(err)
	s.Empty(diff)
}
