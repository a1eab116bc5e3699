package catalog

import (
	"errors"
	"fmt"

	"github.com/arjenvanzwam/blockdb/internal/pager"
)

// SetTablePosition primes t's scan cursor: Beg positions it at block
// 0, offset PageHeaderSize; End positions it at the last block, at
// freePos (ready to append).
func (db *Database) SetTablePosition(t *Table, pos Position) error {
	var p *pager.Page
	var err error
	switch pos {
	case Beg:
		p, err = db.Pager.GetPage(t.Schema.Name, 0)
	case End:
		p, err = db.Pager.GetPageForAppend(t.Schema.Name)
	default:
		return fmt.Errorf("catalog: unknown position %v", pos)
	}
	if err != nil {
		return err
	}

	if t.curPage != nil && t.curPage != p {
		if err := db.Pager.Unpin(t.curPage); err != nil {
			return err
		}
	}
	t.curPage = p
	return nil
}

// validReadPos reports whether pos is a legal position to read a
// record from: within [PageHeaderSize, freePos) and aligned to a
// record boundary.
func validReadPos(p *pager.Page, recLen int) bool {
	pos := p.CurrentPos()
	if pos < pager.PageHeaderSize || pos >= p.FreePos() {
		return false
	}
	return (pos-pager.PageHeaderSize)%recLen == 0
}

// GetRecord reads the record at the table's current cursor and
// advances it, crossing into the next block when the current one is
// exhausted. Returns (nil, false, nil) at end-of-table.
func (db *Database) GetRecord(t *Table) (*Record, bool, error) {
	s := t.Schema
	if t.curPage == nil {
		if err := db.SetTablePosition(t, Beg); err != nil {
			return nil, false, err
		}
	}
	p := t.curPage

	if p.CurrentPos()+s.Len > p.FreePos() {
		total, ok := db.Pager.NumBlocks(s.Name)
		if !ok {
			return nil, false, fmt.Errorf("catalog: table file %q is not open", s.Name)
		}
		if p.BlockNum() >= total-1 {
			return nil, false, nil
		}
		next, err := db.Pager.GetNextPage(p)
		if err != nil {
			return nil, false, err
		}
		if err := db.Pager.Unpin(p); err != nil {
			return nil, false, err
		}
		next.SetCurrentPos(pager.PageHeaderSize)
		t.curPage = next
		p = next
		if p.CurrentPos()+s.Len > p.FreePos() {
			return nil, false, nil
		}
	}

	if !validReadPos(p, s.Len) {
		return nil, false, errors.New("catalog: record cursor is not aligned to a record boundary")
	}

	rec := readRecordAt(p, p.CurrentPos(), s)
	p.SetCurrentPos(p.CurrentPos() + s.Len)
	return rec, true, nil
}

// AppendRecord writes r at freePos of the table's last block,
// allocating a new block first if r doesn't fit in the remaining
// space, then updates the table's record count.
func (db *Database) AppendRecord(t *Table, r *Record) error {
	s := t.Schema
	if t.curPage != nil {
		if total, ok := db.Pager.NumBlocks(s.Name); !ok || t.curPage.BlockNum() != total-1 {
			if err := db.SetTablePosition(t, End); err != nil {
				return err
			}
		}
	}
	if t.curPage == nil {
		if err := db.SetTablePosition(t, End); err != nil {
			return err
		}
	}
	p := t.curPage

	if p.FreePos()+s.Len > pager.BlockSize {
		next, err := db.Pager.GetNextPage(p)
		if err != nil {
			return err
		}
		if err := db.Pager.Unpin(p); err != nil {
			return err
		}
		next.SetCurrentPos(next.FreePos())
		t.curPage = next
		p = next
	}

	if !writeRecordAt(p, p.FreePos(), r, s) {
		return fmt.Errorf("catalog: record does not fit in remaining block space for %q", s.Name)
	}
	t.NumRecords++
	return nil
}
