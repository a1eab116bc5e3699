// Package pager implements the fixed-block buffer manager: a bounded
// pool of in-memory pages mirroring fixed-size blocks of on-disk table
// files, with LRU-based replacement and explicit pin/unpin discipline.
package pager

import "encoding/binary"

const (
	// BlockSize is the fixed size, in bytes, of every block on disk and
	// every cached page in memory.
	BlockSize = 512

	// PageHeaderSize is the size, in bytes, of the header at the front
	// of every block. Bytes [0:4) store PageHeaderSize itself as an
	// integrity marker; bytes [4:8) store freePos.
	PageHeaderSize = 20

	headerMarkerOffset = 0
	freePosOffset      = 4
)

// queueKind identifies which of the pager's two LRU queues currently
// holds a page.
type queueKind int

const (
	queueNone queueKind = iota
	queueUnpinned
	queuePinned
)

// block identifies a page's backing location: a block number within an
// open file.
type block struct {
	file *fileHandle
	num  int
}

// Page is one buffer pool slot: a block's bytes plus the bookkeeping
// the pager needs to pin, flush, and evict it.
type Page struct {
	slot int // index into Pager.pages

	blk   block
	valid bool // slot currently backs a real block

	buf [BlockSize]byte

	pinned     bool
	dirty      bool
	freePos    int
	currentPos int

	queue queueKind
	elem  *listElem // node in whichever queue currently holds this page
}

func newPage(slot int) *Page {
	return &Page{slot: slot}
}

// reset clears a slot's block association before it's reused for a
// different block.
func (p *Page) reset() {
	p.blk = block{}
	p.valid = false
	p.pinned = false
	p.dirty = false
	p.freePos = 0
	p.currentPos = 0
	for i := range p.buf {
		p.buf[i] = 0
	}
}

func (p *Page) readHeader() {
	p.freePos = int(binary.LittleEndian.Uint32(p.buf[freePosOffset : freePosOffset+4]))
}

func (p *Page) writeHeader() {
	binary.LittleEndian.PutUint32(p.buf[headerMarkerOffset:headerMarkerOffset+4], uint32(PageHeaderSize))
	binary.LittleEndian.PutUint32(p.buf[freePosOffset:freePosOffset+4], uint32(p.freePos))
}

func (p *Page) headerMarker() int {
	return int(binary.LittleEndian.Uint32(p.buf[headerMarkerOffset : headerMarkerOffset+4]))
}

// FileName returns the name of the file backing this page, for callers
// that need to address the page's block independent of the pager.
func (p *Page) FileName() string {
	if p.blk.file == nil {
		return ""
	}
	return p.blk.file.name
}

// BlockNum returns the block number this page currently caches.
func (p *Page) BlockNum() int {
	return p.blk.num
}

// Dirty reports whether the page has unflushed modifications.
func (p *Page) Dirty() bool {
	return p.dirty
}

// Pinned reports whether the page is currently pinned.
func (p *Page) Pinned() bool {
	return p.pinned
}
