package pager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Pager mediates between a bounded pool of buffer pages and an
// arbitrary number of block-aligned files. It guarantees that each
// block has at most one cached page, that pinned pages are not
// evicted while an unpinned alternative exists, and that dirty pages
// are flushed before their slot is reused or the pager shuts down.
type Pager struct {
	Log *log.Logger

	poolSize int
	maxFiles int

	systemDir string
	dirSet    bool
	lockFile  *os.File

	pages     []*Page
	freeSlots []int

	unpinned pageQueue
	pinned   pageQueue

	files map[string]*fileHandle

	profiler Profiler
}

// New creates a Pager with a pool of poolSize pages and a limit of
// maxFiles simultaneously open files. Call Init (or SetSystemDir,
// which calls Init for you) before use.
func New(poolSize, maxFiles int, logger *log.Logger) *Pager {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Pager{
		Log:      logger,
		poolSize: poolSize,
		maxFiles: maxFiles,
	}
}

// Init allocates the page pool, resets both LRU queues, and resets
// the profiler. Idempotent with Terminate.
func (pg *Pager) Init() {
	pg.pages = make([]*Page, pg.poolSize)
	pg.freeSlots = make([]int, 0, pg.poolSize)
	for i := 0; i < pg.poolSize; i++ {
		pg.pages[i] = newPage(i)
		pg.freeSlots = append(pg.freeSlots, i)
	}
	pg.unpinned = pageQueue{}
	pg.pinned = pageQueue{}
	pg.files = make(map[string]*fileHandle)
	pg.profiler.Reset()
}

// Terminate flushes every dirty page, closes every open file, and
// releases the pool. Safe to call after a partial Init, and safe to
// call more than once.
func (pg *Pager) Terminate() error {
	var firstErr error
	for _, fh := range pg.files {
		for _, p := range fh.cached {
			if p.dirty {
				if err := pg.writePage(p); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
		if err := fh.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	pg.files = nil
	pg.pages = nil
	pg.freeSlots = nil
	pg.unpinned = pageQueue{}
	pg.pinned = pageQueue{}
	if pg.lockFile != nil {
		releaseDirLock(pg.lockFile)
		pg.lockFile = nil
	}
	return firstErr
}

// SetSystemDir makes path the pager's working directory, creating it
// if necessary. It terminates any prior state and re-initializes.
// Calling it a second time is an error.
func (pg *Pager) SetSystemDir(path string) error {
	if pg.dirSet {
		return errors.New("pager: system directory already set")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	_ = pg.Terminate()

	lock, err := acquireDirLock(path)
	if err != nil {
		return err
	}

	pg.lockFile = lock
	pg.systemDir = path
	pg.dirSet = true
	pg.Init()
	return nil
}

// SystemDir returns the configured system directory.
func (pg *Pager) SystemDir() string {
	return pg.systemDir
}

// Profiler returns the pager's I/O profiler.
func (pg *Pager) Profiler() *Profiler {
	return &pg.profiler
}

// ProfilerReset zeroes the profiler's counters.
func (pg *Pager) ProfilerReset() {
	pg.profiler.Reset()
}

// NumBlocks returns the number of blocks currently allocated to
// fname, and whether fname is open at all.
func (pg *Pager) NumBlocks(fname string) (int, bool) {
	fh, ok := pg.files[fname]
	if !ok {
		return 0, false
	}
	return fh.numBlocks, true
}

func (pg *Pager) openFile(fname string) (*fileHandle, error) {
	if fh, ok := pg.files[fname]; ok {
		return fh, nil
	}
	if len(pg.files) >= pg.maxFiles {
		return nil, fmt.Errorf("pager: too many open files (max %d)", pg.maxFiles)
	}
	path := fname
	if pg.systemDir != "" {
		path = filepath.Join(pg.systemDir, fname)
	}
	fh, err := openFileHandle(path, fname)
	if err != nil {
		return nil, err
	}
	pg.files[fname] = fh
	return fh, nil
}

// CloseFile releases all cached blocks of fname and closes its
// descriptor.
func (pg *Pager) CloseFile(fname string) error {
	fh, ok := pg.files[fname]
	if !ok {
		return nil
	}
	var firstErr error
	for blk, p := range fh.cached {
		switch p.queue {
		case queuePinned:
			pg.pinned.Remove(p)
		case queueUnpinned:
			pg.unpinned.Remove(p)
		}
		if p.dirty {
			if err := pg.writePage(p); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		p.reset()
		p.queue = queueNone
		pg.freeSlots = append(pg.freeSlots, p.slot)
		delete(fh.cached, blk)
	}
	if err := fh.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	delete(pg.files, fname)
	return firstErr
}

// GetPage returns the page for block blk of fname, opening (and
// creating, if absent) the file on demand. blk == -1 means "the last
// block, or block 0 if the file is empty"; blk == the file's current
// block count means "append a new block". The returned page is
// pinned with its cursor at PageHeaderSize.
func (pg *Pager) GetPage(fname string, blk int) (*Page, error) {
	fh, err := pg.openFile(fname)
	if err != nil {
		return nil, err
	}

	if blk == -1 {
		if fh.numBlocks == 0 {
			blk = 0
		} else {
			blk = fh.numBlocks - 1
		}
	}
	if blk < 0 || blk > fh.numBlocks {
		return nil, fmt.Errorf("pager: block %d out of range for %q (%d blocks)", blk, fname, fh.numBlocks)
	}

	p, err := pg.fetchPage(fh, blk)
	if err != nil {
		return nil, err
	}
	p.currentPos = PageHeaderSize
	return p, nil
}

// GetPageForAppend is GetPage(fname, -1) with the cursor positioned at
// freePos so the next put writes past existing data.
func (pg *Pager) GetPageForAppend(fname string) (*Page, error) {
	p, err := pg.GetPage(fname, -1)
	if err != nil {
		return nil, err
	}
	p.currentPos = p.freePos
	return p, nil
}

// GetNextPage returns the page for the next block of p's file,
// allocating one past the end if p is the last block.
func (pg *Pager) GetNextPage(p *Page) (*Page, error) {
	fh := p.blk.file
	return pg.GetPage(fh.name, p.blk.num+1)
}

// fetchPage returns the (possibly newly allocated) page for blk of
// fh, pinning it. Callers must have already range-checked blk.
func (pg *Pager) fetchPage(fh *fileHandle, blk int) (*Page, error) {
	if p, ok := fh.cached[blk]; ok {
		pg.pinPage(p)
		return p, nil
	}

	isNew := blk == fh.numBlocks

	p, err := pg.availablePage()
	if err != nil {
		return nil, err
	}
	p.reset()
	p.blk = block{file: fh, num: blk}
	p.valid = true
	fh.cached[blk] = p
	pg.pinPage(p)

	if isNew {
		fh.numBlocks++
		p.freePos = PageHeaderSize
		p.writeHeader()
		p.dirty = true
		return p, nil
	}

	if err := pg.readPage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// availablePage picks a slot for a new block: an unused slot if any
// exist, else the head of the unpinned queue, else (a deliberately
// weak fallback for a fully-pinned pool) the head of the pinned queue,
// force-unpinning it.
func (pg *Pager) availablePage() (*Page, error) {
	if n := len(pg.freeSlots); n > 0 {
		idx := pg.freeSlots[n-1]
		pg.freeSlots = pg.freeSlots[:n-1]
		return pg.pages[idx], nil
	}

	if victim := pg.unpinned.Head(); victim != nil {
		pg.unpinned.Remove(victim)
		if err := pg.releaseBlock(victim); err != nil {
			return nil, err
		}
		return victim, nil
	}

	if victim := pg.pinned.Head(); victim != nil {
		pg.Log.Warn("pager: pool fully pinned, force-unpinning a page to satisfy allocation")
		pg.pinned.Remove(victim)
		victim.pinned = false
		if err := pg.releaseBlock(victim); err != nil {
			return nil, err
		}
		return victim, nil
	}

	return nil, errors.New("pager: no available page slots")
}

// releaseBlock flushes p if dirty and detaches it from its file's
// cache so the slot can be reused.
func (pg *Pager) releaseBlock(p *Page) error {
	if p.valid && p.dirty {
		if err := pg.writePage(p); err != nil {
			return err
		}
	}
	if p.valid {
		delete(p.blk.file.cached, p.blk.num)
	}
	p.reset()
	p.queue = queueNone
	return nil
}

func (pg *Pager) pinPage(p *Page) {
	if p.queue == queuePinned {
		return
	}
	if p.queue == queueUnpinned {
		pg.unpinned.Remove(p)
	}
	p.pinned = true
	p.queue = queuePinned
	pg.pinned.PushTail(p)
}

// Pin is the low-level form of GetPage: find or allocate a page for
// blk of fname, mark it pinned, and read it.
func (pg *Pager) Pin(fname string, blk int) (*Page, error) {
	return pg.GetPage(fname, blk)
}

// Unpin clears p's pinned flag and moves it to the unpinned queue,
// flushing it first if dirty.
func (pg *Pager) Unpin(p *Page) error {
	if !p.pinned {
		return nil
	}
	pg.pinned.Remove(p)
	p.pinned = false
	p.queue = queueUnpinned
	pg.unpinned.PushTail(p)
	if p.dirty {
		return pg.writePage(p)
	}
	return nil
}

// ReadPage explicitly (re)reads a page's block from disk. A no-op if
// the page is already dirty, since the in-memory copy is then
// authoritative.
func (pg *Pager) ReadPage(p *Page) error {
	return pg.readPage(p)
}

func (pg *Pager) readPage(p *Page) error {
	if p.dirty {
		return nil
	}
	fh := p.blk.file
	off := int64(p.blk.num) * BlockSize
	n, err := fh.fd.ReadAt(p.buf[:], off)
	pg.profiler.recordRead(fh.name, p.blk.num)
	if err != nil && n == 0 {
		// Freshly allocated block with nothing on disk yet.
		p.freePos = PageHeaderSize
		p.writeHeader()
		return nil
	}
	if err != nil {
		return err
	}

	p.readHeader()
	if marker := p.headerMarker(); marker != PageHeaderSize {
		pg.Log.Fatalf("pager: corrupt block header in %s block %d: got %d, want %d", fh.name, p.blk.num, marker, PageHeaderSize)
	}
	return nil
}

// WritePage explicitly flushes a page's bytes to disk.
func (pg *Pager) WritePage(p *Page) error {
	return pg.writePage(p)
}

func (pg *Pager) writePage(p *Page) error {
	fh := p.blk.file
	p.writeHeader()
	off := int64(p.blk.num) * BlockSize
	if _, err := fh.fd.WriteAt(p.buf[:], off); err != nil {
		return err
	}
	pg.profiler.recordWrite(fh.name, p.blk.num)
	p.dirty = false
	return nil
}
