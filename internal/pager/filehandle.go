package pager

import "os"

// fileHandle is per-open-file state: the OS descriptor, the total
// block count, and the subset of that file's blocks currently cached
// in the pool (bounded by the pool's own size since a cached block
// always occupies one of the pager's N page slots).
type fileHandle struct {
	name      string
	path      string
	fd        *os.File
	numBlocks int

	cached map[int]*Page

	// currentBlock is a sequential-scan cursor slot. Nothing reads or
	// sets it: the catalog/record layer tracks its scan position through
	// the table's own pinned page instead.
	currentBlock int
}

func openFileHandle(path, name string) (*fileHandle, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	return &fileHandle{
		name:      name,
		path:      path,
		fd:        fd,
		numBlocks: int(info.Size() / BlockSize),
		cached:    make(map[int]*Page),
	}, nil
}

func (fh *fileHandle) close() error {
	return fh.fd.Close()
}
