package pager

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// acquireDirLock takes an advisory exclusive lock on a sentinel file
// inside the system directory, guarding SetSystemDir's one-database-
// per-process invariant against a second process pointed at the same
// directory, so two accidental invocations fail loudly instead of
// corrupting each other's pages.
func acquireDirLock(dir string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(dir, ".blockdb.lock"), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func releaseDirLock(f *os.File) {
	if f == nil {
		return
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	_ = f.Close()
}
