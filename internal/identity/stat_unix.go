//go:build unix

package identity

import (
	"os"

	"golang.org/x/sys/unix"
)

// Stat returns identity info for path, following symlinks.
func Stat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Info{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return infoFromStat(&st), nil
}

// Lstat returns identity info for path without following symlinks.
func Lstat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Info{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	return infoFromStat(&st), nil
}

func infoFromStat(st *unix.Stat_t) Info {
	mode := uint32(st.Mode) & unix.S_IFMT
	return Info{
		Key: Key{
			Device: uint64(st.Dev),
			Inode:  uint64(st.Ino),
		},
		Regular: mode == unix.S_IFREG,
		Dir:     mode == unix.S_IFDIR,
		Symlink: mode == unix.S_IFLNK,
		Links:   uint64(st.Nlink),
	}
}

// IsRegular reports whether path resolves to an existing regular file.
// Symlinks are followed.
func IsRegular(path string) bool {
	info, err := Stat(path)
	return err == nil && info.Regular
}

// IsRegularNoFollow reports whether path itself is a regular file.
func IsRegularNoFollow(path string) bool {
	info, err := Lstat(path)
	return err == nil && info.Regular
}
