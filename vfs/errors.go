package vfs

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	ErrNotFound     = errors.New("no such file or directory")
	ErrExists       = errors.New("file exists")
	ErrNotEmpty     = errors.New("directory not empty")
	ErrNoSpace      = errors.New("no space left on volume")
	ErrInvalid      = errors.New("invalid argument")
	ErrNotDir       = errors.New("not a directory")
	ErrIsDir        = errors.New("is a directory")
	ErrNameTooLong  = errors.New("file name too long")
	ErrFileTooLarge = errors.New("file too large")
	ErrCorrupt      = errors.New("corrupted volume")
)

type OutOfRange struct {
	index    VolumePtr
	maxIndex VolumePtr
}

func (o OutOfRange) Error() string {
	return fmt.Sprintf("index out of range [%d], maximal index is [%d]", o.index, o.maxIndex)
}

func (o OutOfRange) Unwrap() error {
	return ErrCorrupt
}

type DirectoryEntryNotFound struct {
	Name string
}

func (d DirectoryEntryNotFound) Error() string {
	return fmt.Sprintf("directory entry with name %s was not found", d.Name)
}

func (d DirectoryEntryNotFound) Unwrap() error {
	return ErrNotFound
}

type DuplicateDirectoryEntry struct {
	Name string
}

func (d DuplicateDirectoryEntry) Error() string {
	return fmt.Sprintf("directory entry with name %s already exists", d.Name)
}

func (d DuplicateDirectoryEntry) Unwrap() error {
	return ErrExists
}

type DirectoryIsNotEmpty struct {
	Name string
}

func (d DirectoryIsNotEmpty) Error() string {
	return fmt.Sprintf("directory %s is not empty", d.Name)
}

func (d DirectoryIsNotEmpty) Unwrap() error {
	return ErrNotEmpty
}

var errnos = []struct {
	err   error
	errno unix.Errno
}{
	{ErrNotFound, unix.ENOENT},
	{ErrExists, unix.EEXIST},
	{ErrNotEmpty, unix.ENOTEMPTY},
	{ErrNoSpace, unix.ENOSPC},
	{ErrNotDir, unix.ENOTDIR},
	{ErrIsDir, unix.EISDIR},
	{ErrNameTooLong, unix.ENAMETOOLONG},
	{ErrFileTooLarge, unix.EFBIG},
	{ErrInvalid, unix.EINVAL},
}

// Errno translates an error returned by the filesystem into the errno a
// dispatch layer reports back to the caller. Unknown errors map to EIO.
func Errno(err error) unix.Errno {
	if err == nil {
		return 0
	}

	for _, e := range errnos {
		if errors.Is(err, e.err) {
			return e.errno
		}
	}

	return unix.EIO
}
