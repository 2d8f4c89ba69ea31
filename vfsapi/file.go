package vfsapi

import (
	"io"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/pkg/errors"
)

// File is a path bound to a filesystem. Every call resolves the path again,
// so a File never holds on to inode state.
type File struct {
	filesystem *vfs.Filesystem
	path       string
}

var (
	_ io.ReaderAt = File{}
	_ io.WriterAt = File{}
)

func Open(fs *vfs.Filesystem, path string) (File, error) {
	_, _, err := Resolve(fs, path)
	if err != nil {
		return File{}, err
	}

	return File{
		filesystem: fs,
		path:       path,
	}, nil
}

func (f File) Path() string {
	return f.path
}

func (f File) Stat() (Stat, error) {
	return Getattr(f.filesystem, f.path)
}

func (f File) ReadAt(p []byte, off int64) (int, error) {
	n, err := Read(f.filesystem, f.path, p, off)
	if err != nil {
		return n, err
	}

	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (f File) WriteAt(p []byte, off int64) (int, error) {
	n, err := Write(f.filesystem, f.path, p, off)
	if err != nil {
		return n, err
	}

	if n < len(p) {
		return n, shortWriteCause(off + int64(n))
	}

	return n, nil
}

// shortWriteCause tells why a write stopped at end: the pointer capacity
// of the file, or the free blocks of the volume.
func shortWriteCause(end int64) error {
	if end >= vfs.MaxFileSize {
		return errors.Wrapf(vfs.ErrFileTooLarge, "write stopped at maximal file size %d", vfs.MaxFileSize)
	}

	return errors.Wrapf(vfs.ErrNoSpace, "write stopped at offset %d", end)
}

// Reader returns a reader over the whole file as it is sized now.
func (f File) Reader() (*io.SectionReader, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return io.NewSectionReader(f, 0, stat.Size), nil
}

func (f File) ReadDir() ([]FileInfo, error) {
	return Readdir(f.filesystem, f.path)
}
