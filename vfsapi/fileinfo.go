package vfsapi

import (
	"time"

	"github.com/PapiCZ/kiv_wfs/vfs"
)

// Stat is the metadata record reported by Getattr.
type Stat struct {
	Ino    vfs.InodePtr
	Mode   uint32
	Nlink  uint32
	Uid    uint32
	Gid    uint32
	Size   int64
	Blocks int64
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
}

func (s Stat) IsDir() bool {
	return s.Mode&vfs.ModeTypeMask == vfs.ModeDirectory
}

func NewStat(inodePtr vfs.InodePtr, inode vfs.Inode) Stat {
	return Stat{
		Ino:    inodePtr,
		Mode:   inode.Mode,
		Nlink:  inode.Nlinks,
		Uid:    inode.Uid,
		Gid:    inode.Gid,
		Size:   inode.Size,
		Blocks: inode.AllocatedBlocks(),
		Atime:  time.Unix(inode.Atim, 0),
		Mtime:  time.Unix(inode.Mtim, 0),
		Ctime:  time.Unix(inode.Ctim, 0),
	}
}

// FileInfo describes one entry returned by Readdir.
type FileInfo struct {
	name     string
	inodePtr vfs.InodePtr
	size     int64
	isDir    bool
}

func (fi FileInfo) Name() string {
	return fi.name
}

func (fi FileInfo) Inode() vfs.InodePtr {
	return fi.inodePtr
}

func (fi FileInfo) Size() int64 {
	return fi.size
}

func (fi FileInfo) IsDir() bool {
	return fi.isDir
}
