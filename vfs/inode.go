package vfs

import (
	"time"

	"golang.org/x/sys/unix"
)

const (
	// DirectPtrCount direct pointers are followed by one indirect pointer.
	DirectPtrCount = 6
	BlockPtrCount  = DirectPtrCount + 1
	IndirectSlot   = DirectPtrCount

	PtrsPerBlock = BlockSize / PtrSize

	MaxFileSize = (DirectPtrCount + PtrsPerBlock) * BlockSize

	// Unused marks an unallocated block pointer. Address 0 belongs to the
	// superblock, so no data block can live there.
	Unused VolumePtr = 0

	RootInodePtr InodePtr = 0
)

const (
	ModeTypeMask  = unix.S_IFMT
	ModeDirectory = unix.S_IFDIR
	ModeRegular   = unix.S_IFREG
	ModePermMask  = 0o7777
)

type Inode struct {
	Num    int32
	Mode   uint32
	Uid    uint32
	Gid    uint32
	Nlinks uint32
	Size   int64
	Atim   int64
	Mtim   int64
	Ctim   int64
	Blocks [BlockPtrCount]VolumePtr
}

func (i Inode) IsDir() bool {
	return i.Mode&ModeTypeMask == ModeDirectory
}

func (i Inode) IsRegular() bool {
	return i.Mode&ModeTypeMask == ModeRegular
}

// AllocatedBlocks is the size expressed in BlockSize units, rounded up.
func (i Inode) AllocatedBlocks() int64 {
	return (i.Size + BlockSize - 1) / BlockSize
}

type TimeField uint8

const (
	AccessTime TimeField = 1 << iota
	ModifyTime
	ChangeTime

	AllTimes = AccessTime | ModifyTime | ChangeTime
)

func (i *Inode) Touch(now time.Time, fields TimeField) {
	if fields&AccessTime != 0 {
		i.Atim = now.Unix()
	}
	if fields&ModifyTime != 0 {
		i.Mtim = now.Unix()
	}
	if fields&ChangeTime != 0 {
		i.Ctim = now.Unix()
	}
}

// MutableInode is a snapshot of an inode together with its number. Changes
// reach the volume only through Save.
type MutableInode struct {
	Inode    *Inode
	InodePtr InodePtr
}

func (mi MutableInode) Save(fs *Filesystem) error {
	return fs.WriteInode(mi.InodePtr, *mi.Inode)
}

func LoadMutableInode(fs *Filesystem, inodePtr InodePtr) (MutableInode, error) {
	inode, err := fs.ReadInode(inodePtr)
	if err != nil {
		return MutableInode{}, err
	}

	return MutableInode{
		Inode:    &inode,
		InodePtr: inodePtr,
	}, nil
}
