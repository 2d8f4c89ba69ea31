package vfs

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	BlockSize = 512

	// PtrSize is the on-disk width of a block pointer.
	PtrSize = 8

	// CapacityAlignment is the granularity inode and block counts are rounded to.
	CapacityAlignment = 32
)

// Superblock sits at the start of the volume and is never moved after format.
type Superblock struct {
	InodeCount              uint64
	DataBlockCount          uint64
	InodeBitmapStartAddress VolumePtr
	DataBitmapStartAddress  VolumePtr
	InodesStartAddress      VolumePtr
	DataStartAddress        VolumePtr
}

func roundUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}

// NewPreparedSuperblock computes the layout for a volume with the given
// capacities, both rounded up to CapacityAlignment.
func NewPreparedSuperblock(inodeCount, dataBlockCount uint64) Superblock {
	inodeCount = uint64(roundUp(int64(inodeCount), CapacityAlignment))
	dataBlockCount = uint64(roundUp(int64(dataBlockCount), CapacityAlignment))

	s := Superblock{
		InodeCount:     inodeCount,
		DataBlockCount: dataBlockCount,
	}

	// The inode bitmap takes whole blocks, the data bitmap follows directly
	s.InodeBitmapStartAddress = BlockSize
	s.DataBitmapStartAddress = s.InodeBitmapStartAddress + VolumePtr(roundUp(int64(NeededMemoryForBitmap(int64(inodeCount))), BlockSize))
	s.InodesStartAddress = VolumePtr(roundUp(int64(s.DataBitmapStartAddress+NeededMemoryForBitmap(int64(dataBlockCount))), BlockSize))
	s.DataStartAddress = s.InodesStartAddress + VolumePtr(inodeCount)*BlockSize

	return s
}

// TotalSize is the number of bytes the layout occupies.
func (s Superblock) TotalSize() VolumePtr {
	return s.DataStartAddress + VolumePtr(s.DataBlockCount)*BlockSize
}

func (s Superblock) Validate(volumeSize VolumePtr) error {
	if s.InodeCount == 0 || s.DataBlockCount == 0 {
		return errors.Wrap(ErrCorrupt, "superblock has an empty region")
	}

	if binary.Size(s) > BlockSize ||
		s.InodeBitmapStartAddress < VolumePtr(binary.Size(s)) ||
		s.DataBitmapStartAddress <= s.InodeBitmapStartAddress ||
		s.InodesStartAddress <= s.DataBitmapStartAddress ||
		s.DataStartAddress <= s.InodesStartAddress {
		return errors.Wrap(ErrCorrupt, "superblock region offsets are not increasing")
	}

	if s.InodeBitmapStartAddress+NeededMemoryForBitmap(int64(s.InodeCount)) > s.DataBitmapStartAddress ||
		s.DataBitmapStartAddress+NeededMemoryForBitmap(int64(s.DataBlockCount)) > s.InodesStartAddress ||
		s.InodesStartAddress+VolumePtr(s.InodeCount)*BlockSize > s.DataStartAddress {
		return errors.Wrap(ErrCorrupt, "superblock regions overlap")
	}

	if s.TotalSize() > volumeSize {
		return errors.Wrapf(ErrCorrupt, "layout needs %d bytes, volume has %d", s.TotalSize(), volumeSize)
	}

	return nil
}
