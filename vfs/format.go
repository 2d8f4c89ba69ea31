package vfs

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

type FormatOptions struct {
	Uid uint32
	Gid uint32
	Now time.Time
}

func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		Uid: uint32(os.Getuid()),
		Gid: uint32(os.Getgid()),
		Now: time.Now(),
	}
}

// FormatSize is the smallest volume that holds the given capacities.
func FormatSize(inodeCount, dataBlockCount uint64) VolumePtr {
	return NewPreparedSuperblock(inodeCount, dataBlockCount).TotalSize()
}

// Format writes an empty filesystem to volume: superblock, cleared bitmaps
// and inode table, and the root directory at inode 0.
func Format(volume *Volume, inodeCount, dataBlockCount uint64, opts FormatOptions) (Superblock, error) {
	if inodeCount == 0 || dataBlockCount == 0 {
		return Superblock{}, errors.Wrap(ErrInvalid, "capacities must be positive")
	}

	sb := NewPreparedSuperblock(inodeCount, dataBlockCount)
	if sb.TotalSize() > volume.Size() {
		return Superblock{}, errors.Wrapf(ErrNoSpace, "volume has %d bytes, layout needs %d", volume.Size(), sb.TotalSize())
	}

	// Everything up to the data region is metadata
	err := volume.Zero(0, int(sb.DataStartAddress))
	if err != nil {
		return Superblock{}, err
	}

	err = volume.WriteStruct(0, &sb)
	if err != nil {
		return Superblock{}, err
	}

	root := Inode{
		Num:    int32(RootInodePtr),
		Mode:   ModeDirectory | 0o755,
		Uid:    opts.Uid,
		Gid:    opts.Gid,
		Nlinks: 2,
	}
	root.Touch(opts.Now, AllTimes)

	err = volume.WriteStruct(InodePtrToVolumePtr(sb, RootInodePtr), &root)
	if err != nil {
		return Superblock{}, err
	}

	inodeBits, err := volume.Slice(sb.InodeBitmapStartAddress, int(NeededMemoryForBitmap(int64(sb.InodeCount))))
	if err != nil {
		return Superblock{}, err
	}
	inodeBitmap, err := BitmapView(inodeBits, int64(sb.InodeCount))
	if err != nil {
		return Superblock{}, err
	}

	err = inodeBitmap.SetBit(int64(RootInodePtr), 1)
	if err != nil {
		return Superblock{}, err
	}

	return sb, nil
}
