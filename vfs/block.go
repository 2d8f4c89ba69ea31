package vfs

import (
	"github.com/pkg/errors"
)

func (fs *Filesystem) checkBlockAddress(address VolumePtr) error {
	if address == Unused {
		return nil
	}

	if _, ok := VolumePtrToBlockPtr(fs.Superblock, address); !ok {
		return errors.Wrapf(ErrCorrupt, "block pointer %d is outside the data region", address)
	}

	return nil
}

func indirectSlotAddress(indirect VolumePtr, index int64) VolumePtr {
	return indirect + VolumePtr(index)*PtrSize
}

// BlockAddress maps a byte offset within the file to the address of the data
// block holding it, or Unused when no block is allocated there. When allocate
// is set, missing blocks are allocated on the way, the indirect block
// included, and recorded in inode; the caller must save the inode.
//
// An indirect block allocated by this call is released again if the data
// block it was needed for cannot be allocated.
func (fs *Filesystem) BlockAddress(inode *Inode, offset int64, allocate bool) (VolumePtr, error) {
	if offset < 0 {
		return Unused, errors.Wrapf(ErrInvalid, "negative offset %d", offset)
	}

	blockIndex := offset / BlockSize

	if blockIndex < DirectPtrCount {
		address := inode.Blocks[blockIndex]
		if address == Unused && allocate {
			address, err := fs.AllocateBlock()
			if err != nil {
				return Unused, err
			}
			inode.Blocks[blockIndex] = address
			return address, nil
		}

		return address, fs.checkBlockAddress(address)
	}

	blockIndex -= DirectPtrCount
	if blockIndex >= PtrsPerBlock {
		return Unused, errors.Wrapf(ErrFileTooLarge, "offset %d exceeds maximal file size %d", offset, MaxFileSize)
	}

	indirect := inode.Blocks[IndirectSlot]
	freshIndirect := false
	if indirect == Unused {
		if !allocate {
			return Unused, nil
		}

		var err error
		indirect, err = fs.AllocateBlock()
		if err != nil {
			return Unused, err
		}
		inode.Blocks[IndirectSlot] = indirect
		freshIndirect = true
	} else if err := fs.checkBlockAddress(indirect); err != nil {
		return Unused, err
	}

	slot := indirectSlotAddress(indirect, blockIndex)
	address, err := fs.Volume.ReadPtr(slot)
	if err != nil {
		return Unused, err
	}

	if address != Unused {
		return address, fs.checkBlockAddress(address)
	}

	if !allocate {
		return Unused, nil
	}

	address, err = fs.AllocateBlock()
	if err != nil {
		if freshIndirect {
			inode.Blocks[IndirectSlot] = Unused
			if freeErr := fs.FreeBlock(indirect); freeErr != nil {
				return Unused, freeErr
			}
		}
		return Unused, err
	}

	err = fs.Volume.WritePtr(slot, address)
	if err != nil {
		return Unused, err
	}

	return address, nil
}

// ForEachBlock calls fn for every allocated data block of inode in pointer
// order: direct pointers first, then the slots of the indirect block. The
// indirect block itself is not reported. Iteration stops when fn returns
// false or an error.
func (fs *Filesystem) ForEachBlock(inode Inode, fn func(blockIndex int64, address VolumePtr) (bool, error)) error {
	for i := 0; i < DirectPtrCount; i++ {
		address := inode.Blocks[i]
		if address == Unused {
			continue
		}
		if err := fs.checkBlockAddress(address); err != nil {
			return err
		}

		next, err := fn(int64(i), address)
		if err != nil || !next {
			return err
		}
	}

	indirect := inode.Blocks[IndirectSlot]
	if indirect == Unused {
		return nil
	}
	if err := fs.checkBlockAddress(indirect); err != nil {
		return err
	}

	for i := int64(0); i < PtrsPerBlock; i++ {
		address, err := fs.Volume.ReadPtr(indirectSlotAddress(indirect, i))
		if err != nil {
			return err
		}
		if address == Unused {
			continue
		}
		if err := fs.checkBlockAddress(address); err != nil {
			return err
		}

		next, err := fn(DirectPtrCount+i, address)
		if err != nil || !next {
			return err
		}
	}

	return nil
}

// ReleaseBlocks frees every data block of inode, the indirect block last,
// and clears its pointer array.
func (fs *Filesystem) ReleaseBlocks(inode *Inode) error {
	err := fs.ForEachBlock(*inode, func(_ int64, address VolumePtr) (bool, error) {
		return true, fs.FreeBlock(address)
	})
	if err != nil {
		return err
	}

	if inode.Blocks[IndirectSlot] != Unused {
		err = fs.FreeBlock(inode.Blocks[IndirectSlot])
		if err != nil {
			return err
		}
	}

	inode.Blocks = [BlockPtrCount]VolumePtr{}

	return nil
}
