package vfsapi

import (
	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/pkg/errors"
)

// StatFs summarizes both allocation pools.
type StatFs struct {
	BlockSize   int64
	Inodes      int64
	FreeInodes  int64
	Blocks      int64
	FreeBlocks  int64
	MaxFileSize int64
	MaxName     int
}

func Statfs(fs *vfs.Filesystem) StatFs {
	return StatFs{
		BlockSize:   vfs.BlockSize,
		Inodes:      fs.InodeBitmap.Len(),
		FreeInodes:  fs.InodeBitmap.FreeCount(),
		Blocks:      fs.DataBitmap.Len(),
		FreeBlocks:  fs.DataBitmap.FreeCount(),
		MaxFileSize: vfs.MaxFileSize,
		MaxName:     vfs.MaxNameLength,
	}
}

// FsCheck verifies that the bitmaps describe exactly the inodes reachable
// from the root and exactly the blocks those inodes reference.
func FsCheck(fs *vfs.Filesystem) error {
	inodePtrs := map[vfs.InodePtr]bool{vfs.RootInodePtr: true}
	err := readAllInodePtrsRecursively(fs, vfs.RootInodePtr, inodePtrs)
	if err != nil {
		return err
	}

	// Check all used inodes
	for i := int64(0); i < fs.InodeBitmap.Len(); i++ {
		used := fs.InodeBitmap.IsSet(i)
		_, ok := inodePtrs[vfs.InodePtr(i)]
		if !used && ok {
			return errors.Wrapf(vfs.ErrCorrupt, "inode %d is actively used by filesystem, but it is marked free", i)
		} else if used && !ok {
			return errors.Wrapf(vfs.ErrCorrupt, "found zombie inode %d that isn't used by filesystem", i)
		}
	}

	// Check all used data blocks
	blocks := make(map[vfs.VolumePtr]vfs.InodePtr)
	claim := func(owner vfs.InodePtr, address vfs.VolumePtr) error {
		if other, ok := blocks[address]; ok {
			return errors.Wrapf(vfs.ErrCorrupt, "block %d is shared by inodes %d and %d", address, other, owner)
		}
		blocks[address] = owner

		if !fs.IsBlockUsed(address) {
			return errors.Wrapf(vfs.ErrCorrupt, "block %d is used by inode %d, but it is marked free", address, owner)
		}
		return nil
	}

	for inodePtr := range inodePtrs {
		inode, err := fs.ReadInode(inodePtr)
		if err != nil {
			return err
		}

		if inode.Num != int32(inodePtr) {
			return errors.Wrapf(vfs.ErrCorrupt, "inode %d records number %d", inodePtr, inode.Num)
		}

		err = fs.ForEachBlock(inode, func(_ int64, address vfs.VolumePtr) (bool, error) {
			return true, claim(inodePtr, address)
		})
		if err != nil {
			return err
		}

		if inode.Blocks[vfs.IndirectSlot] != vfs.Unused {
			err = claim(inodePtr, inode.Blocks[vfs.IndirectSlot])
			if err != nil {
				return err
			}
		}
	}

	for i := int64(0); i < fs.DataBitmap.Len(); i++ {
		address := vfs.BlockPtrToVolumePtr(fs.Superblock, vfs.BlockPtr(i))
		if _, ok := blocks[address]; fs.DataBitmap.IsSet(i) && !ok {
			return errors.Wrapf(vfs.ErrCorrupt, "found leaked block %d that isn't used by any inode", address)
		}
	}

	return nil
}

func readAllInodePtrsRecursively(fs *vfs.Filesystem, inodePtr vfs.InodePtr, out map[vfs.InodePtr]bool) error {
	parent, err := fs.ReadInode(inodePtr)
	if err != nil {
		return err
	}

	directoryEntries, err := vfs.ReadAllDirectoryEntries(fs, parent)
	if err != nil {
		return err
	}

	for _, directoryEntry := range directoryEntries {
		entryPtr := vfs.InodePtr(directoryEntry.InodePtr)
		_, ok := out[entryPtr]
		if ok {
			return errors.Wrapf(vfs.ErrCorrupt, "inode %d is referenced twice", entryPtr)
		}

		out[entryPtr] = true

		// Check if directory entry is directory
		inode, err := fs.ReadInode(entryPtr)
		if err != nil {
			return err
		}

		if inode.IsDir() {
			err = readAllInodePtrsRecursively(fs, entryPtr, out)
			if err != nil {
				return err
			}
		}
	}

	return nil
}
