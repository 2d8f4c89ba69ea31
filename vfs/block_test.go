package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockAddress(fs *Filesystem, blockPtr BlockPtr) VolumePtr {
	return BlockPtrToVolumePtr(fs.Superblock, blockPtr)
}

func TestBlockAddressResolution(t *testing.T) {
	fs := PrepareFS(t, 32, 96)
	inode := Inode{Mode: ModeRegular}

	// Test direct pointers
	for i := int64(0); i < DirectPtrCount; i++ {
		address, err := fs.BlockAddress(&inode, i*BlockSize, true)
		require.NoError(t, err)
		assert.Equal(t, blockAddress(fs, BlockPtr(i)), address, "direct block %d", i)
	}

	// The indirect block is taken before the first block it points to
	address, err := fs.BlockAddress(&inode, DirectPtrCount*BlockSize+17, true)
	require.NoError(t, err)
	assert.Equal(t, blockAddress(fs, DirectPtrCount), inode.Blocks[IndirectSlot])
	assert.Equal(t, blockAddress(fs, DirectPtrCount+1), address)

	for i := int64(DirectPtrCount + 1); i < DirectPtrCount+PtrsPerBlock; i++ {
		address, err := fs.BlockAddress(&inode, i*BlockSize, true)
		require.NoError(t, err)
		assert.Equal(t, blockAddress(fs, BlockPtr(i+1)), address, "indirect block %d", i)
	}

	// Lookups without allocation see the same blocks
	for i := int64(0); i < DirectPtrCount+PtrsPerBlock; i++ {
		again, err := fs.BlockAddress(&inode, i*BlockSize+BlockSize-1, false)
		require.NoError(t, err)
		assert.NotEqual(t, Unused, again)
	}

	_, err = fs.BlockAddress(&inode, MaxFileSize, true)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestBlockAddressWithoutAllocation(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	inode := Inode{Mode: ModeRegular}

	address, err := fs.BlockAddress(&inode, 0, false)
	require.NoError(t, err)
	assert.Equal(t, Unused, address)

	address, err = fs.BlockAddress(&inode, 10*BlockSize, false)
	require.NoError(t, err)
	assert.Equal(t, Unused, address)
	assert.Equal(t, Unused, inode.Blocks[IndirectSlot])
	assert.Equal(t, int64(32), fs.DataBitmap.FreeCount())

	_, err = fs.BlockAddress(&inode, -1, false)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestBlockAddressRejectsForeignPointer(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	inode := Inode{Mode: ModeRegular}
	inode.Blocks[0] = fs.Superblock.InodesStartAddress

	_, err := fs.BlockAddress(&inode, 0, false)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestIndirectBlockReleasedWhenDataBlockMissing(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	inode := Inode{Mode: ModeRegular}

	for i := int64(0); i < DirectPtrCount; i++ {
		_, err := fs.BlockAddress(&inode, i*BlockSize, true)
		require.NoError(t, err)
	}

	// Leave exactly one block, enough for the indirect block only
	for fs.DataBitmap.FreeCount() > 1 {
		_, err := fs.AllocateBlock()
		require.NoError(t, err)
	}

	_, err := fs.BlockAddress(&inode, DirectPtrCount*BlockSize, true)
	assert.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, Unused, inode.Blocks[IndirectSlot])
	assert.Equal(t, int64(1), fs.DataBitmap.FreeCount())
}

func TestReleaseBlocks(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	inode := Inode{Mode: ModeRegular}

	for _, offset := range []int64{0, 3 * BlockSize, 9 * BlockSize} {
		address, err := fs.BlockAddress(&inode, offset, true)
		require.NoError(t, err)
		require.NoError(t, fs.Volume.WriteBytes(address, []byte("data")))
	}
	assert.Equal(t, int64(32-4), fs.DataBitmap.FreeCount())

	var visited []int64
	require.NoError(t, fs.ForEachBlock(inode, func(blockIndex int64, _ VolumePtr) (bool, error) {
		visited = append(visited, blockIndex)
		return true, nil
	}))
	assert.Equal(t, []int64{0, 3, 9}, visited)

	require.NoError(t, fs.ReleaseBlocks(&inode))
	assert.Equal(t, [BlockPtrCount]VolumePtr{}, inode.Blocks)
	assert.Equal(t, int64(32), fs.DataBitmap.FreeCount())

	// Released blocks come back zeroed
	address, err := fs.AllocateBlock()
	require.NoError(t, err)
	data := make([]byte, 4)
	require.NoError(t, fs.Volume.ReadBytes(address, data))
	assert.Equal(t, make([]byte, 4), data)
}

func TestInodeAllocation(t *testing.T) {
	fs := PrepareFS(t, 32, 32)

	inodePtr, err := fs.AllocateInode()
	require.NoError(t, err)
	assert.Equal(t, InodePtr(1), inodePtr)

	for i := 2; i < 32; i++ {
		_, err = fs.AllocateInode()
		require.NoError(t, err)
	}

	_, err = fs.AllocateInode()
	assert.ErrorIs(t, err, ErrNoSpace)

	require.NoError(t, fs.FreeInode(7))
	assert.False(t, fs.IsInodeUsed(7))

	inodePtr, err = fs.AllocateInode()
	require.NoError(t, err)
	assert.Equal(t, InodePtr(7), inodePtr)

	_, err = fs.ReadInode(32)
	assert.Error(t, err)
}
