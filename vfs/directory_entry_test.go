package vfs

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryEntryLayout(t *testing.T) {
	entry := NewDirectoryEntry("hello.txt", 5)
	assert.Equal(t, "hello.txt", entry.NameString())
	assert.False(t, entry.IsEmpty())
	assert.True(t, DirectoryEntry{InodePtr: 3}.IsEmpty())
	assert.Equal(t, 16, EntriesPerBlock)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("a"))
	assert.NoError(t, ValidateName(strings.Repeat("x", MaxNameLength)))

	assert.ErrorIs(t, ValidateName(strings.Repeat("x", MaxNameLength+1)), ErrNameTooLong)
	for _, name := range []string{"", ".", "..", "a/b", "a\x00b"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalid, "name %q", name)
	}
}

func TestAppendFindRemoveDirectoryEntry(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	root, err := LoadMutableInode(fs, RootInodePtr)
	require.NoError(t, err)

	require.NoError(t, AppendDirectoryEntry(fs, root, NewDirectoryEntry("first", 1)))
	require.NoError(t, AppendDirectoryEntry(fs, root, NewDirectoryEntry("second", 2)))
	require.NoError(t, root.Save(fs))
	assert.Equal(t, int64(BlockSize), root.Inode.Size)

	dePtr, entry, err := FindDirectoryEntryByName(fs, *root.Inode, "second")
	require.NoError(t, err)
	assert.Equal(t, int32(2), entry.InodePtr)
	assert.Equal(t, DEPtr(root.Inode.Blocks[0]+DirectoryEntrySize), dePtr)

	_, _, err = FindDirectoryEntryByName(fs, *root.Inode, "third")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, RemoveDirectoryEntry(fs, *root.Inode, "first"))
	_, _, err = FindDirectoryEntryByName(fs, *root.Inode, "first")
	assert.ErrorIs(t, err, ErrNotFound)

	// The freed slot is reused before anything after it
	require.NoError(t, AppendDirectoryEntry(fs, root, NewDirectoryEntry("third", 3)))
	dePtr, _, err = FindDirectoryEntryByName(fs, *root.Inode, "third")
	require.NoError(t, err)
	assert.Equal(t, DEPtr(root.Inode.Blocks[0]), dePtr)

	err = RemoveDirectoryEntry(fs, *root.Inode, "first")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryForInodeZeroIsFound(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	root, err := LoadMutableInode(fs, RootInodePtr)
	require.NoError(t, err)

	require.NoError(t, AppendDirectoryEntry(fs, root, NewDirectoryEntry("self", RootInodePtr)))

	_, entry, err := FindDirectoryEntryByName(fs, *root.Inode, "self")
	require.NoError(t, err)
	assert.Equal(t, int32(RootInodePtr), entry.InodePtr)

	empty, err := IsDirectoryEmpty(fs, *root.Inode)
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestDirectoryGrowsByBlock(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	root, err := LoadMutableInode(fs, RootInodePtr)
	require.NoError(t, err)

	for i := 0; i < EntriesPerBlock+1; i++ {
		require.NoError(t, AppendDirectoryEntry(fs, root, NewDirectoryEntry(fmt.Sprintf("f%02d", i), InodePtr(i+1))))
	}
	require.NoError(t, root.Save(fs))

	assert.Equal(t, int64(2*BlockSize), root.Inode.Size)
	assert.NotEqual(t, Unused, root.Inode.Blocks[1])
	assert.Equal(t, int64(30), fs.DataBitmap.FreeCount())

	entries, err := ReadAllDirectoryEntries(fs, *root.Inode)
	require.NoError(t, err)
	require.Len(t, entries, EntriesPerBlock+1)
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("f%02d", i), entry.NameString())
	}

	dePtr, _, err := FindDirectoryEntryByName(fs, *root.Inode, fmt.Sprintf("f%02d", EntriesPerBlock))
	require.NoError(t, err)
	assert.Equal(t, DEPtr(root.Inode.Blocks[1]), dePtr)
}

func TestIsDirectoryEmpty(t *testing.T) {
	fs := PrepareFS(t, 32, 32)
	root, err := LoadMutableInode(fs, RootInodePtr)
	require.NoError(t, err)

	empty, err := IsDirectoryEmpty(fs, *root.Inode)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, AppendDirectoryEntry(fs, root, NewDirectoryEntry("a", 1)))
	empty, err = IsDirectoryEmpty(fs, *root.Inode)
	require.NoError(t, err)
	assert.False(t, empty)

	// A block with only cleared slots still counts as empty
	require.NoError(t, RemoveDirectoryEntry(fs, *root.Inode, "a"))
	empty, err = IsDirectoryEmpty(fs, *root.Inode)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestDirectoryEntriesOfRegularFile(t *testing.T) {
	fs := PrepareFS(t, 32, 32)

	_, err := ReadAllDirectoryEntries(fs, Inode{Mode: ModeRegular})
	assert.ErrorIs(t, err, ErrNotDir)
}
