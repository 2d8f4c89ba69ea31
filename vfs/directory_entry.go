package vfs

import (
	"strings"

	"github.com/pkg/errors"
)

// DEPtr is the volume address of a directory entry slot.
type DEPtr VolumePtr

const (
	DirectoryEntryNameLength = 28
	MaxNameLength            = DirectoryEntryNameLength - 1
	DirectoryEntrySize       = 32
	EntriesPerBlock          = BlockSize / DirectoryEntrySize
)

// DirectoryEntry is a fixed-size record in a directory block. A slot is empty
// when its name is empty; the inode number carries no such meaning, so inode
// 0 can be referenced like any other.
type DirectoryEntry struct {
	Name     [DirectoryEntryNameLength]byte
	InodePtr int32
}

func NewDirectoryEntry(name string, inodePtr InodePtr) DirectoryEntry {
	return DirectoryEntry{
		Name:     StringNameToBytes(name),
		InodePtr: int32(inodePtr),
	}
}

func (d DirectoryEntry) IsEmpty() bool {
	return d.Name[0] == 0
}

func (d DirectoryEntry) NameString() string {
	return CToGoString(d.Name[:])
}

func StringNameToBytes(name string) [DirectoryEntryNameLength]byte {
	var nameBytes [DirectoryEntryNameLength]byte
	copy(nameBytes[:MaxNameLength], name)
	return nameBytes
}

// ValidateName rejects names that cannot be stored in a directory entry.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return errors.Wrapf(ErrInvalid, "invalid file name %q", name)
	}

	if len(name) > MaxNameLength {
		return errors.Wrapf(ErrNameTooLong, "name %q is longer than %d bytes", name, MaxNameLength)
	}

	return nil
}

func entryAddress(blockAddress VolumePtr, slot int) DEPtr {
	return DEPtr(blockAddress + VolumePtr(slot*DirectoryEntrySize))
}

func readDirectoryEntry(fs *Filesystem, dePtr DEPtr) (DirectoryEntry, error) {
	var entry DirectoryEntry
	err := fs.Volume.ReadStruct(VolumePtr(dePtr), &entry)
	return entry, err
}

func writeDirectoryEntry(fs *Filesystem, dePtr DEPtr, entry DirectoryEntry) error {
	return fs.Volume.WriteStruct(VolumePtr(dePtr), &entry)
}

// forEachDirectoryEntry visits every slot of every allocated block of dir, in
// block pointer order and then slot order, empty slots included.
func forEachDirectoryEntry(fs *Filesystem, dir Inode, fn func(DEPtr, DirectoryEntry) (bool, error)) error {
	if !dir.IsDir() {
		return ErrNotDir
	}

	return fs.ForEachBlock(dir, func(_ int64, address VolumePtr) (bool, error) {
		for slot := 0; slot < EntriesPerBlock; slot++ {
			dePtr := entryAddress(address, slot)
			entry, err := readDirectoryEntry(fs, dePtr)
			if err != nil {
				return false, err
			}

			next, err := fn(dePtr, entry)
			if err != nil || !next {
				return false, err
			}
		}

		return true, nil
	})
}

func ReadAllDirectoryEntries(fs *Filesystem, dir Inode) ([]DirectoryEntry, error) {
	directoryEntries := make([]DirectoryEntry, 0)
	err := forEachDirectoryEntry(fs, dir, func(_ DEPtr, entry DirectoryEntry) (bool, error) {
		if !entry.IsEmpty() {
			directoryEntries = append(directoryEntries, entry)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return directoryEntries, nil
}

// FindDirectoryEntryByName returns the first live entry called name.
func FindDirectoryEntryByName(fs *Filesystem, dir Inode, name string) (DEPtr, DirectoryEntry, error) {
	nameBytes := StringNameToBytes(name)

	var (
		found      bool
		foundPtr   DEPtr
		foundEntry DirectoryEntry
	)
	err := forEachDirectoryEntry(fs, dir, func(dePtr DEPtr, entry DirectoryEntry) (bool, error) {
		if !entry.IsEmpty() && entry.Name == nameBytes {
			found, foundPtr, foundEntry = true, dePtr, entry
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return 0, DirectoryEntry{}, err
	}

	if !found || len(name) > MaxNameLength {
		return 0, DirectoryEntry{}, DirectoryEntryNotFound{name}
	}

	return foundPtr, foundEntry, nil
}

// AppendDirectoryEntry stores entry in the first empty slot of dir, growing
// dir by one block when every slot is taken. dir is updated in place and has
// to be saved by the caller.
func AppendDirectoryEntry(fs *Filesystem, dir MutableInode, entry DirectoryEntry) error {
	var (
		free    bool
		freePtr DEPtr
	)
	err := forEachDirectoryEntry(fs, *dir.Inode, func(dePtr DEPtr, e DirectoryEntry) (bool, error) {
		if e.IsEmpty() {
			free, freePtr = true, dePtr
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	if !free {
		address, err := fs.BlockAddress(dir.Inode, dir.Inode.Size, true)
		if errors.Is(err, ErrFileTooLarge) {
			return errors.Wrapf(ErrNoSpace, "directory %d has no free block pointer", dir.InodePtr)
		}
		if err != nil {
			return err
		}

		dir.Inode.Size += BlockSize
		freePtr = entryAddress(address, 0)
	}

	return writeDirectoryEntry(fs, freePtr, entry)
}

func RemoveDirectoryEntry(fs *Filesystem, dir Inode, name string) error {
	dePtr, _, err := FindDirectoryEntryByName(fs, dir, name)
	if err != nil {
		return err
	}

	return writeDirectoryEntry(fs, dePtr, DirectoryEntry{})
}

func IsDirectoryEmpty(fs *Filesystem, dir Inode) (bool, error) {
	empty := true
	err := forEachDirectoryEntry(fs, dir, func(_ DEPtr, entry DirectoryEntry) (bool, error) {
		if !entry.IsEmpty() {
			empty = false
			return false, nil
		}
		return true, nil
	})

	return empty, err
}
