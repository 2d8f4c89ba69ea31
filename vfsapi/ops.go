package vfsapi

import (
	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func opLog(fs *vfs.Filesystem, op, path string) logrus.FieldLogger {
	log := fs.Log().WithFields(logrus.Fields{
		"op":   op,
		"path": path,
	})
	log.Debug("running")
	return log
}

func Getattr(fs *vfs.Filesystem, path string) (Stat, error) {
	opLog(fs, "getattr", path)

	_, target, err := Resolve(fs, path)
	if err != nil {
		return Stat{}, err
	}

	inode, err := fs.ReadInode(target)
	if err != nil {
		return Stat{}, err
	}

	return NewStat(target, inode), nil
}

// Create makes an empty regular file at path with the permission bits of mode.
func Create(fs *vfs.Filesystem, path string, mode uint32) error {
	opLog(fs, "create", path)

	_, err := createNode(fs, path, vfs.ModeRegular|mode&vfs.ModePermMask)
	return err
}

// Mknod accepts only regular files; mode may carry S_IFREG or no type bits.
func Mknod(fs *vfs.Filesystem, path string, mode uint32) error {
	opLog(fs, "mknod", path)

	fileType := mode & vfs.ModeTypeMask
	if fileType != 0 && fileType != vfs.ModeRegular {
		return errors.Wrapf(vfs.ErrInvalid, "unsupported file type %o", fileType)
	}

	_, err := createNode(fs, path, vfs.ModeRegular|mode&vfs.ModePermMask)
	return err
}

// Mkdir makes an empty directory. Like a file it starts with one link; only
// its own children raise the count.
func Mkdir(fs *vfs.Filesystem, path string, mode uint32) error {
	opLog(fs, "mkdir", path)

	_, err := createNode(fs, path, vfs.ModeDirectory|mode&vfs.ModePermMask)
	return err
}

func createNode(fs *vfs.Filesystem, path string, mode uint32) (vfs.InodePtr, error) {
	parentPath, name, err := SplitParent(path)
	if err != nil {
		return 0, err
	}

	err = vfs.ValidateName(name)
	if err != nil {
		return 0, err
	}

	_, parentPtr, err := Resolve(fs, parentPath)
	if err != nil {
		return 0, err
	}

	parent, err := vfs.LoadMutableInode(fs, parentPtr)
	if err != nil {
		return 0, err
	}

	if !parent.Inode.IsDir() {
		return 0, errors.Wrapf(vfs.ErrNotDir, "%s", parentPath)
	}

	_, _, err = vfs.FindDirectoryEntryByName(fs, *parent.Inode, name)
	if err == nil {
		return 0, vfs.DuplicateDirectoryEntry{Name: path}
	}
	if !errors.Is(err, vfs.ErrNotFound) {
		return 0, err
	}

	inodePtr, err := fs.AllocateInode()
	if err != nil {
		return 0, err
	}

	now := fs.Now()
	inode := vfs.Inode{
		Num:    int32(inodePtr),
		Mode:   mode,
		Uid:    fs.Uid,
		Gid:    fs.Gid,
		Nlinks: 1,
	}
	inode.Touch(now, vfs.AllTimes)

	err = fs.WriteInode(inodePtr, inode)
	if err != nil {
		return 0, err
	}

	err = vfs.AppendDirectoryEntry(fs, parent, vfs.NewDirectoryEntry(name, inodePtr))
	if err != nil {
		// The inode is still unreferenced, so give it back
		if freeErr := fs.FreeInode(inodePtr); freeErr != nil {
			return 0, freeErr
		}
		return 0, err
	}

	parent.Inode.Nlinks++
	parent.Inode.Touch(now, vfs.ModifyTime|vfs.ChangeTime)
	err = parent.Save(fs)
	if err != nil {
		return 0, err
	}

	return inodePtr, nil
}

// releaseInode frees the data blocks and the inode itself.
func releaseInode(fs *vfs.Filesystem, mi vfs.MutableInode) error {
	err := fs.ReleaseBlocks(mi.Inode)
	if err != nil {
		return err
	}

	return fs.FreeInode(mi.InodePtr)
}

func detachFromParent(fs *vfs.Filesystem, parentPtr vfs.InodePtr, name string) error {
	parent, err := vfs.LoadMutableInode(fs, parentPtr)
	if err != nil {
		return err
	}

	err = vfs.RemoveDirectoryEntry(fs, *parent.Inode, name)
	if err != nil {
		return err
	}

	if parent.Inode.Nlinks > 0 {
		parent.Inode.Nlinks--
	}
	parent.Inode.Touch(fs.Now(), vfs.ModifyTime|vfs.ChangeTime)

	return parent.Save(fs)
}

func Unlink(fs *vfs.Filesystem, path string) error {
	opLog(fs, "unlink", path)

	parentPtr, targetPtr, err := Resolve(fs, path)
	if err != nil {
		return err
	}

	_, name, err := SplitParent(path)
	if err != nil {
		return err
	}

	target, err := vfs.LoadMutableInode(fs, targetPtr)
	if err != nil {
		return err
	}

	if target.Inode.IsDir() {
		return errors.Wrapf(vfs.ErrIsDir, "%s", path)
	}

	err = detachFromParent(fs, parentPtr, name)
	if err != nil {
		return err
	}

	if target.Inode.Nlinks > 0 {
		target.Inode.Nlinks--
	}

	if target.Inode.Nlinks == 0 {
		return releaseInode(fs, target)
	}

	target.Inode.Touch(fs.Now(), vfs.ChangeTime)
	return target.Save(fs)
}

func Rmdir(fs *vfs.Filesystem, path string) error {
	opLog(fs, "rmdir", path)

	parentPtr, targetPtr, err := Resolve(fs, path)
	if err != nil {
		return err
	}

	if targetPtr == vfs.RootInodePtr {
		return errors.Wrap(vfs.ErrInvalid, "cannot remove the root directory")
	}

	_, name, err := SplitParent(path)
	if err != nil {
		return err
	}

	target, err := vfs.LoadMutableInode(fs, targetPtr)
	if err != nil {
		return err
	}

	if !target.Inode.IsDir() {
		return errors.Wrapf(vfs.ErrNotDir, "%s", path)
	}

	empty, err := vfs.IsDirectoryEmpty(fs, *target.Inode)
	if err != nil {
		return err
	}

	if !empty {
		return vfs.DirectoryIsNotEmpty{Name: path}
	}

	err = releaseInode(fs, target)
	if err != nil {
		return err
	}

	return detachFromParent(fs, parentPtr, name)
}

// Read copies file contents starting at offset into buf and returns the
// number of bytes copied. Zero bytes at or past end of file is not an error.
func Read(fs *vfs.Filesystem, path string, buf []byte, offset int64) (int, error) {
	opLog(fs, "read", path)

	mi, err := GetInodeByPath(fs, path)
	if err != nil {
		return 0, err
	}
	inode := mi.Inode

	if inode.IsDir() {
		return 0, errors.Wrapf(vfs.ErrIsDir, "%s", path)
	}

	if offset < 0 {
		return 0, errors.Wrapf(vfs.ErrInvalid, "negative offset %d", offset)
	}

	length := int64(len(buf))
	if remaining := inode.Size - offset; remaining < length {
		length = max(remaining, 0)
	}

	copied := int64(0)
	for copied < length {
		position := offset + copied
		address, err := fs.BlockAddress(inode, position, false)
		if err != nil {
			return int(copied), err
		}

		inBlock := position % vfs.BlockSize
		chunk := min(vfs.BlockSize-inBlock, length-copied)
		dst := buf[copied : copied+chunk]

		if address == vfs.Unused {
			// Hole
			clear(dst)
		} else {
			err = fs.Volume.ReadBytes(address+vfs.VolumePtr(inBlock), dst)
			if err != nil {
				return int(copied), err
			}
		}

		copied += chunk
	}

	inode.Touch(fs.Now(), vfs.AccessTime)
	err = mi.Save(fs)
	if err != nil {
		return int(copied), err
	}

	return int(copied), nil
}

// Write stores data at offset, allocating blocks as needed. When the volume
// runs out of blocks, or the file reaches its maximal size, midway, the bytes
// written so far are kept and their count is returned without an error.
// Callers must compare the count with len(data).
func Write(fs *vfs.Filesystem, path string, data []byte, offset int64) (int, error) {
	log := opLog(fs, "write", path)

	mi, err := GetInodeByPath(fs, path)
	if err != nil {
		return 0, err
	}
	inode := mi.Inode

	if inode.IsDir() {
		return 0, errors.Wrapf(vfs.ErrIsDir, "%s", path)
	}

	if offset < 0 {
		return 0, errors.Wrapf(vfs.ErrInvalid, "negative offset %d", offset)
	}

	if len(data) == 0 {
		return 0, nil
	}

	var stopErr error
	written := int64(0)
	for written < int64(len(data)) {
		position := offset + written
		address, err := fs.BlockAddress(inode, position, true)
		if errors.Is(err, vfs.ErrNoSpace) || errors.Is(err, vfs.ErrFileTooLarge) {
			stopErr = err
			break
		}
		if err != nil {
			return int(written), saveAfterFailure(fs, mi, err)
		}

		inBlock := position % vfs.BlockSize
		chunk := min(vfs.BlockSize-inBlock, int64(len(data))-written)
		err = fs.Volume.WriteBytes(address+vfs.VolumePtr(inBlock), data[written:written+chunk])
		if err != nil {
			return int(written), saveAfterFailure(fs, mi, err)
		}

		written += chunk
	}

	if written > 0 {
		inode.Size = max(inode.Size, offset+written)
		inode.Touch(fs.Now(), vfs.ModifyTime|vfs.ChangeTime)
	}

	err = mi.Save(fs)
	if err != nil {
		return int(written), err
	}

	if stopErr != nil {
		if written == 0 {
			return 0, stopErr
		}
		log.WithError(stopErr).WithFields(logrus.Fields{
			"requested": len(data),
			"written":   written,
		}).Warn("partial write")
	}

	return int(written), nil
}

// saveAfterFailure writes back blocks allocated before err stopped a write.
// A failed save is reported next to err, which stays the cause.
func saveAfterFailure(fs *vfs.Filesystem, mi vfs.MutableInode, err error) error {
	if saveErr := mi.Save(fs); saveErr != nil {
		return errors.Wrapf(err, "inode %d not saved (%v)", mi.InodePtr, saveErr)
	}

	return err
}

// Readdir lists a directory: "." and ".." first, then every live entry in
// block and slot order.
func Readdir(fs *vfs.Filesystem, path string) ([]FileInfo, error) {
	opLog(fs, "readdir", path)

	parentPtr, targetPtr, err := Resolve(fs, path)
	if err != nil {
		return nil, err
	}

	dir, err := fs.ReadInode(targetPtr)
	if err != nil {
		return nil, err
	}

	if !dir.IsDir() {
		return nil, errors.Wrapf(vfs.ErrNotDir, "%s", path)
	}

	parent, err := fs.ReadInode(parentPtr)
	if err != nil {
		return nil, err
	}

	fileInfos := []FileInfo{
		{name: ".", inodePtr: targetPtr, size: dir.Size, isDir: true},
		{name: "..", inodePtr: parentPtr, size: parent.Size, isDir: true},
	}

	directoryEntries, err := vfs.ReadAllDirectoryEntries(fs, dir)
	if err != nil {
		return nil, err
	}

	for _, directoryEntry := range directoryEntries {
		inodePtr := vfs.InodePtr(directoryEntry.InodePtr)
		inode, err := fs.ReadInode(inodePtr)
		if err != nil {
			return nil, err
		}

		fileInfos = append(fileInfos, FileInfo{
			name:     directoryEntry.NameString(),
			inodePtr: inodePtr,
			size:     inode.Size,
			isDir:    inode.IsDir(),
		})
	}

	return fileInfos, nil
}
