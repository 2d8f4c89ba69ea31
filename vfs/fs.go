package vfs

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Filesystem is the handle to a mounted volume. It owns the superblock and
// both bitmaps for the lifetime of the mount.
//
// A Filesystem is not safe for concurrent use. No operation is atomic with
// respect to another, so callers that dispatch from several goroutines must
// serialize every call behind a single lock. Nothing is journaled: an
// interrupted operation can leave a bitmap and the inode or directory it
// describes out of sync.
type Filesystem struct {
	Volume      *Volume
	Superblock  Superblock
	InodeBitmap Bitmap
	DataBitmap  Bitmap

	// Uid and Gid own every inode created through this handle.
	Uid uint32
	Gid uint32

	clock func() time.Time
	log   logrus.FieldLogger
}

type Option func(*Filesystem)

func WithLogger(log logrus.FieldLogger) Option {
	return func(fs *Filesystem) {
		fs.log = log
	}
}

func WithCredentials(uid, gid uint32) Option {
	return func(fs *Filesystem) {
		fs.Uid = uid
		fs.Gid = gid
	}
}

func WithClock(clock func() time.Time) Option {
	return func(fs *Filesystem) {
		fs.clock = clock
	}
}

// Mount reads the superblock of a formatted volume and binds both bitmaps to
// their regions.
func Mount(volume *Volume, opts ...Option) (*Filesystem, error) {
	fs := &Filesystem{
		Volume: volume,
		Uid:    uint32(os.Getuid()),
		Gid:    uint32(os.Getgid()),
		clock:  time.Now,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(fs)
	}

	err := volume.ReadStruct(0, &fs.Superblock)
	if err != nil {
		return nil, errors.Wrap(err, "read superblock")
	}

	sb := fs.Superblock
	err = sb.Validate(volume.Size())
	if err != nil {
		return nil, err
	}

	inodeBits, err := volume.Slice(sb.InodeBitmapStartAddress, int(NeededMemoryForBitmap(int64(sb.InodeCount))))
	if err != nil {
		return nil, err
	}
	fs.InodeBitmap, err = BitmapView(inodeBits, int64(sb.InodeCount))
	if err != nil {
		return nil, err
	}

	dataBits, err := volume.Slice(sb.DataBitmapStartAddress, int(NeededMemoryForBitmap(int64(sb.DataBlockCount))))
	if err != nil {
		return nil, err
	}
	fs.DataBitmap, err = BitmapView(dataBits, int64(sb.DataBlockCount))
	if err != nil {
		return nil, err
	}

	if !fs.InodeBitmap.IsSet(int64(RootInodePtr)) {
		return nil, errors.Wrap(ErrCorrupt, "root inode is not allocated")
	}

	fs.log.WithFields(logrus.Fields{
		"inodes": sb.InodeCount,
		"blocks": sb.DataBlockCount,
	}).Debug("mounted volume")

	return fs, nil
}

func (fs *Filesystem) Log() logrus.FieldLogger {
	return fs.log
}

func (fs *Filesystem) Now() time.Time {
	return fs.clock()
}

func (fs *Filesystem) Sync() error {
	return fs.Volume.Sync()
}

func (fs *Filesystem) Close() error {
	return fs.Volume.Close()
}

func (fs *Filesystem) checkInodePtr(inodePtr InodePtr) error {
	if inodePtr < 0 || uint64(inodePtr) >= fs.Superblock.InodeCount {
		return OutOfRange{VolumePtr(inodePtr), VolumePtr(fs.Superblock.InodeCount) - 1}
	}

	return nil
}

func (fs *Filesystem) ReadInode(inodePtr InodePtr) (Inode, error) {
	err := fs.checkInodePtr(inodePtr)
	if err != nil {
		return Inode{}, err
	}

	var inode Inode
	err = fs.Volume.ReadStruct(InodePtrToVolumePtr(fs.Superblock, inodePtr), &inode)
	if err != nil {
		return Inode{}, err
	}

	return inode, nil
}

func (fs *Filesystem) WriteInode(inodePtr InodePtr, inode Inode) error {
	err := fs.checkInodePtr(inodePtr)
	if err != nil {
		return err
	}

	return fs.Volume.WriteStruct(InodePtrToVolumePtr(fs.Superblock, inodePtr), &inode)
}

func (fs *Filesystem) IsInodeUsed(inodePtr InodePtr) bool {
	return fs.InodeBitmap.IsSet(int64(inodePtr))
}

// AllocateInode claims the lowest free inode and clears its slot.
func (fs *Filesystem) AllocateInode() (InodePtr, error) {
	position, err := fs.InodeBitmap.Allocate()
	if err != nil {
		fs.log.Warn("inode bitmap exhausted")
		return 0, errors.Wrap(err, "allocate inode")
	}

	inodePtr := InodePtr(position)
	err = fs.Volume.Zero(InodePtrToVolumePtr(fs.Superblock, inodePtr), BlockSize)
	if err != nil {
		return 0, err
	}

	return inodePtr, nil
}

// FreeInode clears the slot and releases the inode. The caller must have
// released its data blocks already.
func (fs *Filesystem) FreeInode(inodePtr InodePtr) error {
	err := fs.checkInodePtr(inodePtr)
	if err != nil {
		return err
	}

	err = fs.Volume.Zero(InodePtrToVolumePtr(fs.Superblock, inodePtr), BlockSize)
	if err != nil {
		return err
	}

	return fs.InodeBitmap.Release(int64(inodePtr))
}

// AllocateBlock claims the lowest free data block, zeroes it and returns its
// address.
func (fs *Filesystem) AllocateBlock() (VolumePtr, error) {
	position, err := fs.DataBitmap.Allocate()
	if err != nil {
		fs.log.Warn("data bitmap exhausted")
		return Unused, errors.Wrap(err, "allocate data block")
	}

	address := BlockPtrToVolumePtr(fs.Superblock, BlockPtr(position))
	err = fs.Volume.Zero(address, BlockSize)
	if err != nil {
		return Unused, err
	}

	return address, nil
}

func (fs *Filesystem) FreeBlock(address VolumePtr) error {
	blockPtr, ok := VolumePtrToBlockPtr(fs.Superblock, address)
	if !ok {
		return errors.Wrapf(ErrCorrupt, "block address %d is outside the data region", address)
	}

	err := fs.Volume.Zero(address, BlockSize)
	if err != nil {
		return err
	}

	return fs.DataBitmap.Release(int64(blockPtr))
}

// IsBlockUsed reports whether the data block at address is marked allocated.
func (fs *Filesystem) IsBlockUsed(address VolumePtr) bool {
	blockPtr, ok := VolumePtrToBlockPtr(fs.Superblock, address)
	return ok && fs.DataBitmap.IsSet(int64(blockPtr))
}
