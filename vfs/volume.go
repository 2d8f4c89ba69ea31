package vfs

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type VolumePtr int64
type InodePtr int32
type BlockPtr int64

var endianness = binary.LittleEndian

// Volume is the byte-addressable backing store of a filesystem. A volume
// opened from a file maps the whole image once; all reads and writes go
// straight to the mapping.
type Volume struct {
	file *os.File
	data []byte
}

func PrepareVolumeFile(path string, size VolumePtr) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		_ = f.Close()
	}()

	err = f.Truncate(int64(size))
	if err != nil {
		return err
	}

	return nil
}

// NewVolume maps the image at path read-write and shared, so every store is
// visible in the file.
func NewVolume(path string) (*Volume, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if stat.Size() == 0 {
		_ = f.Close()
		return nil, errors.Wrapf(ErrInvalid, "volume %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "mmap %s", path)
	}

	return &Volume{
		file: f,
		data: data,
	}, nil
}

// NewMemoryVolume returns a zeroed volume that lives only in memory.
func NewMemoryVolume(size VolumePtr) *Volume {
	return &Volume{
		data: make([]byte, size),
	}
}

func (v *Volume) Size() VolumePtr {
	return VolumePtr(len(v.data))
}

func (v *Volume) checkRange(volumePtr VolumePtr, length int) error {
	if volumePtr < 0 || length < 0 || volumePtr+VolumePtr(length) > v.Size() {
		return OutOfRange{volumePtr + VolumePtr(length), v.Size()}
	}

	return nil
}

// Slice returns a view of length bytes at volumePtr. The view aliases the
// volume, so writes through it land on the volume.
func (v *Volume) Slice(volumePtr VolumePtr, length int) ([]byte, error) {
	err := v.checkRange(volumePtr, length)
	if err != nil {
		return nil, err
	}

	return v.data[volumePtr : volumePtr+VolumePtr(length) : volumePtr+VolumePtr(length)], nil
}

func (v *Volume) ReadBytes(volumePtr VolumePtr, data []byte) error {
	src, err := v.Slice(volumePtr, len(data))
	if err != nil {
		return err
	}

	copy(data, src)

	return nil
}

func (v *Volume) WriteBytes(volumePtr VolumePtr, data []byte) error {
	dst, err := v.Slice(volumePtr, len(data))
	if err != nil {
		return err
	}

	copy(dst, data)

	return nil
}

func (v *Volume) Zero(volumePtr VolumePtr, length int) error {
	dst, err := v.Slice(volumePtr, length)
	if err != nil {
		return err
	}

	clear(dst)

	return nil
}

func (v *Volume) ReadStruct(volumePtr VolumePtr, data interface{}) error {
	src, err := v.Slice(volumePtr, binary.Size(data))
	if err != nil {
		return err
	}

	_, err = binary.Decode(src, endianness, data)
	if err != nil {
		return err
	}

	return nil
}

func (v *Volume) WriteStruct(volumePtr VolumePtr, data interface{}) error {
	dst, err := v.Slice(volumePtr, binary.Size(data))
	if err != nil {
		return err
	}

	_, err = binary.Encode(dst, endianness, data)
	if err != nil {
		return err
	}

	return nil
}

func (v *Volume) ReadPtr(volumePtr VolumePtr) (VolumePtr, error) {
	src, err := v.Slice(volumePtr, PtrSize)
	if err != nil {
		return 0, err
	}

	return VolumePtr(endianness.Uint64(src)), nil
}

func (v *Volume) WritePtr(volumePtr VolumePtr, value VolumePtr) error {
	dst, err := v.Slice(volumePtr, PtrSize)
	if err != nil {
		return err
	}

	endianness.PutUint64(dst, uint64(value))

	return nil
}

// Sync flushes a mapped volume to its file. It is a no-op for memory volumes.
func (v *Volume) Sync() error {
	if v.file == nil {
		return nil
	}

	return unix.Msync(v.data, unix.MS_SYNC)
}

func (v *Volume) Close() error {
	if v.file == nil {
		return nil
	}

	err := v.Sync()
	if err != nil {
		return err
	}

	err = unix.Munmap(v.data)
	if err != nil {
		return err
	}
	v.data = nil

	return v.file.Close()
}

func (v *Volume) Destroy() error {
	if v.file == nil {
		v.data = nil
		return nil
	}

	name := v.file.Name()
	_ = v.Close()
	return os.Remove(name)
}
