package vfs

import (
	"math/bits"

	"github.com/pkg/errors"
)

const wordBits = 32

// Bitmap tracks allocation of a fixed number of slots, one bit per slot, bit
// set meaning allocated. Bit i lives in byte i/8 at position i%8.
type Bitmap struct {
	bits   []byte
	length int64
}

func NewBitmap(length int64) Bitmap {
	return Bitmap{
		bits:   make([]byte, NeededMemoryForBitmap(length)),
		length: length,
	}
}

// BitmapView wraps existing memory, usually a region of a mapped volume.
func BitmapView(data []byte, length int64) (Bitmap, error) {
	if VolumePtr(len(data)) < NeededMemoryForBitmap(length) {
		return Bitmap{}, OutOfRange{NeededMemoryForBitmap(length), VolumePtr(len(data))}
	}

	return Bitmap{
		bits:   data,
		length: length,
	}, nil
}

func NeededMemoryForBitmap(length int64) VolumePtr {
	return VolumePtr((length + 7) / 8)
}

func (b Bitmap) Len() int64 {
	return b.length
}

func (b Bitmap) checkPosition(position int64) error {
	if position < 0 || position >= b.length {
		return OutOfRange{VolumePtr(position), VolumePtr(b.length - 1)}
	}

	return nil
}

func (b Bitmap) SetBit(position int64, value byte) error {
	if value != 0 && value != 1 {
		return errors.New("value can be only 0 or 1")
	}

	err := b.checkPosition(position)
	if err != nil {
		return err
	}

	posInSlice := position / 8
	posInByte := position % 8

	if value == 1 {
		b.bits[posInSlice] |= byte(1) << posInByte
	} else {
		b.bits[posInSlice] &= ^(byte(1) << posInByte)
	}

	return nil
}

func (b Bitmap) GetBit(position int64) (byte, error) {
	err := b.checkPosition(position)
	if err != nil {
		return 0, err
	}

	return (b.bits[position/8] >> (position % 8)) & 1, nil
}

// word loads the 32 bits starting at bit wordIndex*32. Bytes past the end of
// the backing memory read as allocated.
func (b Bitmap) word(wordIndex int64) uint32 {
	var w uint32
	for i := int64(0); i < 4; i++ {
		byteIndex := wordIndex*4 + i
		v := byte(0xff)
		if byteIndex < int64(len(b.bits)) {
			v = b.bits[byteIndex]
		}
		w |= uint32(v) << (8 * i)
	}

	return w
}

// Allocate marks the lowest-numbered free slot as used and returns it.
func (b Bitmap) Allocate() (int64, error) {
	for wordIndex := int64(0); wordIndex*wordBits < b.length; wordIndex++ {
		w := b.word(wordIndex)
		if w == ^uint32(0) {
			continue
		}

		position := wordIndex*wordBits + int64(bits.TrailingZeros32(^w))
		if position >= b.length {
			break
		}

		b.bits[position/8] |= byte(1) << (position % 8)
		return position, nil
	}

	return 0, ErrNoSpace
}

func (b Bitmap) Release(position int64) error {
	return b.SetBit(position, 0)
}

func (b Bitmap) IsSet(position int64) bool {
	value, err := b.GetBit(position)
	return err == nil && value == 1
}

func (b Bitmap) FreeCount() int64 {
	var used int64
	for position := int64(0); position < b.length; position++ {
		if b.IsSet(position) {
			used++
		}
	}

	return b.length - used
}
