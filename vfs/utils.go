package vfs

func InodePtrToVolumePtr(sb Superblock, ptr InodePtr) VolumePtr {
	return sb.InodesStartAddress + VolumePtr(ptr)*BlockSize
}

func BlockPtrToVolumePtr(sb Superblock, ptr BlockPtr) VolumePtr {
	return sb.DataStartAddress + VolumePtr(ptr)*BlockSize
}

// VolumePtrToBlockPtr returns false when ptr is not the start of a block in
// the data region.
func VolumePtrToBlockPtr(sb Superblock, ptr VolumePtr) (BlockPtr, bool) {
	if ptr < sb.DataStartAddress || (ptr-sb.DataStartAddress)%BlockSize != 0 {
		return 0, false
	}

	blockPtr := BlockPtr((ptr - sb.DataStartAddress) / BlockSize)
	if blockPtr >= BlockPtr(sb.DataBlockCount) {
		return 0, false
	}

	return blockPtr, true
}

// CToGoString returns data up to the first NUL byte.
func CToGoString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}

	return string(data)
}
