package vfsapi

import (
	"strings"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/pkg/errors"
)

// SplitPath returns the non-empty components of a slash-separated path.
func SplitPath(path string) ([]string, error) {
	if strings.ContainsRune(path, 0) {
		return nil, errors.Wrapf(vfs.ErrInvalid, "path %q contains NUL", path)
	}

	pathFragments := make([]string, 0)
	for _, pathFragment := range strings.Split(path, "/") {
		if len(pathFragment) == 0 {
			continue
		}
		pathFragments = append(pathFragments, pathFragment)
	}

	return pathFragments, nil
}

// SplitParent separates the final component of path from its parent path.
func SplitParent(path string) (string, string, error) {
	pathFragments, err := SplitPath(path)
	if err != nil {
		return "", "", err
	}

	if len(pathFragments) == 0 {
		return "", "", errors.Wrap(vfs.ErrInvalid, "path has no final component")
	}

	name := pathFragments[len(pathFragments)-1]
	return "/" + strings.Join(pathFragments[:len(pathFragments)-1], "/"), name, nil
}

// Resolve walks path from the root directory. It returns the inode number of
// the target and of the directory holding it; the root is its own parent.
// When a component is missing the error wraps vfs.ErrNotFound and parent is
// the last directory that was reached.
func Resolve(fs *vfs.Filesystem, path string) (parent vfs.InodePtr, target vfs.InodePtr, err error) {
	pathFragments, err := SplitPath(path)
	if err != nil {
		return vfs.RootInodePtr, vfs.RootInodePtr, err
	}

	parent = vfs.RootInodePtr
	current := vfs.RootInodePtr
	for _, pathFragment := range pathFragments {
		inode, err := fs.ReadInode(current)
		if err != nil {
			return parent, current, err
		}

		if !inode.IsDir() {
			return parent, current, errors.Wrapf(vfs.ErrNotDir, "%s: component before %q", path, pathFragment)
		}

		_, directoryEntry, err := vfs.FindDirectoryEntryByName(fs, inode, pathFragment)
		if err != nil {
			return current, current, errors.Wrap(err, path)
		}

		parent = current
		current = vfs.InodePtr(directoryEntry.InodePtr)
	}

	return parent, current, nil
}

func GetInodeByPath(fs *vfs.Filesystem, path string) (vfs.MutableInode, error) {
	_, target, err := Resolve(fs, path)
	if err != nil {
		return vfs.MutableInode{}, err
	}

	return vfs.LoadMutableInode(fs, target)
}
