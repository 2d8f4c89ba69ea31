package shell

import (
	"path"
	"strconv"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/abiosoft/ishell"
	"github.com/pkg/errors"
)

func VolumePtrsToStrings(ptrs []vfs.VolumePtr) []string {
	strs := make([]string, 0)
	for _, ptr := range ptrs {
		strs = append(strs, strconv.FormatInt(int64(ptr), 10))
	}

	return strs
}

// absPath interprets p relative to the shell's working directory.
func absPath(c *ishell.Context, p string) string {
	if !path.IsAbs(p) {
		p = path.Join(getSession(c).cwd, p)
	}

	return path.Clean(p)
}

// mounted returns the current filesystem, or nil after telling the user
// there is none.
func mounted(c *ishell.Context) *vfs.Filesystem {
	fs := getSession(c).fs
	if fs == nil {
		c.Println("NO FILESYSTEM (use format first)")
	}

	return fs
}

func printErr(c *ishell.Context, err error) {
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		c.Println("PATH NOT FOUND")
	case errors.Is(err, vfs.ErrExists):
		c.Println("EXIST")
	case errors.Is(err, vfs.ErrNotEmpty):
		c.Println("NOT EMPTY")
	case errors.Is(err, vfs.ErrNoSpace), errors.Is(err, vfs.ErrFileTooLarge):
		c.Println("NOT ENOUGH AVAILABLE SPACE")
	case errors.Is(err, vfs.ErrNotDir):
		c.Println("NOT A DIRECTORY")
	case errors.Is(err, vfs.ErrIsDir):
		c.Println("IS A DIRECTORY")
	case errors.Is(err, vfs.ErrNameTooLong):
		c.Println("NAME TOO LONG")
	default:
		c.Err(err)
	}
}

func expectArgs(c *ishell.Context, n int) bool {
	if len(c.Args) != n {
		if n == 1 {
			c.Println("expected 1 argument")
		} else {
			c.Printf("expected %d arguments\n", n)
		}
		return false
	}

	return true
}
