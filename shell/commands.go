package shell

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/PapiCZ/kiv_wfs/vfsapi"
	"github.com/abiosoft/ishell"
)

const defaultMode = 0o755

func Format(c *ishell.Context) {
	if !expectArgs(c, 2) {
		return
	}

	inodes, err := strconv.ParseUint(c.Args[0], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}
	blocks, err := strconv.ParseUint(c.Args[1], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}

	s := getSession(c)
	if s.fs != nil {
		_ = s.fs.Close()
		s.fs = nil
	}

	path := s.volumePath
	err = vfs.PrepareVolumeFile(path, vfs.FormatSize(inodes, blocks))
	if err != nil {
		c.Err(err)
		return
	}

	volume, err := vfs.NewVolume(path)
	if err != nil {
		c.Err(err)
		return
	}

	fs, err := formatAndMount(volume, inodes, blocks, s.opts)
	if err != nil {
		_ = volume.Close()
		c.Err(err)
		return
	}

	s.fs = fs
	s.cwd = "/"
	c.SetPrompt("/ > ")
	c.Println("OK")
}

func formatAndMount(volume *vfs.Volume, inodes, blocks uint64, opts []vfs.Option) (*vfs.Filesystem, error) {
	formatOpts := vfs.DefaultFormatOptions()
	_, err := vfs.Format(volume, inodes, blocks, formatOpts)
	if err != nil {
		return nil, err
	}

	return vfs.Mount(volume, opts...)
}

func Mkdir(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	err := vfsapi.Mkdir(fs, absPath(c, c.Args[0]), defaultMode)
	if err != nil {
		printErr(c, err)
		return
	}
	c.Println("OK")
}

func Touch(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	err := vfsapi.Create(fs, absPath(c, c.Args[0]), 0o644)
	if err != nil {
		printErr(c, err)
		return
	}
	c.Println("OK")
}

func Ls(c *ishell.Context) {
	fs := mounted(c)
	if fs == nil {
		return
	}

	path := "."
	if len(c.Args) == 1 {
		path = c.Args[0]
	}

	files, err := vfsapi.Readdir(fs, absPath(c, path))
	if err != nil {
		printErr(c, err)
		return
	}

	for _, v := range files {
		if v.IsDir() {
			c.Printf("+ %s\n", v.Name())
		} else {
			c.Printf("- %s (%d B)\n", v.Name(), v.Size())
		}
	}
}

func Rmdir(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	err := vfsapi.Rmdir(fs, absPath(c, c.Args[0]))
	if err != nil {
		printErr(c, err)
		return
	}
	c.Println("OK")
}

func Rm(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	err := vfsapi.Unlink(fs, absPath(c, c.Args[0]))
	if err != nil {
		printErr(c, err)
		return
	}
	c.Println("OK")
}

func Cd(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	path := absPath(c, c.Args[0])
	stat, err := vfsapi.Getattr(fs, path)
	if err != nil {
		printErr(c, err)
		return
	}
	if !stat.IsDir() {
		c.Println("NOT A DIRECTORY")
		return
	}

	getSession(c).cwd = path
	c.SetPrompt(path + " > ")
}

func Pwd(c *ishell.Context) {
	c.Println(getSession(c).cwd)
}

// Write stores the remaining arguments, joined by spaces, at an offset.
func Write(c *ishell.Context) {
	if len(c.Args) < 3 {
		c.Println("expected 3 arguments")
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	offset, err := strconv.ParseInt(c.Args[1], 10, 64)
	if err != nil {
		c.Err(err)
		return
	}

	data := []byte(strings.Join(c.Args[2:], " "))
	n, err := vfsapi.Write(fs, absPath(c, c.Args[0]), data, offset)
	if err != nil {
		printErr(c, err)
		return
	}
	if n < len(data) {
		c.Printf("NOT ENOUGH AVAILABLE SPACE (%d of %d bytes written)\n", n, len(data))
		return
	}
	c.Println("OK")
}

func Incp(c *ishell.Context) {
	if !expectArgs(c, 2) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	hostSrc := c.Args[0]
	vfsDst := absPath(c, c.Args[1])

	// Open file in host filesystem
	srcFile, err := os.Open(hostSrc)
	if err != nil {
		if os.IsNotExist(err) {
			c.Println("FILE NOT FOUND")
		} else {
			c.Err(err)
		}
		return
	}
	defer func() {
		_ = srcFile.Close()
	}()

	err = vfsapi.Create(fs, vfsDst, 0o644)
	if err != nil {
		printErr(c, err)
		return
	}

	dstFile, err := vfsapi.Open(fs, vfsDst)
	if err != nil {
		printErr(c, err)
		return
	}

	_, err = io.Copy(io.NewOffsetWriter(dstFile, 0), srcFile)
	if err != nil {
		printErr(c, err)
		return
	}
	c.Println("OK")
}

func Outcp(c *ishell.Context) {
	if !expectArgs(c, 2) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	srcFile, err := vfsapi.Open(fs, absPath(c, c.Args[0]))
	if err != nil {
		printErr(c, err)
		return
	}

	reader, err := srcFile.Reader()
	if err != nil {
		printErr(c, err)
		return
	}

	// Open file in host filesystem
	dstFile, err := os.Create(c.Args[1])
	if err != nil {
		c.Err(err)
		return
	}
	defer func() {
		_ = dstFile.Close()
	}()

	_, err = io.Copy(dstFile, reader)
	if err != nil {
		printErr(c, err)
		return
	}
	c.Println("OK")
}

func Cat(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	file, err := vfsapi.Open(fs, absPath(c, c.Args[0]))
	if err != nil {
		printErr(c, err)
		return
	}

	reader, err := file.Reader()
	if err != nil {
		printErr(c, err)
		return
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		printErr(c, err)
		return
	}
	c.Printf("%s\n", data)
}

func Stat(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	stat, err := vfsapi.Getattr(fs, absPath(c, c.Args[0]))
	if err != nil {
		printErr(c, err)
		return
	}

	c.Printf("inode %d mode %o links %d uid %d gid %d\n", stat.Ino, stat.Mode, stat.Nlink, stat.Uid, stat.Gid)
	c.Printf("size %d blocks %d\n", stat.Size, stat.Blocks)
	c.Printf("atime %s\nmtime %s\nctime %s\n", stat.Atime, stat.Mtime, stat.Ctime)
}

// Info lists the data blocks of a file.
func Info(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}
	fs := mounted(c)
	if fs == nil {
		return
	}

	mutableInode, err := vfsapi.GetInodeByPath(fs, absPath(c, c.Args[0]))
	if err != nil {
		printErr(c, err)
		return
	}
	inode := *mutableInode.Inode

	directPtrs := make([]vfs.VolumePtr, 0)
	indirectPtrs := make([]vfs.VolumePtr, 0)
	err = fs.ForEachBlock(inode, func(blockIndex int64, address vfs.VolumePtr) (bool, error) {
		if blockIndex < vfs.DirectPtrCount {
			directPtrs = append(directPtrs, address)
		} else {
			indirectPtrs = append(indirectPtrs, address)
		}
		return true, nil
	})
	if err != nil {
		c.Err(err)
		return
	}

	c.Printf("%s - %d - %d\n", c.Args[0], inode.Size, mutableInode.InodePtr)
	c.Println("Direct pointers")
	c.Println(strings.Join(VolumePtrsToStrings(directPtrs), " "))

	if indirect := inode.Blocks[vfs.IndirectSlot]; indirect != vfs.Unused {
		c.Printf("\nIndirect pointers (%d)\n", indirect)
		c.Println(strings.Join(VolumePtrsToStrings(indirectPtrs), " "))
	}
}

func Df(c *ishell.Context) {
	fs := mounted(c)
	if fs == nil {
		return
	}

	s := vfsapi.Statfs(fs)
	c.Printf("inodes %d/%d free\n", s.FreeInodes, s.Inodes)
	c.Printf("blocks %d/%d free (%d B each)\n", s.FreeBlocks, s.Blocks, s.BlockSize)
}

func Check(c *ishell.Context) {
	fs := mounted(c)
	if fs == nil {
		return
	}

	err := vfsapi.FsCheck(fs)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println("OK")
}

func Load(c *ishell.Context) {
	if !expectArgs(c, 1) {
		return
	}

	shell := getSession(c).shell

	// Open file on host filesystem
	bytes, err := os.ReadFile(c.Args[0])
	if err != nil {
		if os.IsNotExist(err) {
			c.Println("FILE NOT FOUND")
		} else {
			c.Err(err)
		}
		return
	}

	for _, cmd := range strings.Split(string(bytes), "\n") {
		if len(cmd) == 0 {
			continue
		}
		c.Println(cmd)

		err = shell.Process(strings.Fields(cmd)...)
		if err != nil {
			c.Err(err)
			return
		}
	}
}
