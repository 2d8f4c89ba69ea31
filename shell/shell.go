// Package shell is an interactive front end that dispatches one command at a
// time into vfsapi.
package shell

import (
	"os"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/abiosoft/ishell"
)

// New builds a shell over the image at volumePath. An existing image is
// mounted right away; otherwise the shell waits for format.
func New(volumePath string, opts ...vfs.Option) (*ishell.Shell, error) {
	shell := ishell.New()
	shell.SetPrompt("/ > ")

	// Context values are copied per command, so state lives behind a pointer
	s := &session{
		volumePath: volumePath,
		opts:       opts,
		cwd:        "/",
		shell:      shell,
	}
	shell.Set("session", s)

	_, err := os.Stat(volumePath)
	if err == nil {
		// We want to load existing filesystem volume
		volume, err := vfs.NewVolume(volumePath)
		if err != nil {
			return nil, err
		}

		fs, err := vfs.Mount(volume, opts...)
		if err != nil {
			_ = volume.Close()
			return nil, err
		}

		s.fs = fs
	}

	cmds := []*ishell.Cmd{
		{Name: "format", Help: "format <inodes> <blocks>", Func: Format},
		{Name: "mkdir", Help: "mkdir <path>", Func: Mkdir},
		{Name: "touch", Help: "touch <path>", Func: Touch},
		{Name: "ls", Help: "ls [path]", Func: Ls},
		{Name: "rmdir", Help: "rmdir <path>", Func: Rmdir},
		{Name: "rm", Help: "rm <path>", Func: Rm},
		{Name: "cd", Help: "cd <path>", Func: Cd},
		{Name: "pwd", Help: "pwd", Func: Pwd},
		{Name: "write", Help: "write <path> <offset> <text...>", Func: Write},
		{Name: "incp", Help: "incp <host file> <path>", Func: Incp},
		{Name: "outcp", Help: "outcp <path> <host file>", Func: Outcp},
		{Name: "cat", Help: "cat <path>", Func: Cat},
		{Name: "stat", Help: "stat <path>", Func: Stat},
		{Name: "info", Help: "info <path>", Func: Info},
		{Name: "df", Help: "df", Func: Df},
		{Name: "check", Help: "check", Func: Check},
		{Name: "load", Help: "load <host script>", Func: Load},
	}
	for _, cmd := range cmds {
		shell.AddCmd(cmd)
	}

	return shell, nil
}

// Unmount syncs and closes the filesystem held by shell, if any.
func Unmount(shell *ishell.Shell) error {
	s := shell.Get("session").(*session)
	if s.fs == nil {
		return nil
	}

	fs := s.fs
	s.fs = nil
	return fs.Close()
}

type session struct {
	volumePath string
	opts       []vfs.Option
	fs         *vfs.Filesystem
	cwd        string
	shell      *ishell.Shell
}

func getSession(c *ishell.Context) *session {
	return c.Get("session").(*session)
}
