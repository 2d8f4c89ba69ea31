package shell

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/abiosoft/ishell"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() []vfs.Option {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return []vfs.Option{
		vfs.WithLogger(log),
		vfs.WithCredentials(1000, 1000),
		vfs.WithClock(func() time.Time { return time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC) }),
	}
}

// newTestShell returns a shell over a not yet existing image in a temporary
// directory. With memory set, a formatted in-memory filesystem is mounted.
func newTestShell(t *testing.T, memory bool) (*ishell.Shell, *bytes.Buffer) {
	t.Helper()

	sh, err := New(filepath.Join(t.TempDir(), "disk.img"), testOptions()...)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	sh.SetOut(out)

	if memory {
		volume := vfs.NewMemoryVolume(vfs.FormatSize(32, 32))
		_, err := vfs.Format(volume, 32, 32, vfs.DefaultFormatOptions())
		require.NoError(t, err)

		fs, err := vfs.Mount(volume, testOptions()...)
		require.NoError(t, err)
		sh.Get("session").(*session).fs = fs
	}

	t.Cleanup(func() {
		assert.NoError(t, Unmount(sh))
	})

	return sh, out
}

func TestShellCommands(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.txt")
	require.NoError(t, os.WriteFile(script, []byte("mkdir /x\n\ntouch /x/y\n"), 0o600))

	tests := []struct {
		name   string
		memory bool
		cmds   [][]string
		want   string
	}{
		{
			name: "format then df",
			cmds: [][]string{{"format", "32", "32"}, {"df"}},
			want: "OK\ninodes 31/32 free\nblocks 32/32 free (512 B each)\n",
		},
		{
			name: "unmounted",
			cmds: [][]string{{"ls"}, {"pwd"}},
			want: "NO FILESYSTEM (use format first)\n/\n",
		},
		{
			name:   "touch twice",
			memory: true,
			cmds:   [][]string{{"touch", "/a"}, {"touch", "/a"}},
			want:   "OK\nEXIST\n",
		},
		{
			name:   "write and cat",
			memory: true,
			cmds:   [][]string{{"touch", "/a"}, {"write", "/a", "0", "hello", "world"}, {"cat", "/a"}},
			want:   "OK\nOK\nhello world\n",
		},
		{
			name:   "short write",
			memory: true,
			cmds:   [][]string{{"touch", "/a"}, {"write", "/a", "0", strings.Repeat("x", 20000)}},
			want:   "OK\nNOT ENOUGH AVAILABLE SPACE (15360 of 20000 bytes written)\n",
		},
		{
			name:   "rm",
			memory: true,
			cmds:   [][]string{{"touch", "/a"}, {"rm", "/a"}, {"cat", "/a"}, {"rm", "/a"}},
			want:   "OK\nOK\nPATH NOT FOUND\nPATH NOT FOUND\n",
		},
		{
			name:   "cd and ls",
			memory: true,
			cmds:   [][]string{{"mkdir", "/d"}, {"cd", "/d"}, {"touch", "f"}, {"pwd"}, {"ls"}},
			want:   "OK\nOK\n/d\n+ .\n+ ..\n- f (0 B)\n",
		},
		{
			name:   "rmdir non-empty",
			memory: true,
			cmds:   [][]string{{"mkdir", "/d"}, {"touch", "/d/f"}, {"rmdir", "/d"}, {"rm", "/d"}},
			want:   "OK\nOK\nNOT EMPTY\nIS A DIRECTORY\n",
		},
		{
			name:   "load",
			memory: true,
			cmds:   [][]string{{"load", script}, {"ls", "/x"}, {"check"}},
			want:   "mkdir /x\nOK\ntouch /x/y\nOK\n+ .\n+ ..\n- y (0 B)\nOK\n",
		},
		{
			name:   "load missing script",
			memory: true,
			cmds:   [][]string{{"load", filepath.Join(t.TempDir(), "missing")}},
			want:   "FILE NOT FOUND\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, out := newTestShell(t, tt.memory)

			for _, cmd := range tt.cmds {
				require.NoError(t, sh.Process(cmd...), strings.Join(cmd, " "))
			}

			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestShellIncpOutcp(t *testing.T) {
	sh, out := newTestShell(t, true)

	dir := t.TempDir()
	src := filepath.Join(dir, "in.txt")
	dst := filepath.Join(dir, "out.txt")
	content := strings.Repeat("copied through the volume\n", 150)
	require.NoError(t, os.WriteFile(src, []byte(content), 0o600))

	require.NoError(t, sh.Process("incp", src, "/copy"))
	require.NoError(t, sh.Process("outcp", "/copy", dst))
	assert.Equal(t, "OK\nOK\n", out.String())

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}
