package vfsapi

import (
	"io"
	"testing"
	"time"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC)

func PrepareFSForApi(t *testing.T, inodes, blocks uint64) *vfs.Filesystem {
	t.Helper()

	volume := vfs.NewMemoryVolume(vfs.FormatSize(inodes, blocks))
	_, err := vfs.Format(volume, inodes, blocks, vfs.FormatOptions{Uid: 1000, Gid: 1000, Now: testTime})
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	fs, err := vfs.Mount(volume,
		vfs.WithLogger(log),
		vfs.WithCredentials(1000, 1000),
		vfs.WithClock(func() time.Time { return testTime }),
	)
	require.NoError(t, err)

	return fs
}

func readAll(t *testing.T, fs *vfs.Filesystem, path string) []byte {
	t.Helper()

	stat, err := Getattr(fs, path)
	require.NoError(t, err)

	buf := make([]byte, stat.Size)
	n, err := Read(fs, path, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	return buf
}

func names(fileInfos []FileInfo) []string {
	result := make([]string, 0, len(fileInfos))
	for _, fi := range fileInfos {
		result = append(result, fi.Name())
	}
	return result
}
