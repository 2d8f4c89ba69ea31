package vfs

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2023, 12, 1, 10, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func PrepareFS(t *testing.T, inodes, blocks uint64) *Filesystem {
	t.Helper()

	volume := NewMemoryVolume(FormatSize(inodes, blocks))
	_, err := Format(volume, inodes, blocks, FormatOptions{Uid: 1000, Gid: 1000, Now: testTime})
	require.NoError(t, err)

	fs, err := Mount(volume,
		WithLogger(quietLogger()),
		WithCredentials(1000, 1000),
		WithClock(func() time.Time { return testTime }),
	)
	require.NoError(t, err)

	return fs
}
