package shell

import (
	"testing"

	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/stretchr/testify/assert"
)

func TestVolumePtrsToStrings(t *testing.T) {
	assert.Equal(t, []string{}, VolumePtrsToStrings(nil))
	assert.Equal(t, []string{"17408", "17920"}, VolumePtrsToStrings([]vfs.VolumePtr{17408, 17920}))
}
