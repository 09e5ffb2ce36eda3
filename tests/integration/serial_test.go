//go:build integration

package integration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rootserial runs the binary in the VM as root
func rootserial(t *testing.T, args ...string) string {
	t.Helper()
	output, err := testVM.Run(fmt.Sprintf("sudo %s %s", binaryPath, strings.Join(args, " ")))
	require.NoError(t, err, "rootserial %s failed: %s", strings.Join(args, " "), output)
	return output
}

func TestPrintsRootDiskSerial(t *testing.T) {
	output := rootserial(t)
	assert.Equal(t, fmt.Sprintf("Serial: %s\n", testVM.DiskSerial()), output)
}

func TestQuietPrintsBareSerial(t *testing.T) {
	output := rootserial(t, "-q")
	assert.Equal(t, testVM.DiskSerial()+"\n", output)
}

func TestBackendsAgree(t *testing.T) {
	for _, backend := range []string{"udevdb", "udevadm", "udisks"} {
		t.Run(backend, func(t *testing.T) {
			output := rootserial(t, "-q", "--backend", backend)
			assert.Equal(t, testVM.DiskSerial()+"\n", output)
		})
	}
}

func TestRepeatedRunsAreIdentical(t *testing.T) {
	first := rootserial(t, "-q")
	second := rootserial(t, "-q")
	assert.Equal(t, first, second)
}

func TestRootTraceFollowsLVM(t *testing.T) {
	output := rootserial(t, "root")
	assert.Contains(t, output, "Mount point:     /\n")
	assert.Contains(t, output, "LVM logical volume dm-")
	assert.Contains(t, output, "Physical device: vda")
	assert.Contains(t, output, "Serial:          "+testVM.DiskSerial())
}

func TestPropertiesOfBootDisk(t *testing.T) {
	output := rootserial(t, "properties", "vda")
	assert.Contains(t, output, "ID_SERIAL="+testVM.DiskSerial()+"\n")
	assert.Contains(t, output, "SUBSYSTEM=block\n")
}

func TestUnknownDeviceFails(t *testing.T) {
	output, err := testVM.Run(fmt.Sprintf("sudo %s properties vdz", binaryPath))
	require.Error(t, err)
	assert.Contains(t, output, "error: failed to find udev device: vdz")
}
