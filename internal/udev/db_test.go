package udev

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, data := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(data), 0o444))
	}
}

func TestDatabaseEnumerator_Enumerate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/sys/class/block/sda/dev":      "8:0\n",
		"/sys/class/block/sda/uevent":   "MAJOR=8\nMINOR=0\nDEVNAME=sda\nDEVTYPE=disk\n",
		"/sys/class/block/sda1/dev":     "8:1\n",
		"/sys/class/block/sda1/uevent":  "MAJOR=8\nMINOR=1\nDEVNAME=sda1\nDEVTYPE=partition\n",
		"/sys/class/block/loop0/dev":    "7:0\n",
		"/sys/class/block/loop0/uevent": "MAJOR=7\nMINOR=0\nDEVNAME=loop0\nDEVTYPE=disk\n",
		"/run/udev/data/b8:0":           "S:disk/by-id/ata-WDC_WD10EZEX_WD-WCC6Y1234567\n" +
			"I:1234\n" +
			"E:ID_BUS=ata\n" +
			"E:ID_SERIAL=WDC_WD10EZEX-08WN4A0_WD-WCC6Y1234567\n" +
			"E:ID_SERIAL_SHORT=WD-WCC6Y1234567\n" +
			"G:systemd\n",
		"/run/udev/data/b8:1":           "E:ID_SERIAL=WDC_WD10EZEX-08WN4A0_WD-WCC6Y1234567\n" +
			"E:ID_SERIAL_SHORT=WD-WCC6Y1234567\n" +
			"E:ID_PART_ENTRY_NUMBER=1\n",
	})

	devices, err := NewDatabaseEnumerator(fs, "/sys", "/run/udev/data").Enumerate("block")
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, []string{"loop0", "sda", "sda1"},
		[]string{devices[0].Sysname, devices[1].Sysname, devices[2].Sysname})

	sda := devices[1]
	assert.Equal(t, "block", sda.Subsystem)
	serial, ok := sda.Property("ID_SERIAL_SHORT")
	require.True(t, ok)
	assert.Equal(t, "WD-WCC6Y1234567", serial)
	devName, _ := sda.Property("DEVNAME")
	assert.Equal(t, "sda", devName)
	_, ok = sda.Property("S:disk/by-id/ata-WDC_WD10EZEX_WD-WCC6Y1234567")
	assert.False(t, ok, "only E: lines are properties")

	loop := devices[0]
	_, ok = loop.Property("ID_SERIAL")
	assert.False(t, ok, "loop0 has no database record")
	devType, _ := loop.Property("DEVTYPE")
	assert.Equal(t, "disk", devType)
}

func TestDatabaseEnumerator_MissingClass(t *testing.T) {
	_, err := NewDatabaseEnumerator(afero.NewMemMapFs(), "/sys", "/run/udev/data").Enumerate("block")
	require.ErrorContains(t, err, "read /sys/class/block")
}

func TestDatabaseEnumerator_DeviceWithoutNode(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/sys/class/net/eth0/uevent":  "INTERFACE=eth0\nIFINDEX=2\n",
		"/run/udev/data/+net:eth0":    "E:ID_NET_NAME_PATH=enp0s3\n",
		"/sys/class/tty/ttyS0/dev":    "4:64\n",
		"/run/udev/data/c4:64":        "E:ID_PATH=platform-serial8250\n",
		"/sys/class/tty/ttyS0/uevent": "DEVNAME=ttyS0\n",
	})

	nets, err := NewDatabaseEnumerator(fs, "/sys", "/run/udev/data").Enumerate("net")
	require.NoError(t, err)
	require.Len(t, nets, 1)
	v, _ := nets[0].Property("ID_NET_NAME_PATH")
	assert.Equal(t, "enp0s3", v)

	ttys, err := NewDatabaseEnumerator(fs, "/sys", "/run/udev/data").Enumerate("tty")
	require.NoError(t, err)
	require.Len(t, ttys, 1)
	v, _ = ttys[0].Property("ID_PATH")
	assert.Equal(t, "platform-serial8250", v)
}

func TestFindBySysname(t *testing.T) {
	devices := []Device{{Sysname: "sda"}, {Sysname: "sdb"}}

	dev, ok := FindBySysname(devices, "sdb")
	require.True(t, ok)
	assert.Equal(t, "sdb", dev.Sysname)

	_, ok = FindBySysname(devices, "sdc")
	assert.False(t, ok)
}

func TestPropertyKeys(t *testing.T) {
	dev := Device{Properties: map[string]string{"b": "2", "a": "1", "c": "3"}}
	assert.Equal(t, []string{"a", "b", "c"}, dev.PropertyKeys())
}

func TestNewEnumerator(t *testing.T) {
	e, err := NewEnumerator("udevdb", Options{Fs: afero.NewMemMapFs(), SysfsPath: "/sys", DataPath: "/run/udev/data"})
	require.NoError(t, err)
	assert.IsType(t, &DatabaseEnumerator{}, e)

	e, err = NewEnumerator("udevadm", Options{})
	require.NoError(t, err)
	assert.IsType(t, &CLIEnumerator{}, e)

	_, err = NewEnumerator("hal", Options{})
	require.ErrorContains(t, err, "unknown backend")
}
