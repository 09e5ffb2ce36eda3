// Package blockdev enumerates the block devices known to the kernel.
package blockdev

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kriansa/rootserial/internal/log"
	"github.com/kriansa/rootserial/internal/mounts"
)

// Device is a block device, whole disk or partition
type Device struct {
	ID   mounts.DeviceID
	Name string
}

// List is a snapshot of the block devices present on the system
type List []Device

// FindByID returns the device with the given device number
func (l List) FindByID(id mounts.DeviceID) (Device, bool) {
	for _, dev := range l {
		if dev.ID == id {
			return dev, true
		}
	}
	return Device{}, false
}

// Lister reads block devices from sysfs
type Lister struct {
	fs        afero.Fs
	sysfsPath string
}

// NewLister creates a Lister reading from the sysfs mounted at sysfsPath
func NewLister(fs afero.Fs, sysfsPath string) *Lister {
	return &Lister{fs: fs, sysfsPath: sysfsPath}
}

// ListBlockDevices lists every entry of /sys/class/block with its device
// number. Entries whose dev attribute cannot be read are skipped.
func (l *Lister) ListBlockDevices() (List, error) {
	classDir := filepath.Join(l.sysfsPath, "class", "block")
	entries, err := afero.ReadDir(l.fs, classDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", classDir, err)
	}

	list := make(List, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		devFile := filepath.Join(classDir, name, "dev")

		data, err := afero.ReadFile(l.fs, devFile)
		if err != nil {
			log.Debug("skipping block device", "name", name, "error", err)
			continue
		}

		id, err := mounts.ParseDeviceID(string(data))
		if err != nil {
			log.Debug("skipping block device", "name", name, "error", err)
			continue
		}

		list = append(list, Device{ID: id, Name: name})
	}

	return list, nil
}
