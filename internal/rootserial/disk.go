package rootserial

import (
	"path/filepath"

	"github.com/kriansa/rootserial/internal/mounts"
)

// DiskKind is how the physical device of a mount is located: RegularDisk or
// LVMDisk.
type DiskKind interface {
	diskKind()
}

// RegularDisk is a mount directly on a block device, located by device number
type RegularDisk struct {
	Device mounts.DeviceID
}

// LVMDisk is a mount on an LVM logical volume, located through its slaves
type LVMDisk struct {
	// Name is the device-mapper device name, e.g. dm-0
	Name string
	// SlavesDir lists the physical volumes under the logical volume
	SlavesDir string
}

func (RegularDisk) diskKind() {}
func (LVMDisk) diskKind()     {}

// Classify decides how the physical device of a mount is located
func (r *Resolver) Classify(mount mounts.Mount) (DiskKind, error) {
	if mount.Disk == nil {
		return nil, ErrRootDiskNotFound
	}

	if mount.Disk.LVM {
		return LVMDisk{
			Name:      mount.Disk.Name,
			SlavesDir: filepath.Join(r.sysfsPath, "block", mount.Disk.Name, "slaves"),
		}, nil
	}

	return RegularDisk{Device: mount.Device}, nil
}
