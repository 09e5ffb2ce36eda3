package rootserial

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/kriansa/rootserial/internal/log"
	"github.com/kriansa/rootserial/internal/validation"
)

// Locate returns the kernel name of the physical block device for a disk
func (r *Resolver) Locate(kind DiskKind) (string, error) {
	switch disk := kind.(type) {
	case RegularDisk:
		return r.locateRegular(disk)
	case LVMDisk:
		return r.locateLVM(disk)
	default:
		return "", fmt.Errorf("unknown disk kind %T", kind)
	}
}

func (r *Resolver) locateRegular(disk RegularDisk) (string, error) {
	list, err := r.blockDevices.ListBlockDevices()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeviceBlockListReadFailure, err)
	}

	dev, ok := list.FindByID(disk.Device)
	if !ok {
		return "", fmt.Errorf("%w: no block device with number %s", ErrBlockDeviceNotFound, disk.Device)
	}

	log.Debug("located block device", "device", disk.Device, "name", dev.Name)
	return dev.Name, nil
}

// locateLVM returns the single physical volume under a logical volume. Only
// one level is followed, slaves of the slave are not inspected.
func (r *Resolver) locateLVM(disk LVMDisk) (string, error) {
	entries, err := afero.ReadDir(r.fs, disk.SlavesDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLvmDeviceSlavesNotFound, err)
	}

	switch len(entries) {
	case 0:
		return "", ErrLvmDeviceSlaveNotFound
	case 1:
	default:
		names := make([]string, len(entries))
		for i, entry := range entries {
			names[i] = entry.Name()
		}
		return "", fmt.Errorf("%w: %s has slaves %q", ErrLvmMultipleSlaves, disk.Name, names)
	}

	name := entries[0].Name()
	if err := validation.ValidateDeviceName(name); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDeviceName, err)
	}

	log.Debug("located LVM physical volume", "lv", disk.Name, "pv", name)
	return name, nil
}
