// Package udev queries the device manager for devices and their properties.
package udev

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Device is a device known to the device manager
type Device struct {
	// Sysname is the kernel name of the device, e.g. sda
	Sysname string
	// Subsystem is the kernel subsystem the device belongs to
	Subsystem string
	// Properties holds the device properties, e.g. ID_SERIAL
	Properties map[string]string
}

// Property returns the value of a device property
func (d Device) Property(key string) (string, bool) {
	v, ok := d.Properties[key]
	return v, ok
}

// PropertyKeys returns the property names in sorted order
func (d Device) PropertyKeys() []string {
	keys := make([]string, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Enumerator lists the devices of a subsystem
type Enumerator interface {
	// Enumerate returns every device of the given subsystem, e.g. "block"
	Enumerate(subsystem string) ([]Device, error)
}

// Options configures the enumerator backends
type Options struct {
	// Fs is the filesystem sysfs and the udev database are read from
	Fs afero.Fs
	// SysfsPath is the sysfs mount point
	SysfsPath string
	// DataPath is the udev database directory
	DataPath string
}

// NewEnumerator creates an Enumerator based on the specified backend
func NewEnumerator(backend string, opts Options) (Enumerator, error) {
	switch backend {
	case "udevdb":
		return NewDatabaseEnumerator(opts.Fs, opts.SysfsPath, opts.DataPath), nil
	case "udevadm":
		return NewCLIEnumerator(), nil
	case "udisks":
		return NewDBusEnumerator()
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'udevdb', 'udevadm' or 'udisks')", backend)
	}
}

// FindBySysname returns the first device with the given kernel name
func FindBySysname(devices []Device, name string) (Device, bool) {
	for _, dev := range devices {
		if dev.Sysname == name {
			return dev, true
		}
	}
	return Device{}, false
}

func sortDevices(devices []Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Sysname < devices[j].Sysname
	})
}

// sysnameFromPath returns the kernel name from a devpath or devnode
func sysnameFromPath(path string) string {
	return filepath.Base(path)
}
