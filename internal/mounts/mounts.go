// Package mounts reads the kernel mount table together with the block device
// backing each mount.
package mounts

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DeviceID is a kernel device number split into its major and minor halves
type DeviceID struct {
	Major uint32
	Minor uint32
}

// DeviceIDFromDev splits an encoded dev_t
func DeviceIDFromDev(dev uint64) DeviceID {
	return DeviceID{Major: unix.Major(dev), Minor: unix.Minor(dev)}
}

// ParseDeviceID parses the "major:minor" format used by sysfs and mountinfo
func ParseDeviceID(s string) (DeviceID, error) {
	majStr, minStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return DeviceID{}, fmt.Errorf("invalid device number %q: expected <major>:<minor>", s)
	}
	maj, err := strconv.ParseUint(majStr, 10, 32)
	if err != nil {
		return DeviceID{}, fmt.Errorf("invalid device major in %q: %w", s, err)
	}
	minor, err := strconv.ParseUint(minStr, 10, 32)
	if err != nil {
		return DeviceID{}, fmt.Errorf("invalid device minor in %q: %w", s, err)
	}
	return DeviceID{Major: uint32(maj), Minor: uint32(minor)}, nil
}

// Dev encodes the device number as a dev_t
func (d DeviceID) Dev() uint64 {
	return unix.Mkdev(d.Major, d.Minor)
}

func (d DeviceID) String() string {
	return fmt.Sprintf("%d:%d", d.Major, d.Minor)
}

// Disk describes the block device a mount lives on
type Disk struct {
	// Name is the kernel device name, e.g. sda1 or dm-0
	Name string
	// LVM is set when the device is a device-mapper LVM logical volume
	LVM bool
}

// Mount is a snapshot of one mount table entry
type Mount struct {
	MountPoint string
	Device     DeviceID
	FSType     string
	Source     string
	// Options holds per-mount options followed by superblock options
	Options []string
	// Disk is nil when the mount is not backed by a block device
	Disk *Disk
}
