package mounts

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moby/sys/mountinfo"
	"github.com/spf13/afero"

	"github.com/kriansa/rootserial/internal/log"
)

// DefaultMountInfoPath is the mount table of the calling process
const DefaultMountInfoPath = "/proc/self/mountinfo"

// lvmUUIDPrefix marks device-mapper targets owned by LVM in dm/uuid
const lvmUUIDPrefix = "LVM-"

// Reader reads the mount table from a mountinfo file and resolves the
// backing disk of every entry through sysfs
type Reader struct {
	fs            afero.Fs
	mountInfoPath string
	sysfsPath     string
}

// NewReader creates a mount table reader
func NewReader(fs afero.Fs, mountInfoPath, sysfsPath string) *Reader {
	return &Reader{
		fs:            fs,
		mountInfoPath: mountInfoPath,
		sysfsPath:     sysfsPath,
	}
}

// ReadMounts returns the mount table in kernel order
func (r *Reader) ReadMounts() ([]Mount, error) {
	file, err := r.fs.Open(r.mountInfoPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.mountInfoPath, err)
	}
	defer file.Close()

	infos, err := mountinfo.GetMountsFromReader(file, nil)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.mountInfoPath, err)
	}

	disks := make(map[DeviceID]*Disk)
	mounts := make([]Mount, 0, len(infos))
	for _, info := range infos {
		id := DeviceID{Major: uint32(info.Major), Minor: uint32(info.Minor)}

		disk, seen := disks[id]
		if !seen {
			disk = r.lookupDisk(id)
			disks[id] = disk
		}

		mounts = append(mounts, Mount{
			MountPoint: info.Mountpoint,
			Device:     id,
			FSType:     info.FSType,
			Source:     info.Source,
			Options:    joinOptions(info.Options, info.VFSOptions),
			Disk:       disk,
		})
	}

	return mounts, nil
}

// lookupDisk finds the block device for a device number. Anonymous devices
// (major 0) and devices without a sysfs node have no disk.
func (r *Reader) lookupDisk(id DeviceID) *Disk {
	if id.Major == 0 {
		return nil
	}

	devDir := filepath.Join(r.sysfsPath, "dev", "block", id.String())
	uevent, err := afero.ReadFile(r.fs, filepath.Join(devDir, "uevent"))
	if err != nil {
		log.Debug("no block device for mount", "device", id, "error", err)
		return nil
	}

	name := ueventValue(uevent, "DEVNAME")
	if name == "" {
		log.Debug("block device uevent has no DEVNAME", "device", id)
		return nil
	}

	disk := &Disk{Name: name}

	// Only device-mapper devices have a dm directory
	if uuid, err := afero.ReadFile(r.fs, filepath.Join(devDir, "dm", "uuid")); err == nil {
		disk.LVM = strings.HasPrefix(strings.TrimSpace(string(uuid)), lvmUUIDPrefix)
	}

	return disk
}

func ueventValue(data []byte, key string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), "=")
		if ok && k == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func joinOptions(lists ...string) []string {
	var opts []string
	for _, list := range lists {
		if list == "" {
			continue
		}
		opts = append(opts, strings.Split(list, ",")...)
	}
	return opts
}
