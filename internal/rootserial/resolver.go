// Package rootserial resolves the hardware serial number of the physical
// storage device backing the root filesystem.
//
// Resolution is a fixed pipeline: the root mount is found (unwrapping one
// overlay level), its disk is classified as a regular block device or an LVM
// logical volume, the physical block device is located, and its serial is
// read from the device manager. The first failing stage ends resolution and
// its error is returned unchanged.
package rootserial

import (
	"slices"

	"github.com/spf13/afero"

	"github.com/kriansa/rootserial/internal/blockdev"
	"github.com/kriansa/rootserial/internal/mounts"
	"github.com/kriansa/rootserial/internal/procmounts"
	"github.com/kriansa/rootserial/internal/udev"
)

// MountReader reads the mount table with device numbers and disks
type MountReader interface {
	ReadMounts() ([]mounts.Mount, error)
}

// LiveMountReader reads the live mount table, used for overlay options
type LiveMountReader interface {
	ReadLiveMounts() ([]procmounts.Entry, error)
}

// BlockDeviceLister lists the block devices of the system
type BlockDeviceLister interface {
	ListBlockDevices() (blockdev.List, error)
}

// Resolver resolves the root device serial from live system state. It holds
// no state between calls.
type Resolver struct {
	mounts         MountReader
	liveMounts     LiveMountReader
	blockDevices   BlockDeviceLister
	devices        udev.Enumerator
	fs             afero.Fs
	sysfsPath      string
	overlayFSTypes []string
}

// Config holds the system locations a Resolver reads from
type Config struct {
	Fs             afero.Fs
	SysfsPath      string
	MountInfoPath  string
	MountsPath     string
	OverlayFSTypes []string
}

// Option is a functional option for Resolver
type Option func(*Resolver)

// WithMountReader replaces the mount table source
func WithMountReader(m MountReader) Option {
	return func(r *Resolver) {
		r.mounts = m
	}
}

// WithLiveMountReader replaces the live mount table source
func WithLiveMountReader(m LiveMountReader) Option {
	return func(r *Resolver) {
		r.liveMounts = m
	}
}

// WithBlockDeviceLister replaces the block device source
func WithBlockDeviceLister(l BlockDeviceLister) Option {
	return func(r *Resolver) {
		r.blockDevices = l
	}
}

// NewResolver creates a Resolver reading the system described by cfg and
// querying devices through the given enumerator
func NewResolver(cfg Config, devices udev.Enumerator, opts ...Option) *Resolver {
	r := &Resolver{
		mounts:         mounts.NewReader(cfg.Fs, cfg.MountInfoPath, cfg.SysfsPath),
		liveMounts:     procmounts.NewReader(cfg.Fs, cfg.MountsPath),
		blockDevices:   blockdev.NewLister(cfg.Fs, cfg.SysfsPath),
		devices:        devices,
		fs:             cfg.Fs,
		sysfsPath:      cfg.SysfsPath,
		overlayFSTypes: slices.Clone(cfg.OverlayFSTypes),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Result is the outcome of every resolution stage
type Result struct {
	// Mount is the root mount, after overlay unwrapping
	Mount mounts.Mount
	// Disk is the classification of the root mount's disk
	Disk DiskKind
	// Device is the kernel name of the physical block device
	Device string
	// Serial is the hardware serial of Device, never empty
	Serial string
}

// Resolve runs the whole pipeline and returns every intermediate result
func (r *Resolver) Resolve() (*Result, error) {
	mount, err := r.ResolveRootMount()
	if err != nil {
		return nil, err
	}

	disk, err := r.Classify(mount)
	if err != nil {
		return nil, err
	}

	device, err := r.Locate(disk)
	if err != nil {
		return nil, err
	}

	serial, err := r.LookupSerial(device)
	if err != nil {
		return nil, err
	}

	return &Result{
		Mount:  mount,
		Disk:   disk,
		Device: device,
		Serial: serial,
	}, nil
}

// GetDeviceSerial returns the hardware serial of the root filesystem device
func (r *Resolver) GetDeviceSerial() (string, error) {
	res, err := r.Resolve()
	if err != nil {
		return "", err
	}
	return res.Serial, nil
}
