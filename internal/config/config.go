package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigPath is the default location for the config file
	DefaultConfigPath = "/etc/rootserial.conf"
	// DefaultBackend is the default device manager backend
	DefaultBackend = "udevdb"
	// DefaultSysfsPath is where sysfs is mounted
	DefaultSysfsPath = "/sys"
	// DefaultMountInfoPath is the per-process mount table with device numbers
	DefaultMountInfoPath = "/proc/self/mountinfo"
	// DefaultMountsPath is the live mount table, used to read overlay options
	DefaultMountsPath = "/proc/mounts"
	// DefaultUdevDataPath is the udev database directory
	DefaultUdevDataPath = "/run/udev/data"
)

// Backends lists the supported device manager backends
var Backends = []string{"udevdb", "udevadm", "udisks"}

// DefaultOverlayFSTypes are the filesystem types whose root is unwrapped
// through their lowerdir= option
var DefaultOverlayFSTypes = []string{"overlayroot", "overlay"}

// Config holds the resolver configuration
type Config struct {
	// Backend is the device manager backend: "udevdb", "udevadm" or "udisks"
	Backend string `toml:"backend"`
	// SysfsPath is the sysfs mount point
	SysfsPath string `toml:"sysfs_path"`
	// MountInfoPath is the mountinfo file read for the mount table
	MountInfoPath string `toml:"mountinfo_path"`
	// MountsPath is the mounts file read for overlay lowerdir discovery
	MountsPath string `toml:"mounts_path"`
	// UdevDataPath is the udev database directory (udevdb backend only)
	UdevDataPath string `toml:"udev_data_path"`
	// OverlayFSTypes are the filesystem types treated as overlays
	OverlayFSTypes []string `toml:"overlay_fs_types"`
}

// Load loads configuration from a TOML file
// Returns an empty config if the file doesn't exist
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Merge merges CLI flags into the config, with CLI flags taking precedence
// over config file values. Empty CLI values are ignored.
func (c *Config) Merge(backend string) {
	if backend != "" {
		c.Backend = backend
	}
}

// ApplyDefaults applies default values for any unset fields
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.SysfsPath == "" {
		c.SysfsPath = DefaultSysfsPath
	}
	if c.MountInfoPath == "" {
		c.MountInfoPath = DefaultMountInfoPath
	}
	if c.MountsPath == "" {
		c.MountsPath = DefaultMountsPath
	}
	if c.UdevDataPath == "" {
		c.UdevDataPath = DefaultUdevDataPath
	}
	if c.OverlayFSTypes == nil {
		c.OverlayFSTypes = slices.Clone(DefaultOverlayFSTypes)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("backend must be one of %q, got %q", Backends, c.Backend)
	}

	for name, path := range map[string]string{
		"sysfs_path":     c.SysfsPath,
		"mountinfo_path": c.MountInfoPath,
		"mounts_path":    c.MountsPath,
		"udev_data_path": c.UdevDataPath,
	} {
		if path == "" || path[0] != '/' {
			return fmt.Errorf("%s must be an absolute path, got %q", name, path)
		}
	}

	for _, fsType := range c.OverlayFSTypes {
		if fsType == "" {
			return fmt.Errorf("overlay_fs_types must not contain empty entries")
		}
	}

	return nil
}
