package rootserial

import (
	"fmt"
	"slices"

	"github.com/kriansa/rootserial/internal/log"
	"github.com/kriansa/rootserial/internal/mounts"
	"github.com/kriansa/rootserial/internal/procmounts"
)

const (
	rootMountPoint = "/"
	lowerDirOption = "lowerdir"
)

// ResolveRootMount returns the mount entry backing "/". When the root is an
// overlay, the mount of its lowerdir is returned instead. Only one overlay
// level is unwrapped.
func (r *Resolver) ResolveRootMount() (mounts.Mount, error) {
	table, err := r.mounts.ReadMounts()
	if err != nil {
		return mounts.Mount{}, fmt.Errorf("%w: %w", ErrMountTableUnreadable, err)
	}

	root, ok := findMount(table, rootMountPoint)
	if !ok {
		return mounts.Mount{}, ErrRootMountNotFound
	}

	if !r.isOverlay(root.FSType) {
		log.Debug("resolved root mount", "device", root.Device, "fstype", root.FSType)
		return root, nil
	}

	log.Debug("root is an overlay, looking up its lower directory", "fstype", root.FSType)

	lowerDir, err := r.overlayLowerDir()
	if err != nil {
		return mounts.Mount{}, err
	}

	lower, ok := findMount(table, lowerDir)
	if !ok {
		return mounts.Mount{}, fmt.Errorf("%w: no mount at overlay lowerdir %q", ErrRootMountNotFound, lowerDir)
	}

	if r.isOverlay(lower.FSType) {
		return mounts.Mount{}, fmt.Errorf("%w: overlay lowerdir %q is itself an overlay", ErrRootMountNotFound, lowerDir)
	}

	log.Debug("resolved overlay root mount", "lowerdir", lowerDir, "device", lower.Device, "fstype", lower.FSType)
	return lower, nil
}

// overlayLowerDir reads the live mount table and returns the lowerdir option
// of the first "/" entry that has one
func (r *Resolver) overlayLowerDir() (string, error) {
	live, err := r.liveMounts.ReadLiveMounts()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMountTableUnreadable, err)
	}

	for _, entry := range live {
		if entry.MountPoint != rootMountPoint {
			continue
		}
		if lowerDir, ok := procmounts.ParseOptions(entry.Options).Value(lowerDirOption); ok && lowerDir != "" {
			return lowerDir, nil
		}
	}

	return "", ErrOverlayLowerDirMissing
}

func (r *Resolver) isOverlay(fsType string) bool {
	return slices.Contains(r.overlayFSTypes, fsType)
}

// findMount returns the last entry mounted at mountPoint, which is the one
// visible when several mounts are stacked on the same directory
func findMount(table []mounts.Mount, mountPoint string) (mounts.Mount, bool) {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].MountPoint == mountPoint {
			return table[i], true
		}
	}
	return mounts.Mount{}, false
}
