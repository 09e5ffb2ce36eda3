package rootserial

import "errors"

// Each resolution stage fails with exactly one of these. Errors carrying an
// underlying cause wrap both, so errors.Is matches the kind and the cause.
var (
	ErrMountTableUnreadable       = errors.New("failed to read mount points")
	ErrRootMountNotFound          = errors.New("failed to get root file system mount")
	ErrOverlayLowerDirMissing     = errors.New("overlay root lowerdir not found")
	ErrRootDiskNotFound           = errors.New("failed to get root device disk")
	ErrDeviceBlockListReadFailure = errors.New("failed to read device block list")
	ErrBlockDeviceNotFound        = errors.New("failed to find block device")
	ErrLvmDeviceSlavesNotFound    = errors.New("slave devices not found for LVM root")
	ErrLvmDeviceSlaveNotFound     = errors.New("slave device not found for LVM root")
	ErrLvmMultipleSlaves          = errors.New("LVM root spans multiple slave devices, which is not supported")
	ErrInvalidDeviceName          = errors.New("invalid block device name")
	ErrUdevDeviceScanFailure      = errors.New("failed to scan devices")
	ErrUdevDeviceNotFound         = errors.New("failed to find udev device")
	ErrSerialNotFound             = errors.New("serial not found")
)
