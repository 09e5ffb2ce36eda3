package rootserial

import (
	"fmt"
	"strings"

	"github.com/kriansa/rootserial/internal/log"
	"github.com/kriansa/rootserial/internal/udev"
)

const blockSubsystem = "block"

// serialProperties are tried in order. ID_SERIAL_SHORT is the bare vendor
// serial, ID_SERIAL usually carries a vendor and model prefix.
var serialProperties = []string{"ID_SERIAL_SHORT", "ID_SERIAL"}

// LookupSerial returns the hardware serial of a block device
func (r *Resolver) LookupSerial(name string) (string, error) {
	dev, err := r.LookupDevice(name)
	if err != nil {
		return "", err
	}

	for _, key := range serialProperties {
		value, ok := dev.Property(key)
		if !ok {
			continue
		}
		// Blank values are absent, but a serial is returned byte for byte
		if strings.TrimSpace(value) != "" {
			log.Debug("found device serial", "device", name, "property", key)
			return value, nil
		}
	}

	return "", fmt.Errorf("%w: device %s has no %s", ErrSerialNotFound, name, strings.Join(serialProperties, " or "))
}

// LookupDevice returns the device manager entry of a block device
func (r *Resolver) LookupDevice(name string) (udev.Device, error) {
	devices, err := r.devices.Enumerate(blockSubsystem)
	if err != nil {
		return udev.Device{}, fmt.Errorf("%w: %w", ErrUdevDeviceScanFailure, err)
	}

	dev, ok := udev.FindBySysname(devices, name)
	if !ok {
		return udev.Device{}, fmt.Errorf("%w: %s", ErrUdevDeviceNotFound, name)
	}

	return dev, nil
}
