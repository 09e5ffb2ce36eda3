package udev

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
	"golang.org/x/sys/unix"

	"github.com/kriansa/rootserial/internal/log"
)

const (
	// DBus service and interface constants
	dbusService       = "org.freedesktop.UDisks2"
	dbusRootPath      = "/org/freedesktop/UDisks2"
	dbusObjectManager = "org.freedesktop.DBus.ObjectManager"

	dbusBlockInterface = "org.freedesktop.UDisks2.Block"
	dbusDriveInterface = "org.freedesktop.UDisks2.Drive"
)

// driveProperties maps UDisks2 Drive properties to udev property names
var driveProperties = map[string]string{
	"Serial": "ID_SERIAL_SHORT",
	"Id":     "ID_SERIAL",
	"Model":  "ID_MODEL",
	"Vendor": "ID_VENDOR",
	"WWN":    "ID_WWN",
}

// DBusEnumerator implements Enumerator using the UDisks2 DBus API. UDisks2
// only tracks block devices.
type DBusEnumerator struct {
	conn UDisksConnection
}

// DBusEnumeratorOption is a functional option for DBusEnumerator
type DBusEnumeratorOption func(*DBusEnumerator)

// WithConnection sets a custom DBus connection (for testing)
func WithConnection(conn UDisksConnection) DBusEnumeratorOption {
	return func(e *DBusEnumerator) {
		e.conn = conn
	}
}

// NewDBusEnumerator creates a new UDisks2 enumerator
func NewDBusEnumerator(opts ...DBusEnumeratorOption) (*DBusEnumerator, error) {
	e := &DBusEnumerator{}

	for _, opt := range opts {
		opt(e)
	}

	if e.conn == nil {
		conn, err := ConnectUDisks()
		if err != nil {
			return nil, fmt.Errorf("connect to udisks2: %w", err)
		}
		e.conn = conn
	}

	return e, nil
}

// Close closes the DBus connection
func (e *DBusEnumerator) Close() error {
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

// getManagedObjects calls GetManagedObjects on the ObjectManager interface
// Returns: map[ObjectPath]map[InterfaceName]map[PropertyName]Variant
func (e *DBusEnumerator) getManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, error) {
	obj := e.conn.ObjectManager()

	var result map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	call := obj.Call(dbusObjectManager+".GetManagedObjects", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("GetManagedObjects: %w", call.Err)
	}

	if err := call.Store(&result); err != nil {
		return nil, fmt.Errorf("store GetManagedObjects result: %w", err)
	}

	return result, nil
}

// Enumerate returns every UDisks2 block object, with the properties of the
// drive it belongs to translated to udev property names
func (e *DBusEnumerator) Enumerate(subsystem string) ([]Device, error) {
	if subsystem != "block" {
		return nil, fmt.Errorf("udisks backend only supports the block subsystem, got %q", subsystem)
	}

	objects, err := e.getManagedObjects()
	if err != nil {
		return nil, err
	}

	var devices []Device
	for path, interfaces := range objects {
		blockProps, ok := interfaces[dbusBlockInterface]
		if !ok {
			continue
		}

		devNode := byteString(blockProps["Device"])
		if devNode == "" {
			log.Debug("udisks block object has no device node", "path", path)
			continue
		}

		props := map[string]string{
			"SUBSYSTEM": "block",
			"DEVNAME":   devNode,
		}

		if v, ok := blockProps["DeviceNumber"]; ok {
			if dev, ok := v.Value().(uint64); ok {
				props["MAJOR"] = strconv.FormatUint(uint64(unix.Major(dev)), 10)
				props["MINOR"] = strconv.FormatUint(uint64(unix.Minor(dev)), 10)
			}
		}

		if v, ok := blockProps["Drive"]; ok {
			if drivePath, ok := v.Value().(dbus.ObjectPath); ok && drivePath != "/" {
				copyDriveProperties(objects[drivePath][dbusDriveInterface], props)
			}
		}

		devices = append(devices, Device{
			Sysname:    sysnameFromPath(devNode),
			Subsystem:  "block",
			Properties: props,
		})
	}

	sortDevices(devices)
	return devices, nil
}

func copyDriveProperties(driveProps map[string]dbus.Variant, props map[string]string) {
	for name, key := range driveProperties {
		v, ok := driveProps[name]
		if !ok {
			continue
		}
		if s, ok := v.Value().(string); ok && s != "" {
			props[key] = s
		}
	}
}

// byteString decodes a NUL terminated "ay" property such as Block.Device
func byteString(v dbus.Variant) string {
	b, ok := v.Value().([]byte)
	if !ok {
		return ""
	}
	return string(bytes.TrimRight(b, "\x00"))
}
