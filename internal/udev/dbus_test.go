package udev

import (
	"context"
	"os"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kriansa/rootserial/internal/log"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	log.Setup(false)
	os.Exit(m.Run())
}

// mockBusObject implements dbus.BusObject for testing
type mockBusObject struct {
	callResults map[string]*dbus.Call
}

func (m *mockBusObject) Call(method string, flags dbus.Flags, args ...any) *dbus.Call {
	if call, ok := m.callResults[method]; ok {
		return call
	}
	return &dbus.Call{Err: dbus.ErrMsgNoObject}
}

func (m *mockBusObject) CallWithContext(_ context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call {
	return m.Call(method, flags, args...)
}

func (m *mockBusObject) Go(method string, flags dbus.Flags, ch chan *dbus.Call, args ...any) *dbus.Call {
	return m.Call(method, flags, args...)
}

func (m *mockBusObject) GoWithContext(_ context.Context, method string, flags dbus.Flags, ch chan *dbus.Call, args ...any) *dbus.Call {
	return m.Call(method, flags, args...)
}

func (m *mockBusObject) AddMatchSignal(iface, member string, options ...dbus.MatchOption) *dbus.Call {
	return &dbus.Call{}
}

func (m *mockBusObject) RemoveMatchSignal(iface, member string, options ...dbus.MatchOption) *dbus.Call {
	return &dbus.Call{}
}

func (m *mockBusObject) GetProperty(p string) (dbus.Variant, error) {
	return dbus.Variant{}, nil
}

func (m *mockBusObject) StoreProperty(p string, value any) error {
	return nil
}

func (m *mockBusObject) SetProperty(p string, v any) error {
	return nil
}

func (m *mockBusObject) Destination() string {
	return dbusService
}

func (m *mockBusObject) Path() dbus.ObjectPath {
	return dbus.ObjectPath(dbusRootPath)
}

// mockUDisksConnection implements UDisksConnection for testing
type mockUDisksConnection struct {
	manager *mockBusObject
	closed  bool
}

func (m *mockUDisksConnection) ObjectManager() dbus.BusObject {
	if m.manager != nil {
		return m.manager
	}
	return &mockBusObject{callResults: map[string]*dbus.Call{}}
}

func (m *mockUDisksConnection) Close() error {
	m.closed = true
	return nil
}

type mockBlock struct {
	path   dbus.ObjectPath
	device string
	dev    uint64
	drive  dbus.ObjectPath
}

type mockDrive struct {
	path   dbus.ObjectPath
	serial string
	id     string
	model  string
}

// Helper to create mock managed objects
func makeManagedObjects(blocks []mockBlock, drives []mockDrive) map[dbus.ObjectPath]map[string]map[string]dbus.Variant {
	result := make(map[dbus.ObjectPath]map[string]map[string]dbus.Variant)

	for _, b := range blocks {
		result[b.path] = map[string]map[string]dbus.Variant{
			dbusBlockInterface: {
				"Device":       dbus.MakeVariant(append([]byte(b.device), 0)),
				"DeviceNumber": dbus.MakeVariant(b.dev),
				"Drive":        dbus.MakeVariant(b.drive),
			},
		}
	}

	for _, d := range drives {
		result[d.path] = map[string]map[string]dbus.Variant{
			dbusDriveInterface: {
				"Serial": dbus.MakeVariant(d.serial),
				"Id":     dbus.MakeVariant(d.id),
				"Model":  dbus.MakeVariant(d.model),
				"Vendor": dbus.MakeVariant(""),
			},
		}
	}

	return result
}

func newMockConnection(managedObjects any) *mockUDisksConnection {
	return &mockUDisksConnection{
		manager: &mockBusObject{
			callResults: map[string]*dbus.Call{
				dbusObjectManager + ".GetManagedObjects": {
					Body: []any{managedObjects},
				},
			},
		},
	}
}

func TestDBusEnumerator_Enumerate(t *testing.T) {
	drivePath := dbus.ObjectPath("/org/freedesktop/UDisks2/drives/Samsung_SSD_860_EVO_500GB_S3Z1NB0K123456A")

	objects := makeManagedObjects(
		[]mockBlock{
			{
				path:   "/org/freedesktop/UDisks2/block_devices/sda",
				device: "/dev/sda",
				dev:    unix.Mkdev(8, 0),
				drive:  drivePath,
			},
			{
				path:   "/org/freedesktop/UDisks2/block_devices/dm_2d0",
				device: "/dev/dm-0",
				dev:    unix.Mkdev(253, 0),
				drive:  "/",
			},
		},
		[]mockDrive{
			{
				path:   drivePath,
				serial: "S3Z1NB0K123456A",
				id:     "Samsung-SSD-860-EVO-500GB-S3Z1NB0K123456A",
				model:  "Samsung SSD 860 EVO 500GB",
			},
		},
	)

	conn := newMockConnection(objects)
	e, err := NewDBusEnumerator(WithConnection(conn))
	require.NoError(t, err)

	devices, err := e.Enumerate("block")
	require.NoError(t, err)
	require.Len(t, devices, 2)

	dm := devices[0]
	assert.Equal(t, "dm-0", dm.Sysname)
	assert.Equal(t, map[string]string{
		"SUBSYSTEM": "block",
		"DEVNAME":   "/dev/dm-0",
		"MAJOR":     "253",
		"MINOR":     "0",
	}, dm.Properties)

	sda := devices[1]
	assert.Equal(t, "sda", sda.Sysname)
	assert.Equal(t, map[string]string{
		"SUBSYSTEM":       "block",
		"DEVNAME":         "/dev/sda",
		"MAJOR":           "8",
		"MINOR":           "0",
		"ID_SERIAL_SHORT": "S3Z1NB0K123456A",
		"ID_SERIAL":       "Samsung-SSD-860-EVO-500GB-S3Z1NB0K123456A",
		"ID_MODEL":        "Samsung SSD 860 EVO 500GB",
	}, sda.Properties)

	require.NoError(t, e.Close())
	assert.True(t, conn.closed)
}

func TestDBusEnumerator_UnsupportedSubsystem(t *testing.T) {
	e, err := NewDBusEnumerator(WithConnection(newMockConnection(makeManagedObjects(nil, nil))))
	require.NoError(t, err)

	_, err = e.Enumerate("net")
	require.ErrorContains(t, err, "only supports the block subsystem")
}

func TestDBusEnumerator_CallError(t *testing.T) {
	conn := &mockUDisksConnection{}
	e, err := NewDBusEnumerator(WithConnection(conn))
	require.NoError(t, err)

	_, err = e.Enumerate("block")
	var dbusErr dbus.Error
	require.ErrorAs(t, err, &dbusErr)
	assert.Equal(t, dbus.ErrMsgNoObject.Name, dbusErr.Name)
	assert.ErrorContains(t, err, "GetManagedObjects")
}

func TestCheckUDisksAvailable(t *testing.T) {
	const (
		nameHasOwner    = "org.freedesktop.DBus.NameHasOwner"
		listActivatable = "org.freedesktop.DBus.ListActivatableNames"
	)

	tests := []struct {
		name    string
		calls   map[string]*dbus.Call
		wantErr error
	}{
		{
			name:  "running",
			calls: map[string]*dbus.Call{nameHasOwner: {Body: []any{true}}},
		},
		{
			name: "activatable",
			calls: map[string]*dbus.Call{
				nameHasOwner:    {Body: []any{false}},
				listActivatable: {Body: []any{[]string{"org.freedesktop.systemd1", dbusService}}},
			},
		},
		{
			name: "not installed",
			calls: map[string]*dbus.Call{
				nameHasOwner:    {Body: []any{false}},
				listActivatable: {Body: []any{[]string{"org.freedesktop.systemd1"}}},
			},
			wantErr: ErrUDisksUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkUDisksAvailable(&mockBusObject{callResults: tt.calls})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("bus error", func(t *testing.T) {
		err := checkUDisksAvailable(&mockBusObject{callResults: map[string]*dbus.Call{}})
		require.ErrorContains(t, err, "NameHasOwner")
	})
}
